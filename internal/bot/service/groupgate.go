package service

import (
	"github.com/seerrbot/OverseerrBot/internal/bot/models"
	"github.com/sirupsen/logrus"
)

// GroupGate confines processing to a single primary chat once group mode is
// enabled. The first /start an admin issues while the primary chat is unset
// claims it; the claim is first-writer-wins under the config store lock.
type GroupGate struct {
	config ConfigStore
}

// NewGroupGate creates the gate.
func NewGroupGate(config ConfigStore) *GroupGate {
	return &GroupGate{config: config}
}

// Admit reports whether the event may be processed. The caller must hold the
// session's serialization lock.
func (g *GroupGate) Admit(ev Event, sess *models.Session) bool {
	cfg := g.config.Get()
	if !cfg.GroupMode {
		return true
	}
	if cfg.PrimaryChatID != 0 {
		return ev.ChatID == cfg.PrimaryChatID
	}

	// Primary chat unset: only an admin's /start may claim it.
	if ev.Command != "start" || sess.Role != models.RoleAdmin {
		return false
	}
	claimed := false
	err := g.config.Update(func(c *models.BotConfig) error {
		if !c.GroupMode {
			// Group mode was switched off while we raced; nothing to claim.
			return nil
		}
		if c.PrimaryChatID == 0 {
			c.PrimaryChatID = ev.ChatID
			claimed = true
		}
		return nil
	})
	if err != nil {
		logrus.WithError(err).Error("Failed to claim primary chat")
		return false
	}
	if claimed {
		logrus.Infof("Chat %d claimed as the primary group chat", ev.ChatID)
		return true
	}
	// Another chat won the claim; admit only if it was this one.
	return g.config.Get().PrimaryChatID == ev.ChatID
}
