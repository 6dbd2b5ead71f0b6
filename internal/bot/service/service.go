// Package service contains the bot core: authorization and group gates, the
// operation-mode identity resolver, the conversation state machine and the
// pagination/selection cache. Everything Telegram-specific lives in the
// orchestrator (bot.go); the rest of the package operates on plain events.
package service

import (
	"errors"

	"github.com/seerrbot/OverseerrBot/internal/bot/models"
)

// Backend defines the Overseerr operations the engine depends on.
type Backend interface {
	Search(query string) ([]models.MediaResult, error)
	CreateRequest(id models.Identity, mediaID int, mediaType string) error
	CreateIssue(id models.Identity, mediaID int, issueType int, message string) error
	ListUsers() ([]models.BackendUser, error)
	CreateUser(email, username string) error
	Login(email, password string) (string, error)
	SetNotifications(id models.Identity, enabled, silent bool) error
}

// SessionStore defines the session persistence operations the engine uses.
// GetOrCreate hands out value copies; a handler's mutations reach the store
// only through Save.
type SessionStore interface {
	GetOrCreate(participantID int64, authorized bool) models.Session
	Save(sess models.Session)
	PromoteAdmin(participantID int64) bool
	SetRole(participantID int64, role models.Role)
	HasAdmin() bool
	Persist() error
}

// ConfigStore defines guarded access to the global bot configuration.
type ConfigStore interface {
	Get() models.BotConfig
	Update(fn func(*models.BotConfig) error) error
}

// Event is one inbound chat interaction, already stripped of transport
// detail. Exactly one of Command, Text or Callback is meaningful.
type Event struct {
	ParticipantID int64
	ChatID        int64
	Command       string // command name without slash, "" if none
	Args          string // command arguments
	Text          string // free text
	Callback      string // raw callback data from a menu button
}

// Button is one inline menu button.
type Button struct {
	Label string
	Data  string
}

// Reply is one outbound message the orchestrator should deliver.
type Reply struct {
	Text     string
	Buttons  [][]Button
	Silent   bool
	Markdown bool
	EditMenu bool // replace the tapped message's menu instead of sending anew
}

// Core error kinds. Backend failure kinds (bad credentials, transient) are
// defined in the models package next to the client that produces them.
var (
	ErrNeedsSetup      = errors.New("no backend identity configured for the current mode")
	ErrStaleSelection  = errors.New("selection context superseded")
	ErrConfigInvariant = errors.New("operation violates configuration invariants")
)

func textReply(text string) []Reply {
	return []Reply{{Text: text}}
}
