package service

import (
	"sync"

	"github.com/seerrbot/OverseerrBot/internal/bot/models"
	"github.com/sirupsen/logrus"
)

// AuthDecision is the outcome of gating one inbound event.
type AuthDecision int

const (
	// AuthAllow lets the event through to the conversation engine.
	AuthAllow AuthDecision = iota
	// AuthAccepted means the event was a correct password; it is consumed.
	AuthAccepted
	// AuthPrompt asks the participant for the bot password.
	AuthPrompt
	// AuthDenyPassword rejects a wrong password attempt. No state changes
	// and no attempt counter; the participant may simply try again.
	AuthDenyPassword
	// AuthDenyBlocked silently drops events from blocked participants.
	AuthDenyBlocked
)

// AuthGate enforces the bot password and the blocked role, and performs the
// one-time admin bootstrap on /start.
type AuthGate struct {
	password    string
	sessions    SessionStore
	config      ConfigStore
	bootstrapMu sync.Mutex // guards the systemwide single admin promotion
}

// NewAuthGate creates the gate. An empty password disables authorization.
func NewAuthGate(password string, sessions SessionStore, config ConfigStore) *AuthGate {
	return &AuthGate{
		password: password,
		sessions: sessions,
		config:   config,
	}
}

// PasswordEmpty reports whether authorization is a no-op.
func (a *AuthGate) PasswordEmpty() bool {
	return a.password == ""
}

// Authorize gates one event for the given session. The caller must hold the
// session's serialization lock.
func (a *AuthGate) Authorize(sess *models.Session, ev Event) AuthDecision {
	a.bootstrap(sess, ev)

	if sess.Role == models.RoleBlocked {
		return AuthDenyBlocked
	}
	if a.password == "" || sess.Authorized {
		return AuthAllow
	}

	// Unauthorized with a password configured: free text is treated as a
	// password attempt, everything else gets the prompt.
	if ev.Command == "" && ev.Callback == "" && ev.Text != "" {
		if ev.Text == a.password {
			sess.Authorized = true
			sess.State = models.StateIdle
			logrus.Infof("Participant %d authorized", sess.ParticipantID)
			return AuthAccepted
		}
		return AuthDenyPassword
	}
	sess.State = models.StateAwaitingPassword
	return AuthPrompt
}

// bootstrap promotes the first participant ever to send /start to admin, if
// no admin exists yet. At most one promotion happens systemwide. Promotion
// runs before the password check; the new admin still cannot act until they
// pass the gate.
func (a *AuthGate) bootstrap(sess *models.Session, ev Event) {
	if ev.Command != "start" || sess.Role == models.RoleAdmin {
		return
	}
	a.bootstrapMu.Lock()
	defer a.bootstrapMu.Unlock()

	if !a.sessions.PromoteAdmin(sess.ParticipantID) {
		return
	}
	sess.Role = models.RoleAdmin
	if err := a.config.Update(func(cfg *models.BotConfig) error {
		cfg.AdminID = sess.ParticipantID
		return nil
	}); err != nil {
		logrus.WithError(err).Error("Failed to record bootstrap admin in config")
	}
	logrus.Infof("Participant %d bootstrapped as admin", sess.ParticipantID)
}
