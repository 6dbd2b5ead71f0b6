package service

import "github.com/seerrbot/OverseerrBot/internal/bot/models"

// ResolveIdentity maps the current operation mode and a session to the
// Overseerr identity an action should run as. It performs no I/O and fails
// only with ErrNeedsSetup.
//
// forIssue covers the one fixed deviation: under API mode, issue reports are
// always attributed to the admin's own identity (the bare API key), never to
// the session's selected user.
func ResolveIdentity(cfg models.BotConfig, sess *models.Session, forIssue bool) (models.Identity, error) {
	switch cfg.Mode {
	case models.ModeNormal:
		if sess.Identity.Kind != models.IdentityCredentials || sess.Identity.Token == "" {
			return models.Identity{}, ErrNeedsSetup
		}
		return models.Identity{Cookie: sess.Identity.Token}, nil

	case models.ModeAPI:
		if forIssue {
			return models.Identity{}, nil
		}
		if sess.Identity.Kind != models.IdentitySelectedUser || sess.Identity.UserID == 0 {
			return models.Identity{}, ErrNeedsSetup
		}
		return models.Identity{OnBehalfOf: sess.Identity.UserID}, nil

	case models.ModeShared:
		if cfg.SharedToken == "" {
			return models.Identity{}, ErrNeedsSetup
		}
		return models.Identity{Cookie: cfg.SharedToken}, nil
	}
	return models.Identity{}, ErrNeedsSetup
}
