package service

import (
	"testing"

	"github.com/seerrbot/OverseerrBot/internal/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNormalMode(t *testing.T) {
	cfg := models.BotConfig{Mode: models.ModeNormal}

	_, err := ResolveIdentity(cfg, &models.Session{}, false)
	assert.ErrorIs(t, err, ErrNeedsSetup)

	sess := &models.Session{Identity: models.BackendIdentity{Kind: models.IdentityCredentials, Token: "connect.sid=x"}}
	id, err := ResolveIdentity(cfg, sess, false)
	require.NoError(t, err)
	assert.Equal(t, "connect.sid=x", id.Cookie)
	assert.Zero(t, id.OnBehalfOf)
}

func TestResolveAPIMode(t *testing.T) {
	cfg := models.BotConfig{Mode: models.ModeAPI}

	_, err := ResolveIdentity(cfg, &models.Session{}, false)
	assert.ErrorIs(t, err, ErrNeedsSetup)

	sess := &models.Session{Identity: models.BackendIdentity{Kind: models.IdentitySelectedUser, UserID: 42}}
	id, err := ResolveIdentity(cfg, sess, false)
	require.NoError(t, err)
	assert.Equal(t, 42, id.OnBehalfOf)

	// Issue reports always resolve to the admin's own identity.
	id, err = ResolveIdentity(cfg, sess, true)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{}, id)
}

func TestResolveSharedMode(t *testing.T) {
	cfg := models.BotConfig{Mode: models.ModeShared}

	// The session is ignored entirely; only the shared login matters.
	sess := &models.Session{Identity: models.BackendIdentity{Kind: models.IdentityCredentials, Token: "connect.sid=own"}}
	_, err := ResolveIdentity(cfg, sess, false)
	assert.ErrorIs(t, err, ErrNeedsSetup)

	cfg.SharedToken = "connect.sid=shared"
	id, err := ResolveIdentity(cfg, sess, false)
	require.NoError(t, err)
	assert.Equal(t, "connect.sid=shared", id.Cookie)
}

func TestResolveStaleTagFromPreviousMode(t *testing.T) {
	// Identity stored under normal mode yields NeedsSetup under API mode.
	sess := &models.Session{Identity: models.BackendIdentity{Kind: models.IdentityCredentials, Token: "connect.sid=x"}}
	_, err := ResolveIdentity(models.BotConfig{Mode: models.ModeAPI}, sess, false)
	assert.ErrorIs(t, err, ErrNeedsSetup)

	// And vice versa.
	sess = &models.Session{Identity: models.BackendIdentity{Kind: models.IdentitySelectedUser, UserID: 42}}
	_, err = ResolveIdentity(models.BotConfig{Mode: models.ModeNormal}, sess, false)
	assert.ErrorIs(t, err, ErrNeedsSetup)
}
