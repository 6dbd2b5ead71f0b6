// Package repository persists bot state to disk: one file holding every
// participant session and one holding the global bot configuration. Writes
// are synchronous and atomic (temp file then rename) so a restart
// reconstructs the exact session set and config.
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/seerrbot/OverseerrBot/internal/bot/models"
	"github.com/sirupsen/logrus"
)

// Sessions manages participant session records in memory and on disk. All
// record access happens under mu: handlers receive value copies from
// GetOrCreate and write their mutations back through Save, so Persist never
// encodes a half-updated session.
type Sessions struct {
	records         map[int64]*models.Session
	storageFilePath string
	mu              *sync.RWMutex
}

// NewSessions creates an empty session store backed by the given file.
func NewSessions(storagePath string) *Sessions {
	return &Sessions{
		records:         make(map[int64]*models.Session),
		storageFilePath: storagePath,
		mu:              &sync.RWMutex{},
	}
}

// Load reads the session file into memory. A missing or empty file is not an
// error; the store starts empty.
func (s *Sessions) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.storageFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("Session file %s does not exist, starting empty", s.storageFilePath)
			return nil
		}
		return fmt.Errorf("failed to read session file %s: %w", s.storageFilePath, err)
	}
	if len(data) == 0 {
		logrus.Infof("Session file %s is empty, starting empty", s.storageFilePath)
		return nil
	}

	var records map[int64]*models.Session
	if err = json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to unmarshal session file %s: %w", s.storageFilePath, err)
	}
	s.records = records
	logrus.Infof("Loaded %d sessions from %s", len(s.records), s.storageFilePath)
	return nil
}

// GetOrCreate returns a copy of the session for a participant, creating a
// fresh record on first contact. New sessions start authorized only when
// authorized is true (no bot password configured). Mutations to the copy
// become durable only through Save.
func (s *Sessions) GetOrCreate(participantID int64, authorized bool) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.records[participantID]; ok {
		return *sess
	}
	sess := &models.Session{
		ParticipantID: participantID,
		Role:          models.RoleUnset,
		Authorized:    authorized,
		Identity:      models.BackendIdentity{Kind: models.IdentityNone},
		State:         models.StateIdle,
		Prefs:         models.NotificationPrefs{Enabled: true},
	}
	s.records[participantID] = sess
	return *sess
}

// Save writes a handler's view of its own session back to the store. Role is
// deliberately not copied: it changes only through PromoteAdmin and SetRole,
// so an in-flight handler never clobbers a concurrent role change.
func (s *Sessions) Save(sess models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sess.ParticipantID]
	if !ok {
		return
	}
	rec.Authorized = sess.Authorized
	rec.Identity = sess.Identity
	rec.Prefs = sess.Prefs
	rec.State = sess.State
	rec.StagedEmail = sess.StagedEmail
}

// PromoteAdmin makes the given participant admin if and only if no admin
// exists yet. Returns whether the promotion happened; at most one promotion
// ever succeeds.
func (s *Sessions) PromoteAdmin(participantID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.records {
		if sess.Role == models.RoleAdmin {
			return false
		}
	}
	sess, ok := s.records[participantID]
	if !ok {
		return false
	}
	sess.Role = models.RoleAdmin
	return true
}

// SetRole updates a participant's role under the store lock.
func (s *Sessions) SetRole(participantID int64, role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.records[participantID]; ok {
		sess.Role = role
	}
}

// HasAdmin reports whether any session holds the admin role.
func (s *Sessions) HasAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.records {
		if sess.Role == models.RoleAdmin {
			return true
		}
	}
	return false
}

// Count returns the number of known sessions.
func (s *Sessions) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Persist writes the full session set to disk atomically.
func (s *Sessions) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return writeAtomic(s.storageFilePath, s.records)
}

// Config manages the durable global bot configuration.
type Config struct {
	cfg             models.BotConfig
	storageFilePath string
	mu              *sync.Mutex
}

// NewConfig creates a config store backed by the given file, starting from
// defaults until Load is called.
func NewConfig(storagePath string) *Config {
	return &Config{
		cfg:             models.BotConfig{Mode: models.ModeNormal},
		storageFilePath: storagePath,
		mu:              &sync.Mutex{},
	}
}

// Load reads the config file. A missing file leaves the defaults in place.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.storageFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("Config file %s does not exist, using defaults", c.storageFilePath)
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", c.storageFilePath, err)
	}
	if len(data) == 0 {
		return nil
	}
	var cfg models.BotConfig
	if err = json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config file %s: %w", c.storageFilePath, err)
	}
	if cfg.Mode == "" {
		cfg.Mode = models.ModeNormal
	}
	c.cfg = cfg
	logrus.Infof("Loaded bot config from %s (mode %s)", c.storageFilePath, c.cfg.Mode)
	return nil
}

// Get returns a copy of the current configuration.
func (c *Config) Get() models.BotConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Update applies fn to the configuration under the store lock and persists
// the result before returning. If fn returns an error nothing is changed.
// This is the compare-and-set point for the cross-session mutations (group
// primary-chat claim, shared login).
func (c *Config) Update(fn func(*models.BotConfig) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.cfg
	if err := fn(&next); err != nil {
		return err
	}
	if err := writeAtomic(c.storageFilePath, next); err != nil {
		return err
	}
	c.cfg = next
	return nil
}

// writeAtomic encodes v as JSON to path via a temp file and rename.
func writeAtomic(path string, v interface{}) error {
	tempPath := path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("failed to open temp file %s: %w", tempPath, err)
	}
	encoder := json.NewEncoder(file)
	if err = encoder.Encode(v); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode to temp file %s: %w", tempPath, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close temp file %s: %w", tempPath, err)
	}
	if err = os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file %s to %s: %w", tempPath, path, err)
	}
	return nil
}
