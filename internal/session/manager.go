package session

import (
	"context"
	"errors"

	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
	"github.com/shuhanlo/tcm-linebot-go/internal/logger"
	"github.com/shuhanlo/tcm-linebot-go/internal/store"
)

// Manager reads and writes per-user session state.
//
// Reads degrade to new-user defaults when the store is unreachable, so a
// store outage downgrades the bot instead of breaking it. Writes propagate
// errors; callers fail the event with a user-visible apology.
type Manager struct {
	store *store.Store
	log   *logger.Logger
}

// NewManager creates a session manager.
func NewManager(s *store.Store, log *logger.Logger) *Manager {
	return &Manager{
		store: s,
		log:   log.WithModule("session"),
	}
}

// Mode returns the user's active conversation mode.
// Missing key or unreachable store both resolve to the default mode.
func (m *Manager) Mode(ctx context.Context, userID string) Mode {
	value, err := m.store.Get(ctx, store.UserModeKey(userID))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			m.log.WithError(err).WithField("user_id", userID).Warn("mode read failed, using default")
		}
		return ModeTCM
	}

	mode := Mode(value)
	if !mode.Valid() {
		return ModeTCM
	}
	return mode
}

// SetMode persists the user's conversation mode.
func (m *Manager) SetMode(ctx context.Context, userID string, mode Mode) error {
	return m.store.Set(ctx, store.UserModeKey(userID), string(mode))
}

// ThreadID returns the user's assistant thread ID, or empty string when the
// user has none yet. An unreachable store also yields empty string; the
// caller creates a fresh thread and tries to persist it.
func (m *Manager) ThreadID(ctx context.Context, userID string) string {
	value, err := m.store.Get(ctx, store.UserThreadKey(userID))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			m.log.WithError(err).WithField("user_id", userID).Warn("thread read failed, treating as new user")
		}
		return ""
	}
	return value
}

// SetThreadID persists the user's assistant thread ID.
// Read-create-write is unguarded: two concurrent events for a brand-new
// user may both create threads, and the last write wins.
func (m *Manager) SetThreadID(ctx context.Context, userID, threadID string) error {
	return m.store.Set(ctx, store.UserThreadKey(userID), threadID)
}
