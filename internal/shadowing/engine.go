package shadowing

import (
	"context"
	"errors"
	"strconv"

	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
	"github.com/shuhanlo/tcm-linebot-go/internal/logger"
	"github.com/shuhanlo/tcm-linebot-go/internal/store"
)

// Engine drives the practice state machine against the state store.
//
// States per user: no active sentence, or one issued sentence awaiting an
// attempt. A passing attempt clears the sentence; a failing one leaves it
// in place so the user retries the same line.
type Engine struct {
	store *store.Store
	log   *logger.Logger
}

// NewEngine creates a shadowing engine.
func NewEngine(s *store.Store, log *logger.Logger) *Engine {
	return &Engine{
		store: s,
		log:   log.WithModule("shadowing"),
	}
}

// IssueNext issues the next sentence for the user and advances the cursor.
// Selection is deterministic: stored cursor mod list length.
func (e *Engine) IssueNext(ctx context.Context, userID string) (string, error) {
	index := e.cursor(ctx, userID)
	sentence := SentenceAt(index)

	if err := e.store.Set(ctx, store.ShadowingSentenceKey(userID), sentence); err != nil {
		return "", err
	}
	if err := e.store.Set(ctx, store.ShadowingIndexKey(userID), strconv.Itoa(index+1)); err != nil {
		return "", err
	}
	return sentence, nil
}

// Current returns the sentence the user is practicing, if any.
func (e *Engine) Current(ctx context.Context, userID string) (string, bool) {
	sentence, err := e.store.Get(ctx, store.ShadowingSentenceKey(userID))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			e.log.WithError(err).WithField("user_id", userID).Warn("sentence read failed")
		}
		return "", false
	}
	return sentence, true
}

// Clear removes the active sentence, returning the user to the idle state.
// The cursor is kept so the next issue continues through the list.
func (e *Engine) Clear(ctx context.Context, userID string) error {
	return e.store.Delete(ctx, store.ShadowingSentenceKey(userID))
}

// cursor reads the stored cursor, defaulting to 0 for new users, corrupt
// values, or an unreachable store.
func (e *Engine) cursor(ctx context.Context, userID string) int {
	value, err := e.store.Get(ctx, store.ShadowingIndexKey(userID))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			e.log.WithError(err).WithField("user_id", userID).Warn("cursor read failed, starting from 0")
		}
		return 0
	}
	index, err := strconv.Atoi(value)
	if err != nil || index < 0 {
		return 0
	}
	return index
}
