package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := New("redis://"+mr.Addr(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("not-a-url", nil)
	require.Error(t, err)
}

func TestGetSetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, UserModeKey("U1"), "speaking"))

	value, err := s.Get(ctx, UserModeKey("U1"))
	require.NoError(t, err)
	assert.Equal(t, "speaking", value)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), UserModeKey("nobody"))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSetWithTTLExpires(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetWithTTL(ctx, AudioKey("tok"), "payload", 600*time.Second))

	value, err := s.Get(ctx, AudioKey("tok"))
	require.NoError(t, err)
	assert.Equal(t, "payload", value)

	mr.FastForward(601 * time.Second)

	_, err = s.Get(ctx, AudioKey("tok"))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, ShadowingSentenceKey("U1"), "甘草補脾益氣"))
	require.NoError(t, s.Delete(ctx, ShadowingSentenceKey("U1")))

	_, err := s.Get(ctx, ShadowingSentenceKey("U1"))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	// Deleting a missing key is fine.
	assert.NoError(t, s.Delete(ctx, ShadowingSentenceKey("U1")))
}

func TestLPushTrimsAndOrders(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.LPush(ctx, QuestionLogKey, "first", 3))
	require.NoError(t, s.LPush(ctx, QuestionLogKey, "second", 3))
	require.NoError(t, s.LPush(ctx, QuestionLogKey, "third", 3))
	require.NoError(t, s.LPush(ctx, QuestionLogKey, "fourth", 3))

	values, err := s.LRange(ctx, QuestionLogKey, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"fourth", "third", "second"}, values)
}

func TestStoreUnavailable(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	ctx := context.Background()

	_, err := s.Get(ctx, UserModeKey("U1"))
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))

	err = s.Set(ctx, UserModeKey("U1"), "tcm")
	assert.True(t, errors.Is(err, apperrors.ErrStoreUnavailable))

	assert.Error(t, s.Ping(ctx))
}

func TestKeyShapes(t *testing.T) {
	assert.Equal(t, "user_mode:U1", UserModeKey("U1"))
	assert.Equal(t, "user_thread:U1", UserThreadKey("U1"))
	assert.Equal(t, "shadowing_sentence:U1", ShadowingSentenceKey("U1"))
	assert.Equal(t, "shadowing_index:U1", ShadowingIndexKey("U1"))
	assert.Equal(t, "tts_audio:tok", AudioKey("tok"))
	assert.Equal(t, "question_log", QuestionLogKey)
}
