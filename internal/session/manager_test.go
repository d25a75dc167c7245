package session

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuhanlo/tcm-linebot-go/internal/logger"
	"github.com/shuhanlo/tcm-linebot-go/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := store.New("redis://"+mr.Addr(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewManager(s, logger.NewWithWriter("error", io.Discard)), mr
}

func TestModeDefaultsForNewUser(t *testing.T) {
	m, _ := newTestManager(t)
	assert.Equal(t, ModeTCM, m.Mode(context.Background(), "U-new"))
}

func TestSetModePersists(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.SetMode(ctx, "U1", ModeSpeaking))
	assert.Equal(t, ModeSpeaking, m.Mode(ctx, "U1"))

	require.NoError(t, m.SetMode(ctx, "U1", ModeWriting))
	assert.Equal(t, ModeWriting, m.Mode(ctx, "U1"))
}

func TestModeDegradesWhenStoreDown(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.SetMode(ctx, "U1", ModeSpeaking))
	mr.Close()

	assert.Equal(t, ModeTCM, m.Mode(ctx, "U1"))
}

func TestCorruptModeFallsBack(t *testing.T) {
	m, mr := newTestManager(t)
	require.NoError(t, mr.Set(store.UserModeKey("U1"), "quantum"))

	assert.Equal(t, ModeTCM, m.Mode(context.Background(), "U1"))
}

func TestThreadIDRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	assert.Empty(t, m.ThreadID(ctx, "U1"))

	require.NoError(t, m.SetThreadID(ctx, "U1", "thread_abc"))
	assert.Equal(t, "thread_abc", m.ThreadID(ctx, "U1"))
}

func TestSetModeFailsWhenStoreDown(t *testing.T) {
	m, mr := newTestManager(t)
	mr.Close()

	assert.Error(t, m.SetMode(context.Background(), "U1", ModeSpeaking))
	assert.Error(t, m.SetThreadID(context.Background(), "U1", "thread_abc"))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		value string
		mode  Mode
		ok    bool
	}{
		{"tcm", ModeTCM, true},
		{"speaking", ModeSpeaking, true},
		{"writing", ModeWriting, true},
		{"", ModeTCM, false},
		{"unknown", ModeTCM, false},
	}
	for _, tt := range tests {
		mode, ok := ParseMode(tt.value)
		assert.Equal(t, tt.mode, mode, tt.value)
		assert.Equal(t, tt.ok, ok, tt.value)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "🩺 中醫問答", ModeTCM.DisplayName())
	assert.Equal(t, "🗣️ 口說練習", ModeSpeaking.DisplayName())
	assert.Equal(t, "✍️ 寫作修訂", ModeWriting.DisplayName())
	assert.Equal(t, "🩺 中醫問答", Mode("bogus").DisplayName())
}
