package shadowing

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

func newTestEngine(t *testing.T) (*Engine, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := store.New("redis://"+mr.Addr(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewEngine(s, logger.NewWithWriter("error", io.Discard)), mr
}

func TestIssueNextIsSequential(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := e.IssueNext(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, SentenceAt(0), first)

	second, err := e.IssueNext(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, SentenceAt(1), second)
}

func TestIssueNextWrapsAroundList(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < Count(); i++ {
		_, err := e.IssueNext(ctx, "U1")
		require.NoError(t, err)
	}

	wrapped, err := e.IssueNext(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, SentenceAt(0), wrapped)
}

func TestIssueNextSetsCurrent(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, ok := e.Current(ctx, "U1")
	assert.False(t, ok)

	issued, err := e.IssueNext(ctx, "U1")
	require.NoError(t, err)

	current, ok := e.Current(ctx, "U1")
	require.True(t, ok)
	assert.Equal(t, issued, current)
}

func TestClearKeepsCursor(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.IssueNext(ctx, "U1")
	require.NoError(t, err)
	require.NoError(t, e.Clear(ctx, "U1"))

	_, ok := e.Current(ctx, "U1")
	assert.False(t, ok)

	next, err := e.IssueNext(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, SentenceAt(1), next)
}

func TestCorruptCursorRestarts(t *testing.T) {
	e, mr := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(store.ShadowingIndexKey("U1"), "not-a-number"))

	sentence, err := e.IssueNext(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, SentenceAt(0), sentence)
}

func TestUsersHaveIndependentCursors(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.IssueNext(ctx, "U1")
	require.NoError(t, err)
	_, err = e.IssueNext(ctx, "U1")
	require.NoError(t, err)

	other, err := e.IssueNext(ctx, "U2")
	require.NoError(t, err)
	assert.Equal(t, SentenceAt(0), other)
}

func TestIssueNextFailsWhenStoreDown(t *testing.T) {
	e, mr := newTestEngine(t)
	mr.Close()

	_, err := e.IssueNext(context.Background(), "U1")
	assert.Error(t, err)
}
