package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
)

// fakeClock advances by a fixed step on every Sleep call.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(c.step)
	return nil
}

// scriptedClient returns statuses from a fixed sequence, repeating the
// last one when the script runs out.
type scriptedClient struct {
	Client
	statuses []Status
	calls    int
}

func (s *scriptedClient) RunStatus(ctx context.Context, threadID, runID string) (Status, error) {
	idx := s.calls
	if idx >= len(s.statuses) {
		idx = len(s.statuses) - 1
	}
	s.calls++
	return s.statuses[idx], nil
}

func newTestPoller(client Client, clock Clock, budget time.Duration) *Poller {
	p := NewPoller(client, clock)
	p.interval = time.Second
	p.budget = budget
	return p
}

func TestWaitImmediateCompletion(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Second}
	client := &scriptedClient{statuses: []Status{StatusCompleted}}
	p := newTestPoller(client, clock, 8500*time.Millisecond)

	status, iterations, err := p.Wait(context.Background(), "t1", "r1", StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	assert.Zero(t, iterations)
	assert.Zero(t, client.calls)
}

func TestWaitCompletesAfterPolling(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Second}
	client := &scriptedClient{statuses: []Status{StatusInProgress, StatusInProgress, StatusCompleted}}
	p := newTestPoller(client, clock, 8500*time.Millisecond)

	status, iterations, err := p.Wait(context.Background(), "t1", "r1", StatusQueued)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	assert.Equal(t, 3, iterations)
}

func TestWaitCompletedAtExactDeadlineSucceeds(t *testing.T) {
	// Budget of 3s with 1s steps: the fetch at t=3s lands exactly on the
	// deadline. Status is checked before the deadline, so a completion
	// observed there still wins.
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Second}
	client := &scriptedClient{statuses: []Status{StatusInProgress, StatusInProgress, StatusCompleted}}
	p := newTestPoller(client, clock, 3*time.Second)

	status, _, err := p.Wait(context.Background(), "t1", "r1", StatusQueued)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
}

func TestWaitTimesOutOneTickPastDeadline(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Second}
	client := &scriptedClient{statuses: []Status{StatusInProgress}}
	p := newTestPoller(client, clock, 3*time.Second)

	status, _, err := p.Wait(context.Background(), "t1", "r1", StatusQueued)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRunTimeout))
	assert.Equal(t, StatusInProgress, status)
}

func TestWaitFailedRun(t *testing.T) {
	tests := []Status{StatusFailed, StatusCancelled, StatusExpired, StatusRequiresAction}
	for _, terminal := range tests {
		t.Run(string(terminal), func(t *testing.T) {
			clock := &fakeClock{now: time.Unix(0, 0), step: time.Second}
			client := &scriptedClient{statuses: []Status{terminal}}
			p := newTestPoller(client, clock, 8500*time.Millisecond)

			status, _, err := p.Wait(context.Background(), "t1", "r1", StatusQueued)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrRunFailed))
			assert.Equal(t, terminal, status)
			assert.False(t, errors.Is(err, apperrors.ErrRunTimeout))
		})
	}
}

func TestWaitContextCanceled(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Second}
	client := &scriptedClient{statuses: []Status{StatusInProgress}}
	p := newTestPoller(client, clock, 8500*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.Wait(ctx, "t1", "r1", StatusQueued)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrContextCanceled))
}

func TestStatusClassification(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCompleted.Succeeded())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusFailed.Succeeded())
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusRequiresAction.Terminal())
}
