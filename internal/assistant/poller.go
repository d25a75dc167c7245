package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/shuhanlo/tcm-linebot-go/internal/config"
	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
)

// Clock abstracts time for the poller so tests can drive it synthetically.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// Poller waits for an assistant run to finish within a wall-clock budget.
//
// The loop checks the run status first and the deadline second, so a run
// that completes at exactly the deadline still counts as a success. A run
// still queued or in progress one tick past the deadline is abandoned and
// reported as a timeout; it is not cancelled upstream.
type Poller struct {
	client   Client
	clock    Clock
	interval time.Duration
	budget   time.Duration
}

// NewPoller creates a poller with the standard interval and budget.
func NewPoller(client Client, clock Clock) *Poller {
	return &Poller{
		client:   client,
		clock:    clock,
		interval: config.RunPollInterval,
		budget:   config.RunPollBudget,
	}
}

// Wait polls the run until it reaches a terminal state or the budget runs
// out. It returns the final observed status and the number of status
// fetches performed after the initial one.
func (p *Poller) Wait(ctx context.Context, threadID, runID string, initial Status) (Status, int, error) {
	deadline := p.clock.Now().Add(p.budget)
	status := initial
	iterations := 0

	for {
		if status.Terminal() {
			if status.Succeeded() {
				return status, iterations, nil
			}
			return status, iterations, fmt.Errorf("run %s ended as %s: %w", runID, status, apperrors.ErrRunFailed)
		}

		if p.clock.Now().After(deadline) {
			return status, iterations, fmt.Errorf("run %s still %s after %s: %w", runID, status, p.budget, apperrors.ErrRunTimeout)
		}

		if err := p.clock.Sleep(ctx, p.interval); err != nil {
			return status, iterations, fmt.Errorf("%w: %v", apperrors.ErrContextCanceled, err)
		}

		next, err := p.client.RunStatus(ctx, threadID, runID)
		iterations++
		if err != nil {
			return status, iterations, err
		}
		status = next
	}
}
