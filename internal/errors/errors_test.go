package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrStoreUnavailable,
		ErrRateLimitExceeded,
		ErrInvalidInput,
		ErrRunTimeout,
		ErrRunFailed,
		ErrContextCanceled,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

func TestSentinelWrapping(t *testing.T) {
	err := fmt.Errorf("poll run: %w", ErrRunTimeout)
	assert.True(t, errors.Is(err, ErrRunTimeout))
	assert.False(t, errors.Is(err, ErrRunFailed))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("signature", "HMAC mismatch")
	assert.Equal(t, "validation failed on signature: HMAC mismatch", err.Error())
}

func TestUpstreamError(t *testing.T) {
	cause := errors.New("connection reset")

	withStatus := NewUpstreamError("openai", 503, cause)
	assert.Contains(t, withStatus.Error(), "status=503")
	assert.True(t, errors.Is(withStatus, cause))

	withoutStatus := NewUpstreamError("line", 0, cause)
	assert.NotContains(t, withoutStatus.Error(), "status=")
}
