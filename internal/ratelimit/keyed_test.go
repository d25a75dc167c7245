package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestKeyedLimiter(burst float64) *KeyedLimiter {
	return NewKeyedLimiter(KeyedConfig{
		Name:          "user",
		Burst:         burst,
		RefillRate:    0.0001,
		CleanupPeriod: time.Hour,
	})
}

func TestKeyedLimiterIsolatesKeys(t *testing.T) {
	kl := newTestKeyedLimiter(1)
	defer kl.Stop()

	assert.True(t, kl.Allow("U1"))
	assert.False(t, kl.Allow("U1"))
	assert.True(t, kl.Allow("U2"))
}

func TestKeyedLimiterEmptyKeyAlwaysAllowed(t *testing.T) {
	kl := newTestKeyedLimiter(1)
	defer kl.Stop()

	for i := 0; i < 10; i++ {
		assert.True(t, kl.Allow(""))
	}
	assert.Zero(t, kl.ActiveCount())
}

func TestKeyedLimiterTracksActiveCount(t *testing.T) {
	kl := newTestKeyedLimiter(5)
	defer kl.Stop()

	kl.Allow("U1")
	kl.Allow("U2")
	kl.Allow("U2")

	assert.Equal(t, 2, kl.ActiveCount())
}

func TestKeyedLimiterStopIsIdempotent(t *testing.T) {
	kl := newTestKeyedLimiter(1)
	kl.Stop()
	kl.Stop()
}
