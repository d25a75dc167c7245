package ratelimit

import (
	"sync"
	"time"

	"github.com/shuhanlo/tcm-linebot-go/internal/metrics"
)

// KeyedConfig configures a KeyedLimiter instance.
type KeyedConfig struct {
	// Name identifies this limiter for metrics (e.g., "user")
	Name string

	// Token bucket settings
	Burst      float64 // Maximum tokens (burst capacity)
	RefillRate float64 // Tokens refilled per second

	// CleanupPeriod is how often inactive limiters are removed
	CleanupPeriod time.Duration

	// Optional metrics reporter
	Metrics *metrics.Metrics
}

// KeyedLimiter tracks rate limits per key (e.g., user ID).
// It creates a separate token bucket for each key and periodically removes
// buckets that have refilled completely.
type KeyedLimiter struct {
	mu      sync.RWMutex
	entries map[string]*Limiter
	config  KeyedConfig
	stopCh  chan struct{}
	stopped sync.Once
}

// NewKeyedLimiter creates a new per-key rate limiter.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	kl := &KeyedLimiter{
		entries: make(map[string]*Limiter),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}

	go kl.cleanupLoop()

	return kl
}

// Allow checks if a request for the given key is allowed.
// Returns true if allowed (token consumed), false if rate limit exceeded.
// An empty key is always allowed.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	if kl.getOrCreate(key).Allow() {
		return true
	}

	if kl.config.Metrics != nil {
		kl.config.Metrics.RecordRateLimiterDrop(kl.config.Name)
	}
	return false
}

func (kl *KeyedLimiter) getOrCreate(key string) *Limiter {
	kl.mu.RLock()
	limiter, exists := kl.entries[key]
	kl.mu.RUnlock()

	if exists {
		return limiter
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = kl.entries[key]; exists {
		return limiter
	}

	limiter = New(kl.config.Burst, kl.config.RefillRate)
	kl.entries[key] = limiter
	return limiter
}

// ActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

// cleanupLoop periodically removes limiters whose buckets are full again.
func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.mu.Lock()
			for key, limiter := range kl.entries {
				if limiter.IsFull() {
					delete(kl.entries, key)
				}
			}
			kl.mu.Unlock()
		}
	}
}

// Stop terminates the cleanup goroutine. Safe to call multiple times.
func (kl *KeyedLimiter) Stop() {
	kl.stopped.Do(func() { close(kl.stopCh) })
}
