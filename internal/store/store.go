// Package store provides the Redis-backed state store.
// All per-user conversation state and transient audio artifacts live here
// under the logical keys defined in keys.go.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shuhanlo/tcm-linebot-go/internal/config"
	apperrors "github.com/shuhanlo/tcm-linebot-go/internal/errors"
	"github.com/shuhanlo/tcm-linebot-go/internal/metrics"
)

// Store wraps a Redis client with operation timeouts and metrics.
type Store struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

// New connects to Redis using a redis:// or rediss:// URL.
// The connection is verified with a PING before returning.
func New(redisURL string, m *metrics.Metrics) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = config.StoreDial

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), config.StoreDial)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Store{client: client, metrics: m}, nil
}

// NewWithClient wraps an existing Redis client. Used by tests.
func NewWithClient(client *redis.Client, m *metrics.Metrics) *Store {
	return &Store{client: client, metrics: m}
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.StoreOp)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

// Get returns the value for key.
// Returns ErrNotFound for missing keys and ErrStoreUnavailable for
// connection-level failures, so callers can degrade differently.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.StoreOp)
	defer cancel()

	value, err := s.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		s.record("get", "miss")
		return "", apperrors.ErrNotFound
	case err != nil:
		s.record("get", "error")
		return "", fmt.Errorf("%w: get %s: %v", apperrors.ErrStoreUnavailable, key, err)
	}
	s.record("get", "success")
	return value, nil
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value with the given TTL. Zero TTL means no expiry.
func (s *Store) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, config.StoreOp)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.record("set", "error")
		return fmt.Errorf("%w: set %s: %v", apperrors.ErrStoreUnavailable, key, err)
	}
	s.record("set", "success")
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, config.StoreOp)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.record("delete", "error")
		return fmt.Errorf("%w: delete %s: %v", apperrors.ErrStoreUnavailable, key, err)
	}
	s.record("delete", "success")
	return nil
}

// LPush prepends a value to a list and trims the list to maxLen entries.
// maxLen <= 0 disables trimming.
func (s *Store) LPush(ctx context.Context, key, value string, maxLen int64) error {
	ctx, cancel := context.WithTimeout(ctx, config.StoreOp)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, value)
	if maxLen > 0 {
		pipe.LTrim(ctx, key, 0, maxLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.record("lpush", "error")
		return fmt.Errorf("%w: lpush %s: %v", apperrors.ErrStoreUnavailable, key, err)
	}
	s.record("lpush", "success")
	return nil
}

// LRange returns list entries in [start, stop], Redis semantics.
func (s *Store) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.StoreOp)
	defer cancel()

	values, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		s.record("lrange", "error")
		return nil, fmt.Errorf("%w: lrange %s: %v", apperrors.ErrStoreUnavailable, key, err)
	}
	s.record("lrange", "success")
	return values, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) record(operation, status string) {
	if s.metrics != nil {
		s.metrics.RecordStoreOp(operation, status)
	}
}
