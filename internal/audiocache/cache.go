// Package audiocache stores synthesized audio as transient, token-addressed
// artifacts. The token is the sole authorization for a download, so it is
// random (uuid) and only ever logged truncated.
package audiocache

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shuhanlo/tcm-linebot-go/internal/config"
	"github.com/shuhanlo/tcm-linebot-go/internal/store"
)

// Cache issues tokens for audio payloads and serves them back until expiry.
type Cache struct {
	store   *store.Store
	baseURL string
}

// New creates an audio cache. baseURL is the public origin used to build
// download links, without a trailing slash.
func New(s *store.Store, baseURL string) *Cache {
	return &Cache{
		store:   s,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put stores an audio payload and returns its download token.
// The artifact expires after config.AudioArtifactTTL.
func (c *Cache) Put(ctx context.Context, audio []byte) (string, error) {
	token := uuid.NewString()
	encoded := base64.StdEncoding.EncodeToString(audio)
	if err := c.store.SetWithTTL(ctx, store.AudioKey(token), encoded, config.AudioArtifactTTL); err != nil {
		return "", err
	}
	return token, nil
}

// Get returns the audio payload for a token.
// Expired, unknown and malformed artifacts all surface as ErrNotFound from
// the store layer or a decode error; callers answer 404 either way.
func (c *Cache) Get(ctx context.Context, token string) ([]byte, error) {
	encoded, err := c.store.Get(ctx, store.AudioKey(token))
	if err != nil {
		return nil, err
	}
	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", ShortToken(token), err)
	}
	return audio, nil
}

// URL builds the public download link for a token.
func (c *Cache) URL(token string) string {
	return fmt.Sprintf("%s/audio/%s", c.baseURL, token)
}

// ShortToken returns a loggable prefix of a download token.
func ShortToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}
