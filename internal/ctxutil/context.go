// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userIDKey    contextKey = "ctxutil.userID"
	modeKey      contextKey = "ctxutil.mode"
	requestIDKey contextKey = "ctxutil.requestID"
)

// WithUserID adds a user ID to the context.
// User ID comes from LINE webhook events and is used for rate limiting
// and per-user state lookups.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID retrieves the user ID from the context.
// Returns the user ID if found, empty string otherwise.
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(userIDKey); v != nil {
		if userID, ok := v.(string); ok && userID != "" {
			return userID
		}
	}
	return ""
}

// WithMode adds the resolved conversation mode to the context.
// The processor resolves the mode once per event so downstream handlers
// can route on it without re-reading the store.
func WithMode(ctx context.Context, mode string) context.Context {
	return context.WithValue(ctx, modeKey, mode)
}

// GetMode retrieves the conversation mode from the context.
// Returns the mode if found, empty string otherwise.
func GetMode(ctx context.Context) string {
	if v := ctx.Value(modeKey); v != nil {
		if mode, ok := v.(string); ok && mode != "" {
			return mode
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context for tracing.
// Request ID is typically generated per webhook request for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}
