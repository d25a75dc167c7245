package ctxutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetUserID(ctx))

	ctx = WithUserID(ctx, "U12345")
	assert.Equal(t, "U12345", GetUserID(ctx))
}

func TestMode(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetMode(ctx))

	ctx = WithMode(ctx, "speaking")
	assert.Equal(t, "speaking", GetMode(ctx))
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	_, ok := GetRequestID(ctx)
	assert.False(t, ok)

	ctx = WithRequestID(ctx, "req-42")
	id, ok := GetRequestID(ctx)
	require.True(t, ok)
	assert.Equal(t, "req-42", id)
}
