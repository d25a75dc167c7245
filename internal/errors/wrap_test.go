package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapOpNil(t *testing.T) {
	assert.NoError(t, WrapOp("assistant", "poll_run", nil, "ignored"))
}

func TestWrapOpPreservesCause(t *testing.T) {
	err := WrapOp("assistant", "poll_run", ErrRunTimeout, "還在思考中，請稍後再試一次")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunTimeout))
	assert.Contains(t, err.Error(), "[assistant:poll_run]")
	assert.NotContains(t, err.Error(), "還在思考中")
}

func TestGetUserMessage(t *testing.T) {
	wrapped := WrapOp("speech", "synthesize", errors.New("http 500"), "語音產生失敗，請稍後再試")

	assert.Equal(t, "語音產生失敗，請稍後再試", GetUserMessage(wrapped, "fallback"))
	assert.Equal(t, "fallback", GetUserMessage(errors.New("internal detail"), "fallback"))
	assert.Equal(t, "fallback", GetUserMessage(nil, "fallback"))
}

func TestGetUserMessageThroughWrapChain(t *testing.T) {
	inner := WrapOp("store", "set_mode", ErrStoreUnavailable, "狀態儲存失敗，請稍後再試")
	outer := fmt.Errorf("handling event: %w", inner)

	assert.Equal(t, "狀態儲存失敗，請稍後再試", GetUserMessage(outer, "fallback"))
	assert.True(t, errors.Is(outer, ErrStoreUnavailable))
}
