package errors

import (
	"errors"
	"fmt"
)

// WrappedError tags a failed event step with the module and operation that
// produced it, plus the apology text the event boundary pushes to the user.
// The cause is logged; the user message is the only part that leaves the
// server.
type WrappedError struct {
	Module      string // e.g. "assistant", "speech"
	Operation   string // e.g. "poll_run", "transcribe"
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %v", e.Module, e.Operation, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// WrapOp wraps err with its module/operation context and the apology text.
// Returns nil when err is nil so call sites can wrap unconditionally.
func WrapOp(module, operation string, err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Module:      module,
		Operation:   operation,
		Cause:       err,
		UserMessage: userMessage,
	}
}

// GetUserMessage returns the apology text carried by err, or fallback when
// err carries none. Internal error strings never reach the user.
func GetUserMessage(err error, fallback string) string {
	var wrapped *WrappedError
	if errors.As(err, &wrapped) && wrapped.UserMessage != "" {
		return wrapped.UserMessage
	}
	return fallback
}
