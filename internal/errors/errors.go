// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrStoreUnavailable indicates the state store could not be reached.
	ErrStoreUnavailable = errors.New("state store unavailable")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRunTimeout indicates an assistant run exceeded its polling budget.
	ErrRunTimeout = errors.New("assistant run timed out")

	// ErrRunFailed indicates an assistant run ended in a failure state.
	ErrRunFailed = errors.New("assistant run failed")

	// ErrContextCanceled indicates context was canceled.
	ErrContextCanceled = errors.New("context canceled")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// UpstreamError represents a failure from an external API with context.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error (service=%s, status=%d): %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream error (service=%s): %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates a new upstream error.
func NewUpstreamError(service string, statusCode int, err error) *UpstreamError {
	return &UpstreamError{
		Service:    service,
		StatusCode: statusCode,
		Err:        err,
	}
}
