package engine

import (
	"errors"
	"fmt"
)

// RuntimeError describes a failure detected by an engine.
//
// Only configuration errors are returned to callers (from New). The other
// codes are logged and absorbed so scroll tracking degrades instead of
// breaking the host page.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Context is the selector of the tracked region.
	Context string

	// Label identifies the affected mark, when there is one.
	Label string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeConfiguration indicates the engine could not be constructed.
	ErrCodeConfiguration RuntimeErrorCode = "CONFIGURATION"

	// ErrCodeUnresolvedSelector indicates an element selector matched nothing.
	ErrCodeUnresolvedSelector RuntimeErrorCode = "UNRESOLVED_SELECTOR"

	// ErrCodeBoundResolution indicates a top or bottom bound did not resolve.
	ErrCodeBoundResolution RuntimeErrorCode = "BOUND_RESOLUTION"

	// ErrCodeListenerFailure indicates a listener returned an error or panicked.
	ErrCodeListenerFailure RuntimeErrorCode = "LISTENER_FAILURE"

	// ErrCodeDestroyed indicates an operation on a destroyed engine.
	ErrCodeDestroyed RuntimeErrorCode = "DESTROYED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Context != "" && e.Label != "" {
		msg = fmt.Sprintf("%s (context=%s, label=%s)", msg, e.Context, e.Label)
	} else if e.Context != "" {
		msg = fmt.Sprintf("%s (context=%s)", msg, e.Context)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsConfigurationError returns true if the error is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigurationError(err error) bool {
	return hasCode(err, ErrCodeConfiguration)
}

// IsListenerFailure returns true if the error records a failed listener.
func IsListenerFailure(err error) bool {
	return hasCode(err, ErrCodeListenerFailure)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// NewConfigurationError creates a RuntimeError for a bad engine setup.
func NewConfigurationError(context, message string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeConfiguration,
		Message: message,
		Context: context,
		Err:     err,
	}
}

// NewListenerFailure creates a RuntimeError for a failed listener.
func NewListenerFailure(context, label string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeListenerFailure,
		Message: "listener failed",
		Context: context,
		Label:   label,
		Err:     err,
	}
}
