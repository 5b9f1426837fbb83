// Package errors provides centralized error types and exit codes for lancelot.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Exit codes for different error categories.
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitUsageError      = 1 // malformed invocation shares the general code
	ExitConfigError     = 2
	ExitValidationError = 3
	ExitFSError         = 4
	ExitNetworkError    = 5
)

// LancelotError is the base error type for all lancelot-specific errors.
type LancelotError struct {
	Code    int
	Message string
	Cause   error
}

// Error returns the error message, including the cause if present.
func (e *LancelotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error.
func (e *LancelotError) Unwrap() error {
	return e.Cause
}

func newError(code int, msg string, cause error) *LancelotError {
	return &LancelotError{Code: code, Message: msg, Cause: cause}
}

// NewUsageError creates an error for a malformed invocation.
func NewUsageError(msg string) *LancelotError {
	return newError(ExitUsageError, msg, nil)
}

// NewConfigError creates a new configuration error.
func NewConfigError(msg string) *LancelotError {
	return newError(ExitConfigError, msg, nil)
}

// NewConfigErrorWithCause creates a new configuration error with an underlying cause.
func NewConfigErrorWithCause(msg string, cause error) *LancelotError {
	return newError(ExitConfigError, msg, cause)
}

// NewValidationError creates a new validation error.
func NewValidationError(msg string) *LancelotError {
	return newError(ExitValidationError, msg, nil)
}

// NewFSErrorWithCause creates a filesystem error with an underlying cause.
func NewFSErrorWithCause(msg string, cause error) *LancelotError {
	return newError(ExitFSError, msg, cause)
}

// NewNetworkError creates a new network error.
func NewNetworkError(msg string) *LancelotError {
	return newError(ExitNetworkError, msg, nil)
}

// NewNetworkErrorWithCause creates a new network error with an underlying cause.
func NewNetworkErrorWithCause(msg string, cause error) *LancelotError {
	return newError(ExitNetworkError, msg, cause)
}

// NewGeneralErrorWithCause creates a new general error with an underlying cause.
func NewGeneralErrorWithCause(msg string, cause error) *LancelotError {
	return newError(ExitGeneralError, msg, cause)
}

func hasCode(err error, code int) bool {
	var le *LancelotError
	if stderrors.As(err, &le) {
		return le.Code == code
	}
	return false
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool { return hasCode(err, ExitConfigError) }

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool { return hasCode(err, ExitValidationError) }

// IsFSError checks if an error is a filesystem error.
func IsFSError(err error) bool { return hasCode(err, ExitFSError) }

// IsNetworkError checks if an error is a network error.
func IsNetworkError(err error) bool { return hasCode(err, ExitNetworkError) }

// GetExitCode returns the exit code for an error.
// Wrapped LancelotErrors are found through the chain; anything else is ExitGeneralError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var le *LancelotError
	if stderrors.As(err, &le) {
		return le.Code
	}
	return ExitGeneralError
}
