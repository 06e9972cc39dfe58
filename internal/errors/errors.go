package errors

import (
	"fmt"
)

// SweepError is the structured error type for filesweep.
// It provides rich context for error handling, logging, and user presentation.
type SweepError struct {
	// Code is the unique error code (e.g., "ERR_301_SOURCE_LOCKED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Watch, Move, Scan, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *SweepError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SweepError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with SweepError.
func (e *SweepError) Is(target error) bool {
	if t, ok := target.(*SweepError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *SweepError) WithDetail(key, value string) *SweepError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new SweepError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SweepError {
	return &SweepError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SweepError from an existing error.
// The error's message becomes the SweepError message.
func Wrap(code string, err error) *SweepError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SweepError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// WatchError creates a filesystem-notification error.
func WatchError(message string, cause error) *SweepError {
	return New(ErrCodeWatchRegister, message, cause)
}

// MoveError creates a file-move error.
func MoveError(message string, cause error) *SweepError {
	return New(ErrCodeMoveFailed, message, cause)
}

// ScanError creates a directory-scan error.
func ScanError(message string, cause error) *SweepError {
	return New(ErrCodeScanFailed, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a SweepError with the Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SweepError); ok {
		return se.Retryable
	}
	return false
}

// CodeOf returns the code of a SweepError, or the empty string for
// any other error.
func CodeOf(err error) string {
	if se, ok := err.(*SweepError); ok {
		return se.Code
	}
	return ""
}
