package errors

import (
	"fmt"
)

// ErrorCode represents a specific failure kind for chat operations.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the requested chat does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeCorruptRecord indicates a stored record cannot be parsed.
	ErrCodeCorruptRecord ErrorCode = "CORRUPT_RECORD"
	// ErrCodeStorageFailure indicates a storage read/write/delete error.
	ErrCodeStorageFailure ErrorCode = "STORAGE_FAILURE"
	// ErrCodeUpstreamFailure indicates the completion gateway failed.
	ErrCodeUpstreamFailure ErrorCode = "UPSTREAM_FAILURE"
	// ErrCodeValidationMismatch indicates client/server message-count
	// disagreement. Diagnostic only, never surfaced as a failure.
	ErrCodeValidationMismatch ErrorCode = "VALIDATION_MISMATCH"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// ChatError represents a structured error for chat operations.
type ChatError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ChatError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *ChatError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(chatID string) *ChatError {
	return &ChatError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("chat not found: %s", chatID),
	}
}

// CorruptRecord creates a corrupt record error.
func CorruptRecord(chatID string, cause error) *ChatError {
	return &ChatError{
		Code:    ErrCodeCorruptRecord,
		Message: fmt.Sprintf("chat record unreadable: %s", chatID),
		Cause:   cause,
	}
}

// StorageFailure creates a storage failure error.
func StorageFailure(msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeStorageFailure, Message: msg, Cause: cause}
}

// UpstreamFailure creates an upstream failure error.
func UpstreamFailure(msg string, cause error) *ChatError {
	return &ChatError{Code: ErrCodeUpstreamFailure, Message: msg, Cause: cause}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *ChatError {
	return &ChatError{Code: ErrCodeInvalidArgument, Message: msg}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if chatErr, ok := err.(*ChatError); ok {
		return chatErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a ChatError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if chatErr, ok := err.(*ChatError); ok {
		return chatErr.Code
	}
	return defaultCode
}
