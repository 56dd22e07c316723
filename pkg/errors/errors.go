package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Stream errors
	ErrFormat            ErrorCode = "FORMAT"
	ErrRecordTooLong     ErrorCode = "RECORD_TOO_LONG"
	ErrDanglingReference ErrorCode = "DANGLING_REFERENCE"
	ErrUnitMismatch      ErrorCode = "UNIT_MISMATCH"
	ErrDuplicateName     ErrorCode = "DUPLICATE_NAME"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
)

// MergeError represents a structured error with code and details
type MergeError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface. The code is printed once, at the
// outermost level, followed by the chain of messages.
func (e *MergeError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.chain())
}

func (e *MergeError) chain() string {
	if e.Wrapped == nil {
		return e.Message
	}
	if inner, ok := e.Wrapped.(*MergeError); ok {
		return fmt.Sprintf("%s: %s", e.Message, inner.chain())
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
}

// Unwrap implements the errors.Unwrap interface
func (e *MergeError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *MergeError) Is(target error) bool {
	var targetErr *MergeError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new MergeError with the given code and message
func New(code ErrorCode, message string) *MergeError {
	return &MergeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new MergeError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *MergeError {
	return &MergeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a MergeError
func Wrap(err error, code ErrorCode, message string) *MergeError {
	if err == nil {
		return nil
	}
	return &MergeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *MergeError {
	if err == nil {
		return nil
	}
	return &MergeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Contextf wraps err with a formatted message while keeping its code, so
// callers can add location context (a file, a structure) without changing
// how the error is classified. Errors that carry no code become ErrUnknown.
func Contextf(err error, format string, args ...interface{}) *MergeError {
	if err == nil {
		return nil
	}
	wrapped := Wrapf(err, GetErrorCode(err), format, args...)
	for k, v := range GetErrorDetails(err) {
		wrapped.Details[k] = v
	}
	return wrapped
}

// WithDetail adds a detail to the error
func (e *MergeError) WithDetail(key string, value interface{}) *MergeError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *MergeError) WithDetails(details map[string]interface{}) *MergeError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var mergeErr *MergeError
	if errors.As(err, &mergeErr) {
		return mergeErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a MergeError
func GetErrorCode(err error) ErrorCode {
	var mergeErr *MergeError
	if errors.As(err, &mergeErr) {
		return mergeErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a MergeError
func GetErrorDetails(err error) map[string]interface{} {
	var mergeErr *MergeError
	if errors.As(err, &mergeErr) {
		return mergeErr.Details
	}
	return nil
}
