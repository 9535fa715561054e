// Package errors provides structured error types for the Prototypyside core.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes map onto the core's failure taxonomy:
//   - PARSE_*: malformed unit literals, PID strings, template JSON
//   - CONFIGURATION_*: pagination policies prepared against invalid input
//   - PAGINATION_*: runtime pagination failures
//   - REGISTRY_*: PID registration and lifetime violations
//   - EXPORT_* / INVALID_* / INTERNAL_*: everything downstream
//
// # Usage
//
//	err := errors.New(errors.ErrCodeParse, "invalid unit literal: %q", raw)
//	if errors.Is(err, errors.ErrCodeParse) {
//	    // handle parse failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidTemplate, origErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Parse failures: unit literals, PID strings, geometry dicts.
	ErrCodeParse        Code = "PARSE_ERROR"
	ErrCodeTypeMismatch Code = "TYPE_MISMATCH"

	// Pagination lifecycle errors.
	ErrCodeConfiguration Code = "CONFIGURATION_ERROR"
	ErrCodePagination    Code = "PAGINATION_ERROR"
	ErrCodePageRange     Code = "PAGE_OUT_OF_RANGE"

	// Registry and identity errors.
	ErrCodeRegistry     Code = "REGISTRY_ERROR"
	ErrCodeDuplicatePID Code = "DUPLICATE_PID"
	ErrCodeUnknownPID   Code = "UNKNOWN_PID"

	// Template and file handling.
	ErrCodeInvalidTemplate Code = "INVALID_TEMPLATE"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

	// Export and rendering.
	ErrCodeExport Code = "EXPORT_ERROR"

	// Unexpected internal errors.
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
