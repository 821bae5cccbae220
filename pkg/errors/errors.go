// Package errors provides structured error types for supermro.
//
// This package defines error codes and types that enable:
//   - Per-class failure records that survive a whole-registry pass
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Lookup and trace failures returned to the caller
//   - UNRESOLVED_BASE, CYCLIC_INHERITANCE, INCONSISTENT_HIERARCHY: per-class
//     linearization failures attached to the class that caused them
//   - MODULE_LOAD_FAILURE: reported by declaration loaders
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeClassNotFound, "class %s not found", name)
//	if errors.Is(err, errors.ErrCodeClassNotFound) {
//	    // Handle lookup failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeModuleLoad, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidName     Code = "INVALID_NAME"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeDuplicateClass  Code = "DUPLICATE_CLASS"

	// Per-class linearization failures
	ErrCodeUnresolvedBase        Code = "UNRESOLVED_BASE"
	ErrCodeCyclicInheritance     Code = "CYCLIC_INHERITANCE"
	ErrCodeInconsistentHierarchy Code = "INCONSISTENT_HIERARCHY"

	// Lookup and trace failures
	ErrCodeClassNotFound   Code = "CLASS_NOT_FOUND"
	ErrCodeMethodNotFound  Code = "METHOD_NOT_FOUND"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"

	// Loader failures
	ErrCodeModuleLoad Code = "MODULE_LOAD_FAILURE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// Only the outermost *Error is consulted, so a wrapper with a different code
// hides the code of its cause.
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

// IsClassFailure reports whether err is one of the per-class linearization
// failures that exclude a class from derived views.
func IsClassFailure(err error) bool {
	switch GetCode(err) {
	case ErrCodeUnresolvedBase, ErrCodeCyclicInheritance, ErrCodeInconsistentHierarchy:
		return true
	}
	return false
}
