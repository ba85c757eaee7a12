// Package errors provides structured error types for choirstage.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the editor, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Addressed entity does not exist
//   - SECTION_IN_USE, SCHEMA_MISMATCH: Conflicting state
//   - INTERNAL_*: Unexpected internal errors
//
// Dangling references are never reported through this package; they are
// surfaced by the integrity sweep so the host can resolve them with the user.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSection, "section name too long: %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidSection) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "save session %s", code)
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
	ErrCodeInvalidMember   Code = "INVALID_MEMBER"
	ErrCodeInvalidSection  Code = "INVALID_SECTION"
	ErrCodeInvalidBlock    Code = "INVALID_BLOCK"
	ErrCodeInvalidSettings Code = "INVALID_SETTINGS"
	ErrCodeInvalidCode     Code = "INVALID_SESSION_CODE"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeMemberNotFound   Code = "MEMBER_NOT_FOUND"
	ErrCodeSectionNotFound  Code = "SECTION_NOT_FOUND"
	ErrCodeBlockNotFound    Code = "BLOCK_NOT_FOUND"
	ErrCodeSeatNotFound     Code = "SEAT_NOT_FOUND"
	ErrCodeSessionNotFound  Code = "SESSION_NOT_FOUND"
	ErrCodeSnapshotNotFound Code = "SNAPSHOT_NOT_FOUND"

	// Conflicting state
	ErrCodeSectionInUse   Code = "SECTION_IN_USE"
	ErrCodeSchemaMismatch Code = "SCHEMA_MISMATCH"

	// Internal errors
	ErrCodeStorage     Code = "STORAGE_ERROR"
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

// IsNotFound reports whether err carries one of the *_NOT_FOUND codes.
// Not-found errors signal that the caller addressed an entity its state no
// longer has, which is a desynchronization bug rather than bad user input.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeMemberNotFound, ErrCodeSectionNotFound,
		ErrCodeBlockNotFound, ErrCodeSeatNotFound, ErrCodeSessionNotFound,
		ErrCodeSnapshotNotFound:
		return true
	}
	return false
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidMember, ErrCodeInvalidSection,
		ErrCodeInvalidBlock, ErrCodeInvalidSettings, ErrCodeInvalidCode,
		ErrCodeInvalidPath:
		return true
	}
	return false
}

// SectionInUseError reports a section deletion that would orphan members.
// The deletion can be retried with an explicit confirmation.
type SectionInUseError struct {
	SectionID   string
	SectionName string
	Members     int // Members still assigned to the section
}

// Error implements the error interface.
func (e *SectionInUseError) Error() string {
	return fmt.Sprintf("section %q still has %d member(s) assigned", e.SectionName, e.Members)
}

// Code returns the error code for this error type.
func (e *SectionInUseError) Code() Code {
	return ErrCodeSectionInUse
}

// Unwrap exposes the coded form so Is(err, ErrCodeSectionInUse) matches.
func (e *SectionInUseError) Unwrap() error {
	return &Error{Code: ErrCodeSectionInUse, Message: e.Error()}
}
