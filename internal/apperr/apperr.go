// Package apperr defines the coded errors shared by all concept modules.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies a failure for the transport boundary. Every operation
// fails with exactly one code; there are no partial-success shapes.
type Code string

const (
	// CodeNotFound: a referenced record id resolves to nothing.
	CodeNotFound Code = "not_found"
	// CodeForbidden: the actor is not the sender (sender-only operations)
	// or not a participant (reads).
	CodeForbidden Code = "forbidden"
	// CodeInvalidState: the record exists but is in the wrong lifecycle
	// state for the attempted operation.
	CodeInvalidState Code = "invalid_state"
	// CodeConflict: a uniqueness constraint was violated (duplicate email).
	CodeConflict Code = "conflict"
	// CodeIntegrity: a stored cross-reference failed to resolve. This is a
	// server-side fault, never a caller mistake.
	CodeIntegrity Code = "integrity"
	// CodeInternal: everything else (store failures and the like).
	CodeInternal Code = "internal"
)

// Error is a coded error with a human-readable message.
type Error struct {
	Code    Code
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New returns a coded error with the given message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf returns a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, wrapped: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
