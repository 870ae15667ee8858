// Package jmlerrors provides coded domain errors for the lifecycle engine.
//
// Services construct these at the point where an infrastructure fact (a
// sentinel error) or a bad input becomes a domain outcome. Callers branch on
// codes with HasCode instead of matching error strings.
package jmlerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInvalidEvent marks a workflow invoked with an event kind it does
	// not handle. Fatal for the run; no steps are attempted.
	CodeInvalidEvent Code = "invalid_event"

	// CodeNotFound marks a missing identity where one is required.
	CodeNotFound Code = "not_found"

	// CodeConfiguration marks malformed policy or runtime configuration.
	// Raised at construction time, never during workflow execution.
	CodeConfiguration Code = "configuration"

	// CodeConnector marks a failed connector call. Non-fatal: recorded on
	// the step and in the aggregate error list.
	CodeConnector Code = "connector"

	// CodePersistence marks a state store read or write failure.
	CodePersistence Code = "persistence"

	// CodeInvalidInput marks a malformed or incomplete HR event.
	CodeInvalidInput Code = "invalid_input"

	// CodeUnavailable marks a dependency that could not be reached, such as
	// the dedupe backend or the job queue.
	CodeUnavailable Code = "unavailable"

	// CodeInternal marks unexpected failures with no better classification.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. Returns nil when
// err is nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal when err is not a
// coded error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
