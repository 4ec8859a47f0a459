// Package errors provides a coded error type with wrapping
package errors

// Import this package as perr so it never shadows the stdlib errors

import (
	stderrs "errors"
	"fmt"
)

// ErrorCode classifies errors for machine consumption
// values are stable for log compatibility; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeUnavailable is for transient failures where retry may succeed
	ErrorCodeUnavailable

	// ErrorCodeConflict is for write conflicts beyond duplicate key
	ErrorCodeConflict

	// ErrorCodeInvalidArgument is for bad call parameters
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for rejected input data
	ErrorCodeValidation

	// ErrorCodeNotFound is for missing rows and resources
	ErrorCodeNotFound

	// ErrorCodeDuplicateKey is for unique constraint violations
	ErrorCodeDuplicateKey

	// ErrorCodeDB is for other database failures
	ErrorCodeDB
)

// ErrNotFound is the shared sentinel for single-row lookups that miss
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries a code, a developer-facing message, and an optional cause
type Error struct {
	cause error
	text  string
	code  ErrorCode
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.text, e.cause)
	}
	return e.text
}

// Unwrap exposes the cause to errors.Is and errors.As
func (e *Error) Unwrap() error { return e.cause }

// Code returns the machine-facing code
func (e *Error) Code() ErrorCode { return e.code }

// Root walks the wrap chain and returns the deepest cause
func Root(err error) error {
	for err != nil {
		next := stderrs.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return nil
}

// CodeOf extracts the ErrorCode from any error, Unknown when it is not ours
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// As unwraps and returns (*Error, true) when err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Constructors

// New returns a coded error
func New(code ErrorCode, text string) error { return &Error{code: code, text: text} }

// Newf returns a coded error with a formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, text: fmt.Sprintf(format, a...)}
}

// Wrap returns a coded error around cause
func Wrap(cause error, code ErrorCode, text string) error {
	return &Error{code: code, text: text, cause: cause}
}

// Wrapf returns a coded error around cause with a formatted message
func Wrapf(cause error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, text: fmt.Sprintf(format, a...), cause: cause}
}

// WrapIf wraps only a non-nil err, for return-site one-liners
func WrapIf(err error, code ErrorCode, text string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, text)
}

// Sugar

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// DuplicateKeyf returns a duplicate key error
func DuplicateKeyf(format string, a ...any) error { return Newf(ErrorCodeDuplicateKey, format, a...) }

// DBf returns a general database error
func DBf(format string, a ...any) error { return Newf(ErrorCodeDB, format, a...) }

// Conflictf returns a conflict error
func Conflictf(format string, a ...any) error { return Newf(ErrorCodeConflict, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Internalf returns a generic internal error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }

// Retryable reports whether retrying the failed operation could succeed,
// currently backed by the Postgres classification in pg.go
func Retryable(err error) bool { return IsRetryable(err) }
