// Package storage defines the error taxonomy shared by every backend adapter.
// Raw storage-layer errors never cross an adapter boundary: adapters classify
// them into one of the kinds below before returning.
package storage

import (
	"errors"
	"fmt"
)

// Kind classifies a storage outcome for the HTTP layer.
type Kind int

const (
	// KindInternal is any uncaught storage or runtime failure.
	KindInternal Kind = iota

	// KindBadInput is malformed client input: wrong type, unknown filter
	// field, invalid payload shape.
	KindBadInput

	// KindNotFound means the requested id is absent, or list filters
	// matched nothing.
	KindNotFound

	// KindConflict is a uniqueness constraint violation.
	KindConflict

	// KindUnprocessable is structurally valid input that violates a
	// non-uniqueness storage constraint.
	KindUnprocessable
)

// String returns the wire code for the kind.
func (k Kind) String() string {
	switch k {
	case KindBadInput:
		return "bad_input"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnprocessable:
		return "unprocessable"
	default:
		return "internal"
	}
}

// Error is a classified storage failure.
type Error struct {
	Kind   Kind
	Detail string
	Err    error // underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError creates a classified error with a detail message.
func NewError(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Errf creates a classified error with a formatted detail message.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// NotFound creates a not-found error.
func NotFound(detail string) *Error {
	return NewError(KindNotFound, detail)
}

// KindOf extracts the kind from an error chain.
// Unclassified errors are internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a classified not-found.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
