// Package apperrors defines the tagged error values shared by handlers,
// services and repositories.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the failure categories the API
// surfaces (or deliberately absorbs).
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNotFound
	KindInvalidRequest
	KindConflict
	KindUpstreamDegraded
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	case KindConflict:
		return "conflict"
	case KindUpstreamDegraded:
		return "upstream_degraded"
	default:
		return "unknown"
	}
}

// Error carries an explicit kind instead of relying on duck-typed status
// fields. For KindConflict, ExistingID identifies the record that won the
// uniqueness race.
type Error struct {
	Kind       Kind
	Message    string
	ExistingID uint
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a tagged error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Conflict creates a KindConflict error pointing at the existing record.
func Conflict(message string, existingID uint) *Error {
	return &Error{Kind: KindConflict, Message: message, ExistingID: existingID}
}

// KindOf returns the kind of err, or KindUnknown for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a tagged error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ExistingID extracts the winning record ID from a conflict error, or 0.
func ExistingID(err error) uint {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindConflict {
		return e.ExistingID
	}
	return 0
}
