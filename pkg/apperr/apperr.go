// Package apperr defines the kind-tagged error taxonomy shared by all
// domain services. Services return these errors; the HTTP layer maps
// kinds to status codes without the services ever importing net/http.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	// KindUnknown is the zero value; treated as internal.
	KindUnknown Kind = iota
	// KindInvalidInput marks a malformed caller-supplied value.
	KindInvalidInput
	// KindNotFound marks a missing or out-of-scope entity.
	KindNotFound
	// KindConflict marks a uniqueness or state-invariant violation.
	KindConflict
	// KindGone marks a permanently expired or terminal resource.
	KindGone
	// KindForbidden marks an operation disallowed by entity state.
	KindForbidden
	// KindBadRequest marks a failed business precondition.
	KindBadRequest
	// KindInternal marks an unexpected persistence or system failure.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindGone:
		return "gone"
	case KindForbidden:
		return "forbidden"
	case KindBadRequest:
		return "bad_request"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a kind-tagged application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func InvalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Gone(msg string) *Error {
	return &Error{Kind: KindGone, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// Internal wraps an unexpected failure with context.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}
