// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	// KindForbidden is an ownership mismatch. It renders as 401, like Unauthorized.
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too_many_requests"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// HTTPStatus maps a kind to the status code written to clients.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized, KindForbidden:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindInternal:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field validation messages.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NotFound(msg string) *Error     { return New(KindNotFound, msg) }
func Conflict(msg string) *Error     { return New(KindConflict, msg) }
func Unauthorized(msg string) *Error { return New(KindUnauthorized, msg) }
func Forbidden(msg string) *Error    { return New(KindForbidden, msg) }

func Validation(msg string, fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Internal hides err behind the generic message; err is kept for logging.
func Internal(err error) *Error {
	return Wrap(err, KindInternal, MsgInternal)
}

// As returns the *Error in err's chain, or a KindInternal error wrapping err.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return As(err).Kind
}
