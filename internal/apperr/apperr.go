package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind enumerates the failure categories surfaced by lifecycle operations.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindPreconditionFailed  Kind = "precondition_failed"
	KindValidationFailed    Kind = "validation_failed"
	KindInsufficientStock   Kind = "insufficient_stock"
	KindConcurrencyConflict Kind = "concurrency_conflict"
	KindInternal            Kind = "internal"
)

// Error carries a category, a human-readable message and optional details
// (e.g. the offending product and deficit on a failed stock check).
type Error struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

type Option func(*Error)

// WithCause attaches an underlying error.
func WithCause(err error) Option {
	return func(e *Error) { e.cause = err }
}

// WithDetail adds a single named detail value.
func WithDetail(key string, value any) Option {
	return func(e *Error) {
		if e.details == nil {
			e.details = make(map[string]any)
		}
		e.details[key] = value
	}
}

func New(kind Kind, message string, opts ...Option) *Error {
	if message == "" {
		message = string(kind)
	}
	e := &Error{kind: kind, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// StatusCode resolves the HTTP status for the error kind.
func (e *Error) StatusCode() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindPreconditionFailed:
		return http.StatusConflict
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindInsufficientStock:
		return http.StatusUnprocessableEntity
	case KindConcurrencyConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(message string, opts ...Option) *Error {
	return New(KindNotFound, message, opts...)
}

func Forbidden(message string, opts ...Option) *Error {
	return New(KindForbidden, message, opts...)
}

func PreconditionFailed(message string, opts ...Option) *Error {
	return New(KindPreconditionFailed, message, opts...)
}

func ValidationFailed(message string, opts ...Option) *Error {
	return New(KindValidationFailed, message, opts...)
}

// InsufficientStock reports a counter that cannot satisfy a decrement.
// Callers attach the product and deficit via details.
func InsufficientStock(message string, opts ...Option) *Error {
	return New(KindInsufficientStock, message, opts...)
}

func ConcurrencyConflict(message string, opts ...Option) *Error {
	return New(KindConcurrencyConflict, message, opts...)
}

func Internal(message string, opts ...Option) *Error {
	return New(KindInternal, message, opts...)
}

// From returns an *Error for any error input, wrapping unexpected values.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal error", WithCause(err))
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind() == kind
	}
	return false
}
