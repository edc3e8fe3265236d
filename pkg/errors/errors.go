package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors by code so a wrapped clone still compares equal to its
// predefined base.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

// Wrap attaches a cause to one of the predefined errors without mutating it.
func Wrap(base *Error, err error) *Error {
	clone := *base
	clone.Err = err
	return &clone
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", "resource not found", http.StatusNotFound)
	ErrValidation   = New("VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
	ErrConflict     = New("CONFLICT", "conflict", http.StatusConflict)
	ErrUnauthorized = New("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized)
	ErrForbidden    = New("FORBIDDEN", "forbidden", http.StatusForbidden)
	ErrCrossTeam    = New("CROSS_TEAM", "resource belongs to another team", http.StatusForbidden)
	ErrInternal     = New("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)

	// ErrInvalidTarget rejects attendance transfers whose target instance
	// does not exist or is not an acceptable destination.
	ErrInvalidTarget = New("INVALID_TARGET", "invalid transfer target", http.StatusConflict)

	// ErrPaymentLocked guards paid tuition rows against regeneration or edits.
	ErrPaymentLocked = New("PAYMENT_LOCKED", "paid tuition row cannot be modified", http.StatusConflict)

	// ErrCacheMiss signals an absent cache entry; callers fall through to
	// the store and must never surface it to clients.
	ErrCacheMiss = New("CACHE_MISS", "cache miss", http.StatusNotFound)
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(ErrInternal, err)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
