// Package apperror is the closed set of failure kinds the service reports to callers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindExhausted    Kind = "exhausted"
	KindSeatTaken    Kind = "seat_taken"
	KindInvalidInput Kind = "invalid_input"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindFatal        Kind = "fatal"
)

// Error carries a Kind plus the structured fields a client needs to react to it.
type Error struct {
	Kind    Kind
	Entity  string
	EventID string
	Seat    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so callers can write errors.Is(err, apperror.ErrSeatTaken).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Entity == "" || t.Entity == e.Entity)
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrExhausted    = &Error{Kind: KindExhausted}
	ErrSeatTaken    = &Error{Kind: KindSeatTaken}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrFatal        = &Error{Kind: KindFatal}
)

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: fmt.Sprintf("%s not found", capitalize(entity))}
}

func Exhausted(eventID string) *Error {
	return &Error{Kind: KindExhausted, Entity: "event", EventID: eventID, Message: "No available seats"}
}

func SeatTaken(eventID string, seat int) *Error {
	return &Error{
		Kind:    KindSeatTaken,
		Entity:  "ticket",
		EventID: eventID,
		Seat:    seat,
		Message: fmt.Sprintf("Seat %d is already booked", seat),
	}
}

func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Fatal wraps an unexpected failure (proof generation, persistence inconsistency, driver errors).
func Fatal(message string, cause error) *Error {
	return &Error{Kind: KindFatal, Message: message, Cause: cause}
}

// KindOf returns the kind of err, treating anything outside the enumeration as fatal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}

// HTTPStatus is the single mapping from kind to transport status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindExhausted, KindSeatTaken, KindInvalidInput, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
