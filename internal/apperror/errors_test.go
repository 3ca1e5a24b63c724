package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedErrors(t *testing.T) {
	err := fmt.Errorf("book: %w", SeatTaken("evt-1", 4))

	assert.Equal(t, KindSeatTaken, KindOf(err))
	assert.True(t, errors.Is(err, ErrSeatTaken))
	assert.False(t, errors.Is(err, ErrExhausted))

	var appErr *Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "evt-1", appErr.EventID)
	assert.Equal(t, 4, appErr.Seat)
	assert.Equal(t, "Seat 4 is already booked", appErr.Message)
}

func TestNotFoundMatchesEntity(t *testing.T) {
	err := NotFound("user")

	assert.Equal(t, "User not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, NotFound("user")))
	assert.False(t, errors.Is(err, NotFound("event")))
}

func TestUnknownErrorsAreFatal(t *testing.T) {
	assert.Equal(t, KindFatal, KindOf(errors.New("boom")))

	cause := errors.New("disk full")
	err := Fatal("failed to persist ticket", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to persist ticket: disk full", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:     http.StatusNotFound,
		KindExhausted:    http.StatusBadRequest,
		KindSeatTaken:    http.StatusBadRequest,
		KindInvalidInput: http.StatusBadRequest,
		KindConflict:     http.StatusBadRequest,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindFatal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}
