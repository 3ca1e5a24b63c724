package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/logger"
)

type APIResponse struct {
	Success   bool          `json:"success"`
	Kind      apperror.Kind `json:"kind,omitempty"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(kind apperror.Kind, message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Kind:      kind,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

// WriteJSON encodes data with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, so an encode failure cannot change the status.
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError is the only place an error kind becomes an HTTP status. Fatal
// errors are logged with their cause and reported without internal detail.
func WriteError(w http.ResponseWriter, log *logger.Logger, category string, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	message := "Internal server error"
	var appErr *apperror.Error
	if errors.As(err, &appErr) && kind != apperror.KindFatal {
		message = appErr.Message
	}

	if kind == apperror.KindFatal {
		if log != nil {
			log.Error(category, err.Error())
		}
		WriteJSON(w, status, ErrorResponse(kind, message, message))
		return
	}
	WriteJSON(w, status, ErrorResponse(kind, message, err.Error()))
}

// DecodeJSON reads a JSON body into dst, rejecting malformed or empty bodies as invalid input.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return apperror.InvalidInput("Request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.InvalidInput("Request body is required")
		}
		return apperror.InvalidInput("Invalid request body: %v", err)
	}
	return nil
}
