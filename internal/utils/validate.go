package utils

import (
	"errors"
	"fmt"
	"strings"

	"eventx-ticketing/internal/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Validate runs the struct's validate tags and folds failures into one InvalidInput error.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.InvalidInput("Invalid request: %v", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed on '%s'", lowerFirst(fe.Field()), fe.Tag()))
	}
	return apperror.InvalidInput("Validation failed: %s", strings.Join(fields, ", "))
}

// NewID returns a fresh identifier for a stored entity.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether s is a well-formed identifier.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
