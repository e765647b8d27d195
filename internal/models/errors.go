package models

import "errors"

// Sentinel errors shared by the store, service and handler layers.
// Callers match them with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrInternal        = errors.New("internal error")
)

// ValidationError reports an empty or malformed form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError is a shorthand used by handlers and services.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
