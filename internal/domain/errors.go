package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when input fails a domain rule.
	// It is usually wrapped by a ValidationError carrying the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when a user or task ID is not a positive integer.
	ErrInvalidID = fmt.Errorf("%w: invalid ID", ErrValidation)

	// ErrInvalidBatchSize is returned when a batch holds fewer than MinBatchSize
	// or more than the configured maximum number of descriptions.
	ErrInvalidBatchSize = fmt.Errorf("%w: invalid batch size", ErrValidation)
)

// ValidationError describes which field failed validation and why.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s %s", e.Err, e.Field, e.Message)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel so errors.Is works against ErrValidation.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
