package models

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrEntityNotFound  = errors.New("record not found")
	ErrInvalidStatus   = errors.New("invalid booking status")
	ErrValidation      = errors.New("validation failed")
	ErrReferenced      = errors.New("record is still referenced")
)

// ValidationError names the request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ReferencedError is returned when a delete is blocked by rows that still point at the record.
type ReferencedError struct {
	Kind   string
	Usages int
	UsedIn string
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("cannot delete %s: used in %d %s", e.Kind, e.Usages, e.UsedIn)
}

func (e *ReferencedError) Unwrap() error {
	return ErrReferenced
}
