package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is wrapped by every "resource absent" error.
	ErrNotFound = errors.New("not found")
	// ErrTaskNotFound is returned when a task id does not resolve.
	ErrTaskNotFound = fmt.Errorf("task %w", ErrNotFound)
	// ErrUserNotFound is returned when a user id does not resolve.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail = errors.New("user already exists with this email")
	// ErrMissingCredentials is returned when email or password is absent.
	ErrMissingCredentials = errors.New("please provide email and password")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrUnauthenticated is returned when an operation needs a caller identity.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller's role is not allowed.
	ErrForbidden = errors.New("you do not have permission to perform this action")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field of a rejected write.
type ValidationError struct {
	Fields []FieldError
}

// Add records a problem with field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field has been flagged.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Err returns e when at least one field was flagged and nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}
