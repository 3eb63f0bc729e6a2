package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may not act on the row.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyRegistered is returned when registering an email that is taken.
	ErrAlreadyRegistered = errors.New("user already registered")
	// ErrInvalidCredentials is returned for an unknown email and a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRole is returned when a role update names an unknown role.
	ErrInvalidRole = errors.New("invalid role specified")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when input fails validation, before anything is persisted.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

func invalidField(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
