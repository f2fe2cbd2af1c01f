// Package common defines the sentinel errors shared by repositories,
// services and handlers. Callers match them with errors.Is.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a record is absent for an id or username.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the store rejects a write on a uniqueness constraint.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized is returned when a self-service update is denied.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller's roles do not permit an action.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned by login for unknown users and bad passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError describes one rejected field.
type FieldError struct {
	Field         string `json:"field"`
	Message       string `json:"message"`
	RejectedValue string `json:"rejectedValue"`
}

// ValidationError lists every offending field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return fmt.Sprintf("validation failed on %s", strings.Join(names, ", "))
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HasField reports whether the named field was rejected.
func (e *ValidationError) HasField(name string) bool {
	for _, f := range e.Fields {
		if f.Field == name {
			return true
		}
	}
	return false
}
