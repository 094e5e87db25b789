// Package apperr holds the error kinds shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized covers both missing sessions and missing privileges.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound also stands in for "exists but belongs to someone else".
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ValidationError reports the first rejected field of a submission.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid returns a *ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AsValidation unwraps err into a *ValidationError when it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Conflict wraps ErrConflict with a message safe to show to the caller.
func Conflict(message string) error {
	return &PublicError{Kind: ErrConflict, Message: message}
}

// Unauthorized wraps ErrUnauthorized with a message safe to show to the caller.
func Unauthorized(message string) error {
	return &PublicError{Kind: ErrUnauthorized, Message: message}
}

// PublicError is a kinded error whose message may be returned to the client verbatim.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string { return e.Message }
func (e *PublicError) Unwrap() error { return e.Kind }

// PublicMessage returns the client-facing message carried by err, if any.
func PublicMessage(err error) (string, bool) {
	var pe *PublicError
	if errors.As(err, &pe) {
		return pe.Message, true
	}
	return "", false
}
