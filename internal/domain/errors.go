package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInternalError      = errors.New("internal server error")
	ErrUnauthorized       = errors.New("unauthorized")
)

// ValidationError describes a single rejected field of a request
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes every ValidationError match ErrInvalidRequest
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// NewValidationError builds a ValidationError for field
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) || errors.Is(err, ErrAccountNotFound)
}

// IsValidationError checks if an error was caused by bad input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}
