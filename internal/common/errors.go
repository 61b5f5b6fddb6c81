// Package common defines shared constants and sentinel errors used across
// the server and worker processes. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("already exists")

	// Matched by errors.Is for any *ValidationError.
	ErrValidation = errors.New("validation error")

	// Blob or store I/O failure, distinct from a missing blob.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError is a user-correctable input error. Reason is the short
// machine-readable string returned on the wire.
type ValidationError struct {
	Reason string
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Reason)
}

// Is makes errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
