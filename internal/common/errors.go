package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors for records and credentials.
	ErrValidation = errors.New("validation error")

	// ErrLocked is returned while the security gate is not satisfied.
	ErrLocked = errors.New("locked")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken  = errors.New("invalid token")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("already exists")
)
