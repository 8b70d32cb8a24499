// Package common defines shared constants and sentinel errors used across
// client and server layers of GophAuth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrConstraintViolation is returned when the store rejects an insert
	// because of a uniqueness rule (duplicate email).
	ErrConstraintViolation = errors.New("constraint violation")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorUnauthenticated    = errors.New("no user is currently authenticated")
	ErrorInvalidCredentials = errors.New("invalid email or password")
)
