// Package common defines shared constants and sentinel errors used across
// client and server layers of userkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("invalid credentials")

	// Validation / account-specific errors.
	ErrValidation        = errors.New("validation error")
	ErrDuplicateIdentity = errors.New("email already registered")
	ErrIdenticalPassword = errors.New("new password must be different from the old password")

	// Auth errors. Malformed, expired and badly signed tokens all map here.
	ErrInvalidToken = errors.New("invalid or expired token")

	// Token issuance errors.
	ErrConfiguration = errors.New("configuration error")
	ErrSigning       = errors.New("token signing error")
)
