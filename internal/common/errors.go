package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Validation errors (bad input, duplicate username/email).
	ErrValidation = errors.New("validation error")

	// Authentication errors. ErrInvalidCredentials deliberately covers both
	// "no such user" and "wrong password" so usernames cannot be enumerated.
	ErrInvalidCredentials = errors.New("username or password is incorrect")

	// ErrInvalidToken covers missing, expired, revoked and replayed refresh
	// tokens as well as expired reset tokens. Callers must not be able to
	// tell which aspect failed.
	ErrInvalidToken = errors.New("invalid token")

	// ErrVerificationFailed signals an unknown email verification token.
	ErrVerificationFailed = errors.New("verification failed")
)
