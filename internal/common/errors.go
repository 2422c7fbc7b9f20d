// Package common contains shared constants, sentinel errors, and small
// random-value helpers used across the PassVault client and server.
// Callers should match the sentinels with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Generic service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation marks requests with missing or malformed required fields.
	ErrValidation = errors.New("validation error")

	// ErrInvalidCredentials is returned both for an unknown email and a wrong
	// password, so login never reveals whether an account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnverifiedAccount is returned when the account still carries a
	// pending email-verification token.
	ErrUnverifiedAccount = errors.New("email not verified")

	// ErrConfiguration marks operator-fixable misconfiguration, e.g. a
	// missing signing secret.
	ErrConfiguration = errors.New("configuration error")

	// ErrEncryptionFailure covers key-pair generation and vault encryption
	// failures. The enclosing write must be aborted.
	ErrEncryptionFailure = errors.New("encryption failure")

	// ErrDuplicateEmail is the user-visible face of the accounts email
	// uniqueness constraint.
	ErrDuplicateEmail = errors.New("email already registered")

	// Auth token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
