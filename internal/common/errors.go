// Package common defines shared constants and sentinel errors used across
// the authvault layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Credential errors. Login reports ErrInvalidCredentials for both an
	// unknown email and a wrong password, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrEmailTaken         = errors.New("email already in use")

	// Bearer token errors, in the order the codec checks them.
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")

	// Reset token lifecycle errors.
	ErrResetTokenInvalid = errors.New("reset token invalid")
	ErrResetTokenUsed    = errors.New("reset token already used")
	ErrResetTokenExpired = errors.New("reset token expired")

	// Vault errors.
	ErrEmptyFile     = errors.New("file is empty")
	ErrBlankFileName = errors.New("file name is blank")
	ErrForbidden     = errors.New("forbidden")
	ErrCorruptRecord = errors.New("file record does not resolve to a stored blob")

	// Notifier errors.
	ErrNotifierFailure = errors.New("notifier failure")
)
