// Package common defines shared constants and sentinel errors used across
// authgate components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrVersionConflict = errors.New("version conflict")

	// Registration errors.
	ErrEmailAlreadyExists = errors.New("user already exists with this email")

	// Login errors. Unknown email and wrong password intentionally share
	// one sentinel so callers cannot tell which check failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Token lifecycle errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Session lifecycle errors.
	ErrSessionNotFound = errors.New("session does not exist")
	ErrSessionExpired  = errors.New("session expired")

	// Verification-code errors. Wrong, expired and already-consumed codes
	// all map to the same sentinel per flow.
	ErrInvalidResetCode        = errors.New("invalid or expired reset code")
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")
)
