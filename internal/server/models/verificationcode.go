package models

import "time"

// VerificationCodeType scopes a code to one purpose.
type VerificationCodeType string

const (
	VerificationCodeTypeEmailVerification VerificationCodeType = "email_verification"
	VerificationCodeTypePasswordReset     VerificationCodeType = "password_reset"
)

// VerificationCode is a single-use secret tied to one user and purpose.
// Codes live in Redis under a TTL equal to ExpiresAt, so expiry is
// enforced by the store itself and never needs a background sweep.
type VerificationCode struct {
	UserID    string
	Type      VerificationCodeType
	Code      string
	ExpiresAt time.Time
}
