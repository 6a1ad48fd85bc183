// Package verificationcodes stores the short-lived single-use codes that
// gate email confirmation and password resets.
//
// Codes live in Redis under a TTL, so expiry is enforced by the store and
// checked lazily at lookup time; there is no background sweep. Single use
// is guaranteed by an atomic compare-and-delete.
package verificationcodes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

type Repository interface {
	// Create issues a fresh code for the user and purpose, replacing any
	// previous one, valid for the given duration.
	Create(ctx context.Context, userID string, codeType models.VerificationCodeType, validity time.Duration) (*models.VerificationCode, error)

	// FindActive returns the unexpired code for the user and purpose, or
	// common.ErrorNotFound.
	FindActive(ctx context.Context, userID string, codeType models.VerificationCodeType) (*models.VerificationCode, error)

	// Consume deletes the stored code if and only if it equals the
	// submitted value. A mismatch, an expired code, or a code already
	// consumed by a concurrent caller all yield common.ErrorNotFound.
	Consume(ctx context.Context, userID string, codeType models.VerificationCodeType, code string) error
}
