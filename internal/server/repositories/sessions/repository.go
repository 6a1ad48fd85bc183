// Package sessions provides a PostgreSQL-backed repository for the
// server-side session records that anchor refresh-token validity.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, userAgent string, validity time.Duration) (*models.Session, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	// Rotate extends the session's expiry and bumps its token version in
	// one guarded update. expectedVersion must match the version the
	// caller previously read; on mismatch the rotation is lost to a
	// concurrent caller and common.ErrVersionConflict is returned.
	Rotate(ctx context.Context, id string, newExpiry time.Time, expectedVersion int64) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}
