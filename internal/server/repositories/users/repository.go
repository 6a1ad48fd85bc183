// Package users provides persistence for registered identities.
package users

import (
	"context"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID string, passwordHash []byte) error
	SetEmailVerified(ctx context.Context, userID string) error
}
