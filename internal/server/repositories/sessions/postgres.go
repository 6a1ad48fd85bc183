package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a session expiring at now+validity with token version 1.
func (r *PostgresRepository) Create(ctx context.Context, userID, userAgent string, validity time.Duration) (*models.Session, error) {
	session := &models.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		UserAgent:    userAgent,
		TokenVersion: 1,
		ExpiredAt:    time.Now().Add(validity),
	}

	query := `
		INSERT INTO sessions (id, user_id, user_agent, token_version, expired_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		session.ID, session.UserID, session.UserAgent, session.TokenVersion, session.ExpiredAt).
		Scan(&session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return session, nil
}

// FindByID returns the session row for the given id, or common.ErrorNotFound.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, user_id, user_agent, token_version, expired_at, created_at
		FROM sessions
		WHERE id = $1
	`
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.UserAgent,
		&session.TokenVersion, &session.ExpiredAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return session, nil
}

// Rotate is the single-writer gate for the sliding-window extension: the
// UPDATE only fires when token_version still equals the value the caller
// read, so of two concurrent refreshes exactly one bumps the version.
func (r *PostgresRepository) Rotate(ctx context.Context, id string, newExpiry time.Time, expectedVersion int64) (int64, error) {
	query := `
		UPDATE sessions
		SET expired_at = $1, token_version = token_version + 1
		WHERE id = $2 AND token_version = $3
		RETURNING token_version
	`
	var newVersion int64
	err := r.db.QueryRowContext(ctx, query, newExpiry, id, expectedVersion).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrVersionConflict
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return newVersion, nil
}

// Delete removes one session (logout / explicit revocation).
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM sessions
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteAllForUser revokes every session of one user, e.g. after a
// password reset.
func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	query := `
		DELETE FROM sessions
		WHERE user_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
