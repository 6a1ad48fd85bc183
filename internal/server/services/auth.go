// Package services contains server-side business logic. This file implements
// AuthService: registration, login, refresh-token rotation, and password
// recovery via single-use verification codes.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/config"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/verificationcodes"
	"golang.org/x/crypto/bcrypt"
)

const (
	// emailVerificationCodeValidity bounds the window for confirming a
	// fresh registration.
	emailVerificationCodeValidity = 45 * time.Minute

	// passwordResetCodeValidity bounds the window for completing a
	// forgot-password flow.
	passwordResetCodeValidity = time.Hour

	// rotationThreshold: a refresh only rotates the token and extends the
	// session when less than this much lifetime remains. Keeps session
	// lifetime bounded instead of sliding on every call.
	rotationThreshold = 24 * time.Hour
)

const invalidResetCodeMessage = "invalid or expired reset code"

// LoginResult is returned on successful authentication. MFARequired is a
// forward-compatibility placeholder and is always false.
type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	MFARequired  bool
}

// RefreshResult bundles the always-minted access token with the refresh
// token minted only when the session was rotated; RefreshToken is empty
// when the presented token remains valid.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

// AuthService owns the authentication and session lifecycle rules:
// how sessions are created, how tokens are signed and rotated, and how
// verification codes gate password resets.
type AuthService struct {
	db                           *sql.DB
	repos                        repomanager.RepositoryManager
	codes                        verificationcodes.Repository
	accessTokenSecret            []byte
	refreshTokenSecret           []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, codes verificationcodes.Repository, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                           db,
		repos:                        m,
		codes:                        codes,
		accessTokenSecret:            []byte(cfg.AccessTokenSecret),
		refreshTokenSecret:           []byte(cfg.RefreshTokenSecret),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new user and issues an email-verification code bound
// to it. Retrying with the same email after success always fails with
// common.ErrEmailAlreadyExists. The two writes are not wrapped in one
// transaction: a crash in between leaves a user without a pending code,
// which is re-issuable.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = normalizeEmail(email)

	repo := s.repos.Users(s.db)

	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, common.ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user, err := repo.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	// Delivery is a collaborator's concern; this only records the code
	// and its expiry.
	if _, err := s.codes.Create(ctx, user.ID, models.VerificationCodeTypeEmailVerification, emailVerificationCodeValidity); err != nil {
		return nil, fmt.Errorf("error issuing verification code: %w", err)
	}

	return user, nil
}

// Login verifies credentials and opens a new session. Unknown email and
// wrong password return the same sentinel so the response does not leak
// which check failed. Every successful login creates a fresh session;
// concurrent sessions per user are expected.
func (s *AuthService) Login(ctx context.Context, email, password, userAgent string) (*LoginResult, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrInvalidCredentials
	}

	session, err := s.repos.Sessions(s.db).Create(ctx, user.ID, userAgent, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	accessToken, err := s.signAccessToken(user.ID, session.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := s.signRefreshToken(session.ID, session.TokenVersion)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		MFARequired:  false,
	}, nil
}

// Refresh validates a refresh token against its session and mints a new
// access token. When the session is within rotationThreshold of expiry it
// is extended and a new refresh token is issued; the version bump makes
// the presented token unusable from that point on.
//
// Session expiry is authoritative: a cryptographically valid token whose
// session has lapsed is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := auth.Verify(refreshToken, s.refreshTokenSecret)
	if err != nil {
		return nil, common.ErrInvalidRefreshToken
	}

	repo := s.repos.Sessions(s.db)

	session, err := repo.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error finding session: %w", err)
	}

	now := time.Now()
	if !session.ExpiredAt.After(now) {
		return nil, common.ErrSessionExpired
	}

	// A token minted before the last rotation carries a stale version and
	// is dead even though its signature and expiry still check out.
	if claims.Version < session.TokenVersion {
		return nil, common.ErrInvalidRefreshToken
	}

	var newRefreshToken string
	if session.ExpiredAt.Sub(now) <= rotationThreshold {
		newVersion, err := repo.Rotate(ctx, session.ID, now.Add(s.refreshTokenValidityDuration), session.TokenVersion)
		switch {
		case err == nil:
			newRefreshToken, err = s.signRefreshToken(session.ID, newVersion)
			if err != nil {
				return nil, common.ErrorInternal
			}
		case errors.Is(err, common.ErrVersionConflict):
			// Lost the rotation race to a concurrent refresh. The winner
			// minted the replacement token; this caller only gets a fresh
			// access token.
		default:
			return nil, fmt.Errorf("error rotating session: %w", err)
		}
	}

	accessToken, err := s.signAccessToken(session.UserID, session.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &RefreshResult{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// Logout revokes one session, invalidating every token derived from it.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.repos.Sessions(s.db).Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// ForgotPassword issues a password-reset code for the account, replacing
// any previous one. For an unknown email it reports success and issues
// nothing, so the endpoint cannot be used to probe registered addresses.
// Code delivery is a collaborator's concern.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*models.VerificationCode, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	code, err := s.codes.Create(ctx, user.ID, models.VerificationCodeTypePasswordReset, passwordResetCodeValidity)
	if err != nil {
		return nil, fmt.Errorf("error issuing reset code: %w", err)
	}

	return code, nil
}

// VerifyResetCode reports whether the submitted reset code is currently
// valid for the account, without consuming it. Wrong, expired, and absent
// codes all produce the same (false, reason) answer; the error return is
// reserved for store faults.
func (s *AuthService) VerifyResetCode(ctx context.Context, email, code string) (bool, string, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, invalidResetCodeMessage, nil
		}
		return false, "", fmt.Errorf("error finding user: %w", err)
	}

	stored, err := s.codes.FindActive(ctx, user.ID, models.VerificationCodeTypePasswordReset)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, invalidResetCodeMessage, nil
		}
		return false, "", fmt.Errorf("error finding reset code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) != 1 {
		return false, invalidResetCodeMessage, nil
	}

	return true, "", nil
}

// ResetPassword consumes a valid reset code, replaces the password hash,
// and revokes every session of the user in the same transaction, forcing
// re-authentication everywhere. The consume is atomic, so a code is
// accepted at most once even under concurrent resets.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidResetCode
		}
		return fmt.Errorf("error finding user: %w", err)
	}

	if err := s.codes.Consume(ctx, user.ID, models.VerificationCodeTypePasswordReset, code); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidResetCode
		}
		return fmt.Errorf("error consuming reset code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrorInternal
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		if err := s.repos.Sessions(tx).DeleteAllForUser(ctx, user.ID); err != nil {
			return fmt.Errorf("error revoking sessions: %w", err)
		}
		return nil
	}); err != nil {
		return err
	}

	return nil
}

// VerifyEmail consumes an email-verification code and marks the account
// verified. Failure granularity is merged the same way as for reset codes.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidVerificationCode
		}
		return fmt.Errorf("error finding user: %w", err)
	}

	if err := s.codes.Consume(ctx, user.ID, models.VerificationCodeTypeEmailVerification, code); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidVerificationCode
		}
		return fmt.Errorf("error consuming verification code: %w", err)
	}

	if err := s.repos.Users(s.db).SetEmailVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("error marking email verified: %w", err)
	}

	return nil
}

// --- helpers below ---

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) signAccessToken(userID, sessionID string) (string, error) {
	return auth.Sign(
		auth.Claims{UserID: userID, SessionID: sessionID},
		auth.SignOptions{
			Secret:   s.accessTokenSecret,
			Validity: s.accessTokenValidityDuration,
			Audience: common.TokenAudienceUser,
		})
}

func (s *AuthService) signRefreshToken(sessionID string, version int64) (string, error) {
	return auth.Sign(
		auth.Claims{SessionID: sessionID, Version: version},
		auth.SignOptions{
			Secret:   s.refreshTokenSecret,
			Validity: s.refreshTokenValidityDuration,
			Audience: common.TokenAudienceUser,
		})
}
