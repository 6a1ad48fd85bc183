// Package auth is the token codec: it signs and verifies the compact JWTs
// used as access and refresh credentials. It does no storage access;
// whether the session behind a token still exists is the caller's
// responsibility to check.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the minimal token payload. Every token names the session
// it was minted for. Access tokens additionally carry the user id; refresh
// tokens carry the session's rotation version instead.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId"`
	Version   int64  `json:"version,omitempty"`
}

// SignOptions selects the key material and lifetime for one token class.
// Access and refresh tokens use independent secrets so that leaking one
// class cannot be used to forge the other.
type SignOptions struct {
	Secret   []byte
	Validity time.Duration
	Audience string
}

// Sign produces an HS256-signed token for the given claims. SessionID is
// mandatory; expiry and audience come from opts.
func Sign(claims Claims, opts SignOptions) (string, error) {
	if claims.SessionID == "" {
		return "", errors.New("claims missing session id")
	}

	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{opts.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(opts.Validity)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(opts.Secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify parses and validates a token against the given secret. Expired
// tokens yield common.ErrTokenExpired; any other failure (bad signature,
// malformed structure, wrong algorithm) yields common.ErrInvalidToken.
func Verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
