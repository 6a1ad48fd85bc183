package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
)

func TestSignAndVerify_Success(t *testing.T) {
	t.Parallel()

	opts := SignOptions{Secret: []byte("super-secret"), Validity: time.Hour, Audience: "user"}

	tok, err := Sign(Claims{UserID: "user-123", SessionID: "sess-456"}, opts)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	got, err := Verify(tok, opts.Secret)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got.UserID != "user-123" || got.SessionID != "sess-456" {
		t.Fatalf("claims mismatch: %+v", got)
	}
	if len(got.Audience) != 1 || got.Audience[0] != "user" {
		t.Fatalf("audience mismatch: %v", got.Audience)
	}
}

func TestSign_MissingSessionID(t *testing.T) {
	t.Parallel()

	_, err := Sign(Claims{UserID: "u1"}, SignOptions{Secret: []byte("k"), Validity: time.Hour})
	if err == nil {
		t.Fatal("expected error for missing session id, got nil")
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	opts := SignOptions{Secret: []byte("secret"), Validity: -1 * time.Second, Audience: "user"}
	tok, err := Sign(Claims{SessionID: "s1", Version: 1}, opts)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	_, err = Verify(tok, opts.Secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := Sign(Claims{SessionID: "s2"}, SignOptions{Secret: []byte("right"), Validity: time.Hour})
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	_, err = Verify(tok, []byte("wrong"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestVerify_CrossSecretForgery(t *testing.T) {
	t.Parallel()

	// A token signed with the refresh secret must not verify against the
	// access secret.
	refreshSecret := []byte("refresh-key")
	accessSecret := []byte("access-key")

	tok, err := Sign(Claims{SessionID: "s3", Version: 2}, SignOptions{Secret: refreshSecret, Validity: time.Hour, Audience: "user"})
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	if _, err := Verify(tok, accessSecret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
	if _, err := Verify(tok, refreshSecret); err != nil {
		t.Fatalf("token must verify against its own secret: %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := Verify("not.a.jwt", []byte("k")); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}
