package verificationcodes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/redis/go-redis/v9"
)

func newRepoWithMiniredis(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client), mr
}

func TestCreateAndFindActive(t *testing.T) {
	repo, _ := newRepoWithMiniredis(t)
	ctx := context.Background()

	issued, err := repo.Create(ctx, "u1", models.VerificationCodeTypePasswordReset, time.Hour)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if issued.Code == "" {
		t.Fatal("expected non-empty code")
	}

	found, err := repo.FindActive(ctx, "u1", models.VerificationCodeTypePasswordReset)
	if err != nil {
		t.Fatalf("FindActive error: %v", err)
	}
	if found.Code != issued.Code {
		t.Fatalf("code mismatch: got %q want %q", found.Code, issued.Code)
	}
	if !found.ExpiresAt.After(time.Now()) {
		t.Fatalf("expiry not in the future: %v", found.ExpiresAt)
	}
}

func TestCreate_ReplacesPreviousCode(t *testing.T) {
	repo, _ := newRepoWithMiniredis(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, "u1", models.VerificationCodeTypePasswordReset, time.Hour)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	second, err := repo.Create(ctx, "u1", models.VerificationCodeTypePasswordReset, time.Hour)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := repo.Consume(ctx, "u1", models.VerificationCodeTypePasswordReset, first.Code); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("superseded code must not consume, got %v", err)
	}
	if err := repo.Consume(ctx, "u1", models.VerificationCodeTypePasswordReset, second.Code); err != nil {
		t.Fatalf("current code must consume: %v", err)
	}
}

func TestFindActive_TypesAreIndependent(t *testing.T) {
	repo, _ := newRepoWithMiniredis(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "u1", models.VerificationCodeTypeEmailVerification, time.Hour); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	_, err := repo.FindActive(ctx, "u1", models.VerificationCodeTypePasswordReset)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound for other purpose, got %v", err)
	}
}

func TestFindActive_Expired(t *testing.T) {
	repo, mr := newRepoWithMiniredis(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "u1", models.VerificationCodeTypePasswordReset, time.Minute); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	_, err := repo.FindActive(ctx, "u1", models.VerificationCodeTypePasswordReset)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound after expiry, got %v", err)
	}
}

func TestConsume_SingleUse(t *testing.T) {
	repo, _ := newRepoWithMiniredis(t)
	ctx := context.Background()

	issued, err := repo.Create(ctx, "u1", models.VerificationCodeTypePasswordReset, time.Hour)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := repo.Consume(ctx, "u1", models.VerificationCodeTypePasswordReset, issued.Code); err != nil {
		t.Fatalf("first consume must succeed: %v", err)
	}
	if err := repo.Consume(ctx, "u1", models.VerificationCodeTypePasswordReset, issued.Code); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("second consume must fail with common.ErrorNotFound, got %v", err)
	}
}

func TestConsume_WrongCodeKeepsStored(t *testing.T) {
	repo, _ := newRepoWithMiniredis(t)
	ctx := context.Background()

	issued, err := repo.Create(ctx, "u1", models.VerificationCodeTypePasswordReset, time.Hour)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := repo.Consume(ctx, "u1", models.VerificationCodeTypePasswordReset, "wrong"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("wrong code must fail, got %v", err)
	}
	// a wrong guess must not burn the real code
	if err := repo.Consume(ctx, "u1", models.VerificationCodeTypePasswordReset, issued.Code); err != nil {
		t.Fatalf("real code must still consume: %v", err)
	}
}
