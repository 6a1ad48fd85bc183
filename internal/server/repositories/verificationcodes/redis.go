package verificationcodes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// codeBytes is the entropy of a generated code; the hex string the user
// sees is twice as long.
const codeBytes = 4

// consumeScript deletes the key only when it still holds the submitted
// code. Returns 1 when the code was consumed by this call, 0 otherwise
// (wrong code, expired, or already consumed by a concurrent caller).
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRepository implements Repository on a Redis client. One key per
// user and purpose; a re-issued code overwrites the previous one.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func key(codeType models.VerificationCodeType, userID string) string {
	return fmt.Sprintf("vcode:%s:%s", codeType, userID)
}

func (r *RedisRepository) Create(ctx context.Context, userID string, codeType models.VerificationCodeType, validity time.Duration) (*models.VerificationCode, error) {
	code, err := common.MakeRandHexString(codeBytes)
	if err != nil {
		return nil, err
	}

	if err := r.client.Set(ctx, key(codeType, userID), code, validity).Err(); err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	return &models.VerificationCode{
		UserID:    userID,
		Type:      codeType,
		Code:      code,
		ExpiresAt: time.Now().Add(validity),
	}, nil
}

func (r *RedisRepository) FindActive(ctx context.Context, userID string, codeType models.VerificationCodeType) (*models.VerificationCode, error) {
	k := key(codeType, userID)

	code, err := r.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}

	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	return &models.VerificationCode{
		UserID:    userID,
		Type:      codeType,
		Code:      code,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func (r *RedisRepository) Consume(ctx context.Context, userID string, codeType models.VerificationCodeType, code string) error {
	n, err := consumeScript.Run(ctx, r.client, []string{key(codeType, userID)}, code).Int()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
