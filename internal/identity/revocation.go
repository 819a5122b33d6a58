package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList remembers token ids that were ended before their expiry.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationList keeps revoked token ids in Redis with a TTL matching
// the token's remaining lifetime, so entries expire themselves.
type RedisRevocationList struct {
	client *redis.Client
}

// NewRedisRevocationList creates a Redis-backed revocation list.
func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	if client == nil {
		panic("identity: redis client required")
	}
	return &RedisRevocationList{client: client}
}

func revocationKey(tokenID string) string {
	return "session:revoked:" + tokenID
}

func (l *RedisRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, revocationKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("identity: revoke token: %w", err)
	}
	return nil
}

func (l *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("identity: revocation check: %w", err)
	}
	return n > 0, nil
}
