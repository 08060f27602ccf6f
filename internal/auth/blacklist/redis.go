package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/gouthamkasula22/enterprise-auth/internal/auth/domain"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a redis-backed ledger. Entries carry a TTL equal
// to the token's remaining natural lifetime, so redis expiry performs
// the purge.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "blacklist:"
	}
	return &redisStore{client: client, prefix: prefix}, nil
}

func (s *redisStore) key(tokenID string) string {
	return s.prefix + tokenID
}

func (s *redisStore) Record(ctx context.Context, entry domain.RevokedToken) error {
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		// Already past natural expiry; verification rejects it anyway.
		return nil
	}
	return s.client.Set(ctx, s.key(entry.TokenID), entry.Reason, ttl).Err()
}

func (s *redisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("checking revoked token: %w", err)
	}
	return n > 0, nil
}

func (s *redisStore) PurgeExpired(context.Context, time.Time) (int64, error) {
	// Redis handles expiration via TTL.
	return 0, nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}
