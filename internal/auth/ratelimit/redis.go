package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// checkScript performs the whole prune-count-decide-append sequence
// server-side so concurrent replicas cannot interleave and bypass the
// threshold. KEYS[1] is the window zset, KEYS[2] the cool-down flag.
// ARGV: now_ms, window_ms, limit, cooldown_ms, member_suffix.
// Returns {allowed, retry_after_ms}.
var checkScript = redis.NewScript(`
local cd = redis.call('PTTL', KEYS[2])
if cd > 0 then
  return {0, cd}
end
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1] - ARGV[2])
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[3]) then
  redis.call('SET', KEYS[2], '1', 'PX', ARGV[4])
  return {0, tonumber(ARGV[4])}
end
redis.call('ZADD', KEYS[1], tonumber(ARGV[1]), ARGV[1] .. '-' .. ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return {1, 0}
`)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a redis-backed window store shared across
// serving processes.
func NewRedisStore(cfg Config) (Store, error) {
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
		prefix = "ratelimit:"
	}

	return &redisStore{client: client, prefix: prefix}, nil
}

func (s *redisStore) Check(ctx context.Context, key string, limit int, window, cooldown time.Duration) (Decision, error) {
	keys := []string{
		s.prefix + "win:" + key,
		s.prefix + "cd:" + key,
	}
	argv := []interface{}{
		time.Now().UnixMilli(),
		window.Milliseconds(),
		limit,
		cooldown.Milliseconds(),
		uuid.NewString(),
	}

	raw, err := checkScript.Run(ctx, s.client, keys, argv...).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(raw) != 2 {
		return Decision{}, fmt.Errorf("rate limit check: unexpected reply %v", raw)
	}

	allowed, _ := raw[0].(int64)
	retryMs, _ := raw[1].(int64)

	return Decision{
		Allowed:    allowed == 1,
		RetryAfter: time.Duration(retryMs) * time.Millisecond,
	}, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
