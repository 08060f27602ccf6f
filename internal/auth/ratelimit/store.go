package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Driver identifiers for the window store.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Decision is the outcome of one check. RetryAfter is only meaningful
// when Allowed is false.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Store is the sliding-window capability behind the limiter: one atomic
// prune-count-decide-append per key. The memory driver serves a single
// process; the redis driver shares counters across replicas, selected by
// configuration. Revocation-style immediacy is bounded by one store
// round trip.
type Store interface {
	Check(ctx context.Context, key string, limit int, window, cooldown time.Duration) (Decision, error)
	Close() error
}

// RedisConfig captures connection options for the redis driver.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// Config selects and tunes the window store and the limiter thresholds.
type Config struct {
	Driver          string
	WindowSeconds   int
	CooldownSeconds int
	DefaultLimit    int
	EndpointLimits  map[string]int
	Redis           *RedisConfig
}

func (c Config) withDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.WindowSeconds <= 0 {
		c.WindowSeconds = 60
	}
	if c.CooldownSeconds <= 0 {
		c.CooldownSeconds = 60
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 60
	}
	return c
}

// NewStore creates a window store based on the configured driver.
func NewStore(cfg Config) (Store, error) {
	cfg = cfg.withDefaults()
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverRedis:
		return NewRedisStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported rate limit store driver: %s", cfg.Driver)
	}
}
