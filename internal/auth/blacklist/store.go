package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/gouthamkasula22/enterprise-auth/internal/auth/domain"
)

// Driver identifiers for the revocation ledger.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Store is the durable revocation ledger consulted before trusting any
// decoded token. Both drivers are shared across serving processes, so a
// revoke is visible globally within one store round trip; Record is
// idempotent. Entries may be purged once their natural expiry passes;
// an expired token is already rejected by the signature/expiry checks.
type Store interface {
	Record(ctx context.Context, entry domain.RevokedToken) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	Close(ctx context.Context) error
}

// RedisConfig captures connection options for the redis driver.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// Config selects the ledger driver.
type Config struct {
	Driver string
	Redis  *RedisConfig
}

// Dependencies carries external handles required by certain drivers.
type Dependencies struct {
	PostgresDB DB
}

// New creates a revocation ledger based on the configured driver.
func New(cfg Config, deps Dependencies) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}

	switch driver {
	case DriverPostgres:
		if deps.PostgresDB == nil {
			return nil, fmt.Errorf("postgres driver requires database handle")
		}
		return NewPostgres(deps.PostgresDB), nil
	case DriverRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported blacklist store driver: %s", driver)
	}
}
