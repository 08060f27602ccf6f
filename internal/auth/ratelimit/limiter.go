package ratelimit

import (
	"context"
	"time"

	autherror "github.com/gouthamkasula22/enterprise-auth/internal/errors"
)

// Limiter applies per-endpoint sliding-window thresholds over a window
// store. A denied check is a hard lockout: the key stays blocked for the
// full cool-down even if the client goes quiet.
type Limiter struct {
	store    Store
	window   time.Duration
	cooldown time.Duration
	limits   map[string]int
	fallback int
}

func NewLimiter(store Store, cfg Config) *Limiter {
	cfg = cfg.withDefaults()
	return &Limiter{
		store:    store,
		window:   time.Duration(cfg.WindowSeconds) * time.Second,
		cooldown: time.Duration(cfg.CooldownSeconds) * time.Second,
		limits:   cfg.EndpointLimits,
		fallback: cfg.DefaultLimit,
	}
}

// LimitFor resolves the threshold for an endpoint key, falling back to
// the global default.
func (l *Limiter) LimitFor(endpoint string) int {
	if limit, ok := l.limits[endpoint]; ok && limit > 0 {
		return limit
	}
	return l.fallback
}

// Check gates one request for (clientID, endpoint). It returns nil when
// allowed, a RateLimitError carrying retry-after when throttled, or the
// store error when the store itself fails. Callers fail closed on store
// errors.
func (l *Limiter) Check(ctx context.Context, clientID, endpoint string) error {
	decision, err := l.store.Check(ctx, endpoint+":"+clientID, l.LimitFor(endpoint), l.window, l.cooldown)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &autherror.RateLimitError{RetryAfter: decision.RetryAfter}
	}
	return nil
}
