package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowEntry struct {
	timestamps    []time.Time
	cooldownUntil time.Time
}

// memoryStore keeps per-key windows in a process-local map. Check-and-
// update is atomic per key under the store mutex.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

func (s *memoryStore) Check(_ context.Context, key string, limit int, window, cooldown time.Duration) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok {
		entry = &windowEntry{}
		s.entries[key] = entry
	}

	// Hard lockout: while the cool-down deadline is in the future every
	// request is denied without re-counting.
	if entry.cooldownUntil.After(now) {
		return Decision{Allowed: false, RetryAfter: entry.cooldownUntil.Sub(now)}, nil
	}

	cutoff := now.Add(-window)
	kept := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	entry.timestamps = kept

	if len(entry.timestamps) >= limit {
		entry.cooldownUntil = now.Add(cooldown)
		return Decision{Allowed: false, RetryAfter: cooldown}, nil
	}

	entry.timestamps = append(entry.timestamps, now)
	return Decision{Allowed: true}, nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*windowEntry)
	return nil
}
