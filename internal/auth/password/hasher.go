package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// Argon2id defaults, OWASP-recommended interactive parameters.
const (
	DefaultTime      = 3
	DefaultMemoryKiB = 64 * 1024
	DefaultThreads   = 1
	DefaultKeyLen    = 32
	DefaultSaltLen   = 16
)

// HasherConfig tunes the Argon2id cost and the concurrency cap. Each
// hash holds MemoryKiB of RAM for its duration, so MaxConcurrent bounds
// worst-case memory under registration or login floods.
type HasherConfig struct {
	Time          uint32
	MemoryKiB     uint32
	Threads       uint8
	MaxConcurrent int64
}

func (c HasherConfig) withDefaults() HasherConfig {
	if c.Time == 0 {
		c.Time = DefaultTime
	}
	if c.MemoryKiB == 0 {
		c.MemoryKiB = DefaultMemoryKiB
	}
	if c.Threads == 0 {
		c.Threads = DefaultThreads
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	return c
}

// Hasher derives and verifies Argon2id credential hashes in PHC string
// format. Hashing is deliberately slow and memory-hard; both Hash and
// Verify acquire a semaphore slot first and respect context
// cancellation while waiting.
type Hasher struct {
	cfg HasherConfig
	sem *semaphore.Weighted
}

func NewHasher(cfg HasherConfig) *Hasher {
	cfg = cfg.withDefaults()
	return &Hasher{
		cfg: cfg,
		sem: semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// Hash derives a PHC-format digest:
// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
func (h *Hasher) Hash(ctx context.Context, secret string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquiring hash slot: %w", err)
	}
	defer h.sem.Release(1)

	salt := make([]byte, DefaultSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	digest := argon2.IDKey([]byte(secret), salt, h.cfg.Time, h.cfg.MemoryKiB, h.cfg.Threads, DefaultKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.cfg.MemoryKiB, h.cfg.Time, h.cfg.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify re-derives the candidate under the parameters embedded in the
// stored digest and compares in constant time. A mismatch is (false,
// nil); errors are reserved for unparseable digests.
func (h *Hasher) Verify(ctx context.Context, encoded, secret string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("acquiring hash slot: %w", err)
	}
	defer h.sem.Release(1)

	salt, digest, params, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(secret), salt, params.time, params.memory, params.threads, uint32(len(digest)))

	return subtle.ConstantTimeCompare(digest, candidate) == 1, nil
}

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

func decodePHC(encoded string) (salt, digest []byte, params argonParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, nil, params, fmt.Errorf("invalid PHC hash format")
	}

	if parts[1] != "argon2id" {
		return nil, nil, params, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, params, fmt.Errorf("parsing version: %w", err)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return nil, nil, params, fmt.Errorf("parsing parameters: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding salt: %w", err)
	}

	digest, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding hash: %w", err)
	}

	return salt, digest, params, nil
}
