package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/gouthamkasula22/enterprise-auth/internal/auth/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the ledger needs; pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	db DB
}

// NewPostgres returns a ledger backed by the revoked_tokens table.
func NewPostgres(db DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Record(ctx context.Context, entry domain.RevokedToken) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO revoked_tokens (token_id, account_id, reason, revoked_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token_id) DO NOTHING
	`, entry.TokenID, entry.AccountID, entry.Reason, entry.RevokedAt, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("recording revoked token: %w", err)
	}
	return nil
}

func (s *postgresStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)
	`, tokenID).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking revoked token: %w", err)
	}
	return revoked, nil
}

func (s *postgresStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM revoked_tokens WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("purging revoked tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *postgresStore) Close(context.Context) error {
	// Pool lifetime is owned by the caller.
	return nil
}
