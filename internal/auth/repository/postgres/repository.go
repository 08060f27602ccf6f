package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gouthamkasula22/enterprise-auth/internal/auth/domain"
)

// DB is the pgx surface the repositories need; both pgxpool.Pool and the
// pgxmock pool satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AccountRepository implements domain.UserRepository on PostgreSQL.
// Lookups that find nothing return (nil, nil); errors are reserved for
// the store itself failing.
type AccountRepository struct {
	db DB
}

func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, role, active, created_at, updated_at`

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = $1
		LIMIT 1;
	`
	account, err := scanAccount(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
		LIMIT 1;
	`
	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}
	return account, nil
}

// CreateWithCredential inserts the account and its first credential
// history row in one transaction; an account without a credential must
// not be observable.
func (r *AccountRepository) CreateWithCredential(ctx context.Context, account *domain.Account, credential *domain.Credential) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, email, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, account.ID, account.Email, account.Role, account.Active, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	if err := insertCredential(ctx, tx, credential); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *AccountRepository) UpdateRole(ctx context.Context, accountID, role string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1
	`, accountID, role)
	return err
}

func (r *AccountRepository) Deactivate(ctx context.Context, accountID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts SET active = false, updated_at = now() WHERE id = $1
	`, accountID)
	return err
}

func (r *AccountRepository) GetAllUsers(ctx context.Context) ([]domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Email, &a.Role, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) AppendCredential(ctx context.Context, credential *domain.Credential) error {
	return insertCredential(ctx, r.db, credential)
}

func (r *AccountRepository) GetCurrentCredential(ctx context.Context, accountID string) (*domain.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT 1;
	`
	var c domain.Credential
	err := scanCredential(r.db.QueryRow(ctx, query, accountID), &c)
	if err != nil {
		// Every account is created with a credential, so no rows here is
		// a store inconsistency, not a miss.
		return nil, fmt.Errorf("failed to get current credential: %w", err)
	}
	return &c, nil
}

func (r *AccountRepository) GetCredentialHistory(ctx context.Context, accountID string) ([]domain.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE account_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var history []domain.Credential
	for rows.Next() {
		var c domain.Credential
		if err := scanCredential(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		history = append(history, c)
	}
	return history, rows.Err()
}

// SessionRepository implements domain.SessionRepository, including the
// trusted-device ledger the risk scorer reads.
type SessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, account_id, access_token_id, refresh_token_id, device_fingerprint,
		ip_address, user_agent, created_at, last_accessed_at, expires_at, active`

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, account_id, access_token_id, refresh_token_id, device_fingerprint,
			ip_address, user_agent, created_at, last_accessed_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, session.ID, session.AccountID, session.AccessTokenID, session.RefreshTokenID,
		session.DeviceFingerprint, session.IPAddress, session.UserAgent,
		session.CreatedAt, session.LastAccessedAt, session.ExpiresAt, session.Active)
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	return r.getSession(ctx, `WHERE id = $1`, id)
}

func (r *SessionRepository) GetByRefreshTokenID(ctx context.Context, tokenID string) (*domain.Session, error) {
	return r.getSession(ctx, `WHERE refresh_token_id = $1`, tokenID)
}

func (r *SessionRepository) GetByAccessTokenID(ctx context.Context, tokenID string) (*domain.Session, error) {
	return r.getSession(ctx, `WHERE access_token_id = $1`, tokenID)
}

func (r *SessionRepository) getSession(ctx context.Context, where, arg string) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		` + where + `
		LIMIT 1;
	`
	var s domain.Session
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&s.ID, &s.AccountID, &s.AccessTokenID, &s.RefreshTokenID, &s.DeviceFingerprint,
		&s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.LastAccessedAt, &s.ExpiresAt, &s.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) Touch(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE sessions SET last_accessed_at = $2 WHERE id = $1
	`, sessionID, at)
	return err
}

func (r *SessionRepository) Revoke(ctx context.Context, sessionID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE sessions SET active = false WHERE id = $1
	`, sessionID)
	return err
}

func (r *SessionRepository) RevokeAllByAccount(ctx context.Context, accountID string) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions SET active = false WHERE account_id = $1 AND active
	`, accountID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *SessionRepository) RevokeOldestByAccount(ctx context.Context, accountID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE sessions SET active = false
		WHERE id = (
			SELECT id FROM sessions
			WHERE account_id = $1 AND active
			ORDER BY created_at
			LIMIT 1
		)
	`, accountID)
	return err
}

func (r *SessionRepository) ListActiveByAccount(ctx context.Context, accountID string) ([]domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE account_id = $1 AND active AND expires_at > now()
		ORDER BY created_at;
	`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(
			&s.ID, &s.AccountID, &s.AccessTokenID, &s.RefreshTokenID, &s.DeviceFingerprint,
			&s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.LastAccessedAt, &s.ExpiresAt, &s.Active,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) CountActiveByAccount(ctx context.Context, accountID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM sessions
		WHERE account_id = $1 AND active AND expires_at > now()
	`, accountID).Scan(&count)
	return count, err
}

func (r *SessionRepository) UpsertTrustedDevice(ctx context.Context, accountID, fingerprint, userAgent, ip string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trusted_devices (
			id, account_id, device_fingerprint, user_agent, ip_address, last_seen, created_at
		) VALUES (
			gen_random_uuid(), $1, $2, $3, $4, now(), now()
		)
		ON CONFLICT (account_id, device_fingerprint)
		DO UPDATE SET
			last_seen = now(),
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent
	`, accountID, fingerprint, userAgent, ip)
	return err
}

func (r *SessionRepository) IsKnownDevice(ctx context.Context, accountID, fingerprint string) (bool, error) {
	var known bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM trusted_devices
			WHERE account_id = $1 AND device_fingerprint = $2
		)
	`, accountID, fingerprint).Scan(&known)
	return known, err
}

// AuditRepository implements domain.AuditRepository. The attempt log is
// append-only.
type AuditRepository struct {
	db DB
}

func NewAuditRepository(db DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) RecordAttempt(ctx context.Context, attempt *domain.LoginAttempt) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (
			id, email, account_id, session_id, ip_address, user_agent, device_fingerprint,
			mechanism, successful, failure_reason, duration_ms, risk_score, attempt_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, attempt.ID, attempt.Email, attempt.AccountID, attempt.SessionID,
		attempt.IPAddress, attempt.UserAgent, attempt.DeviceFingerprint,
		attempt.Mechanism, attempt.Successful, attempt.FailureReason,
		attempt.Duration.Milliseconds(), attempt.RiskScore, attempt.AttemptTime)
	return err
}

func (r *AuditRepository) RecentFailures(ctx context.Context, email, ip string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE (email = $1 OR ip_address = $2)
		AND NOT successful
		AND attempt_time >= $3
	`, email, ip, since).Scan(&count)
	return count, err
}

func (r *AuditRepository) ListRecentByEmail(ctx context.Context, email string, limit int) ([]domain.LoginAttempt, error) {
	query := `
		SELECT id, email, account_id, session_id, ip_address, user_agent, device_fingerprint,
			mechanism, successful, failure_reason, duration_ms, risk_score, attempt_time
		FROM login_attempts
		WHERE email = $1
		ORDER BY attempt_time DESC
		LIMIT $2;
	`
	rows, err := r.db.Query(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list login attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.LoginAttempt
	for rows.Next() {
		var a domain.LoginAttempt
		var durationMs int64
		if err := rows.Scan(
			&a.ID, &a.Email, &a.AccountID, &a.SessionID, &a.IPAddress, &a.UserAgent,
			&a.DeviceFingerprint, &a.Mechanism, &a.Successful, &a.FailureReason,
			&durationMs, &a.RiskScore, &a.AttemptTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		a.Duration = time.Duration(durationMs) * time.Millisecond
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

const credentialColumns = `id, account_id, hash, length, has_lowercase, has_uppercase,
		has_digit, has_symbol, score, change_reason, created_at`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertCredential(ctx context.Context, db execer, c *domain.Credential) error {
	_, err := db.Exec(ctx, `
		INSERT INTO credentials (
			id, account_id, hash, length, has_lowercase, has_uppercase,
			has_digit, has_symbol, score, change_reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, c.ID, c.AccountID, c.Hash, c.Length, c.HasLowercase, c.HasUppercase,
		c.HasDigit, c.HasSymbol, c.Score, c.ChangeReason, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Email, &a.Role, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func scanCredential(row pgx.Row, c *domain.Credential) error {
	return row.Scan(&c.ID, &c.AccountID, &c.Hash, &c.Length, &c.HasLowercase, &c.HasUppercase,
		&c.HasDigit, &c.HasSymbol, &c.Score, &c.ChangeReason, &c.CreatedAt)
}
