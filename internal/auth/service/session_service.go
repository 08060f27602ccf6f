package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/blacklist"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/domain"
	autherror "github.com/gouthamkasula22/enterprise-auth/internal/errors"
)

// DeviceInfo is the client context attached to a session. Fingerprint
// may arrive from the client; when absent it is derived server-side.
type DeviceInfo struct {
	Fingerprint string
	IPAddress   string
	UserAgent   string
}

// SessionManager owns the per-device session lifecycle: CREATED →
// ACTIVE → {EXPIRED | REVOKED}, both terminal. Every revocation lands
// both token ids in the blacklist ledger so the tokens die globally, not
// just in this process.
type SessionManager struct {
	sessions  domain.SessionRepository
	tokens    TokenGenerator
	ledger    blacklist.Store
	maxActive int
	logger    *slog.Logger

	now func() time.Time
}

func NewSessionManager(sessions domain.SessionRepository, tokens TokenGenerator, ledger blacklist.Store, maxActive int, logger *slog.Logger) *SessionManager {
	if maxActive <= 0 {
		maxActive = 5
	}
	return &SessionManager{
		sessions:  sessions,
		tokens:    tokens,
		ledger:    ledger,
		maxActive: maxActive,
		logger:    logger,
		now:       time.Now,
	}
}

// Create issues a fresh token pair and persists the session in one
// repository call. The session expires with its refresh token.
func (m *SessionManager) Create(ctx context.Context, account *domain.Account, device DeviceInfo) (*domain.Session, *TokenPair, error) {
	pair, err := m.tokens.GeneratePair(account)
	if err != nil {
		return nil, nil, fmt.Errorf("generating token pair: %w", err)
	}

	now := m.now()
	session := &domain.Session{
		ID:                uuid.NewString(),
		AccountID:         account.ID,
		AccessTokenID:     pair.AccessTokenID,
		RefreshTokenID:    pair.RefreshTokenID,
		DeviceFingerprint: fingerprintFor(device),
		IPAddress:         device.IPAddress,
		UserAgent:         device.UserAgent,
		CreatedAt:         now,
		LastAccessedAt:    now,
		ExpiresAt:         pair.RefreshExpiresAt,
		Active:            true,
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("storing session: %w", err)
	}

	if err := m.sessions.UpsertTrustedDevice(ctx, account.ID, session.DeviceFingerprint, device.UserAgent, device.IPAddress); err != nil {
		m.logger.Warn("failed to upsert trusted device", "account_id", account.ID, "error", err)
	}

	if err := m.enforceSessionCap(ctx, account.ID); err != nil {
		m.logger.Warn("failed to enforce session cap", "account_id", account.ID, "error", err)
	}

	return session, pair, nil
}

func (m *SessionManager) enforceSessionCap(ctx context.Context, accountID string) error {
	count, err := m.sessions.CountActiveByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if count > m.maxActive {
		return m.sessions.RevokeOldestByAccount(ctx, accountID)
	}
	return nil
}

// ValidateAccess decodes an access token, consults the revocation
// ledger, and touches the backing session's last-accessed time. The
// touch slides usage tracking only; token lifetime stays fixed.
func (m *SessionManager) ValidateAccess(ctx context.Context, accessToken string) (*JWTCustomClaims, error) {
	claims, err := m.tokens.DecodeAccess(accessToken)
	if err != nil {
		return nil, err
	}

	revoked, err := m.ledger.IsRevoked(ctx, claims.ID)
	if err != nil {
		// Fail closed: cannot verify is not verified.
		return nil, fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return nil, autherror.NewTokenError(autherror.TokenRevoked)
	}

	session, err := m.sessions.GetByAccessTokenID(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if session != nil {
		switch session.State(m.now()) {
		case domain.SessionStateRevoked:
			return nil, autherror.NewTokenError(autherror.TokenRevoked)
		case domain.SessionStateExpired:
			return nil, autherror.NewSessionError(autherror.SessionExpired)
		default:
			if err := m.sessions.Touch(ctx, session.ID, m.now()); err != nil {
				m.logger.Warn("failed to touch session", "session_id", session.ID, "error", err)
			}
		}
	}

	return claims, nil
}

// Rotate validates a presented refresh token against signature, ledger,
// session state, and device binding, then revokes the old session. It
// returns the revoked session; the caller creates the replacement. A
// rotation against a revoked or expired session fails with SessionError;
// terminal sessions never resurrect.
func (m *SessionManager) Rotate(ctx context.Context, refreshToken string, device DeviceInfo) (*domain.Session, error) {
	claims, err := m.tokens.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	revoked, err := m.ledger.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return nil, autherror.NewTokenError(autherror.TokenRevoked)
	}

	session, err := m.sessions.GetByRefreshTokenID(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if session == nil {
		return nil, autherror.NewSessionError(autherror.SessionNotFound)
	}

	switch session.State(m.now()) {
	case domain.SessionStateRevoked:
		return nil, autherror.NewSessionError(autherror.SessionRevoked)
	case domain.SessionStateExpired:
		return nil, autherror.NewSessionError(autherror.SessionExpired)
	}

	if device.Fingerprint != "" && session.DeviceFingerprint != device.Fingerprint {
		return nil, autherror.NewSessionError(autherror.SessionDeviceMismatch)
	}

	if err := m.Revoke(ctx, session, "refresh_rotation"); err != nil {
		return nil, fmt.Errorf("revoking rotated session: %w", err)
	}

	return session, nil
}

// Revoke marks the session inactive and records both of its token ids
// in the ledger with their natural expiries.
func (m *SessionManager) Revoke(ctx context.Context, session *domain.Session, reason string) error {
	if err := m.sessions.Revoke(ctx, session.ID); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}

	now := m.now()
	entries := []domain.RevokedToken{
		{
			TokenID:   session.AccessTokenID,
			AccountID: session.AccountID,
			Reason:    reason,
			RevokedAt: now,
			ExpiresAt: now.Add(m.tokens.GetAccessTokenExpiry()),
		},
		{
			TokenID:   session.RefreshTokenID,
			AccountID: session.AccountID,
			Reason:    reason,
			RevokedAt: now,
			ExpiresAt: session.ExpiresAt,
		},
	}
	for _, entry := range entries {
		if err := m.ledger.Record(ctx, entry); err != nil {
			return fmt.Errorf("recording revoked token: %w", err)
		}
	}
	return nil
}

// RevokeAll revokes every active session for the account and returns how
// many were revoked. Used for "log out everywhere" and forced password
// changes.
func (m *SessionManager) RevokeAll(ctx context.Context, accountID, reason string) (int, error) {
	active, err := m.sessions.ListActiveByAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("listing active sessions: %w", err)
	}

	count := 0
	for i := range active {
		if err := m.Revoke(ctx, &active[i], reason); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Logout revokes the session behind an access token. The token must
// still verify and not already be revoked.
func (m *SessionManager) Logout(ctx context.Context, accessToken string) error {
	claims, err := m.tokens.DecodeAccess(accessToken)
	if err != nil {
		return err
	}

	revoked, err := m.ledger.IsRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return autherror.NewTokenError(autherror.TokenRevoked)
	}

	session, err := m.sessions.GetByAccessTokenID(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if session == nil {
		return autherror.NewSessionError(autherror.SessionNotFound)
	}

	return m.Revoke(ctx, session, "logout")
}

// ListActive lists the account's active sessions.
func (m *SessionManager) ListActive(ctx context.Context, accountID string) ([]domain.Session, error) {
	return m.sessions.ListActiveByAccount(ctx, accountID)
}

// IsKnownDevice reports whether the account has used this fingerprint
// before; feeds the auditor's unseen-device risk signal.
func (m *SessionManager) IsKnownDevice(ctx context.Context, accountID, fingerprint string) (bool, error) {
	return m.sessions.IsKnownDevice(ctx, accountID, fingerprint)
}

// fingerprintFor returns the client-supplied fingerprint or derives one
// from user agent, address, and a random salt.
func fingerprintFor(device DeviceInfo) string {
	if device.Fingerprint != "" {
		return device.Fingerprint
	}
	salt := make([]byte, 8)
	_, _ = rand.Read(salt)
	sum := sha256.Sum256(append([]byte(device.UserAgent+"|"+device.IPAddress+"|"), salt...))
	return hex.EncodeToString(sum[:])
}
