package domain

import (
	"context"
	"time"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	// CreateWithCredential writes the account and its first credential
	// history row in one transaction.
	CreateWithCredential(ctx context.Context, account *Account, credential *Credential) error
	UpdateRole(ctx context.Context, id, role string) error
	Deactivate(ctx context.Context, id string) error
	GetAllUsers(ctx context.Context) ([]Account, error)
	AppendCredential(ctx context.Context, credential *Credential) error
	GetCurrentCredential(ctx context.Context, accountID string) (*Credential, error)
	GetCredentialHistory(ctx context.Context, accountID string) ([]Credential, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	GetByRefreshTokenID(ctx context.Context, refreshTokenID string) (*Session, error)
	GetByAccessTokenID(ctx context.Context, accessTokenID string) (*Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByAccount(ctx context.Context, accountID string) (int, error)
	RevokeOldestByAccount(ctx context.Context, accountID string) error
	ListActiveByAccount(ctx context.Context, accountID string) ([]Session, error)
	CountActiveByAccount(ctx context.Context, accountID string) (int, error)
	UpsertTrustedDevice(ctx context.Context, accountID, fingerprint, userAgent, ip string) error
	IsKnownDevice(ctx context.Context, accountID, fingerprint string) (bool, error)
}

type AuditRepository interface {
	RecordAttempt(ctx context.Context, attempt *LoginAttempt) error
	// RecentFailures counts failed attempts since the given instant for
	// either the identity or the originating address.
	RecentFailures(ctx context.Context, email, ip string, since time.Time) (int, error)
	ListRecentByEmail(ctx context.Context, email string, limit int) ([]LoginAttempt, error)
}
