package domain

import "time"

type Account struct {
	ID        string
	Email     string
	Role      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credential is one row of an account's append-only password history.
// The most recent row by CreatedAt is the current credential; rows are
// never mutated after creation.
type Credential struct {
	ID           string
	AccountID    string
	Hash         string
	Length       int
	HasLowercase bool
	HasUppercase bool
	HasDigit     bool
	HasSymbol    bool
	Score        int
	ChangeReason string
	CreatedAt    time.Time
}

type SessionState int

const (
	SessionStateActive SessionState = iota
	SessionStateExpired
	SessionStateRevoked
)

func (s SessionState) String() string {
	switch s {
	case SessionStateActive:
		return "active"
	case SessionStateExpired:
		return "expired"
	case SessionStateRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

type Session struct {
	ID                string
	AccountID         string
	AccessTokenID     string
	RefreshTokenID    string
	DeviceFingerprint string
	IPAddress         string
	UserAgent         string
	CreatedAt         time.Time
	LastAccessedAt    time.Time
	ExpiresAt         time.Time
	Active            bool
}

// State reports the session's lifecycle state at the given instant.
// Expiry is detected lazily here; the row itself is not rewritten until
// the next use. Both expired and revoked are terminal.
func (s *Session) State(now time.Time) SessionState {
	if !s.Active {
		return SessionStateRevoked
	}
	if !now.Before(s.ExpiresAt) {
		return SessionStateExpired
	}
	return SessionStateActive
}

type LoginAttempt struct {
	ID                string
	Email             string
	AccountID         string
	SessionID         string
	IPAddress         string
	UserAgent         string
	DeviceFingerprint string
	Mechanism         string
	Successful        bool
	FailureReason     string
	Duration          time.Duration
	RiskScore         int
	AttemptTime       time.Time
}

// RevokedToken is one blacklist ledger entry. TokenID is the token's jti
// claim; rows become purgeable once ExpiresAt has passed, since an
// expired token is already rejected by signature/expiry checks alone.
type RevokedToken struct {
	TokenID   string
	AccountID string
	Reason    string
	RevokedAt time.Time
	ExpiresAt time.Time
}

type TrustedDevice struct {
	ID          string
	AccountID   string
	Fingerprint string
	UserAgent   string
	IPAddress   string
	LastSeen    time.Time
	CreatedAt   time.Time
}
