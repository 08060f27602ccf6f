package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/domain"
)

// Risk weights. The score is advisory: it is recorded on the attempt,
// never used as a gate here. Step-up policy belongs to callers.
const (
	riskWeightUnseenDevice = 30
	riskWeightFailureRate  = 25
	riskWeightUnusualHour  = 20
	riskWeightGeoMismatch  = 25
	riskFailureLookback    = 15 * time.Minute
	riskFailureThreshold   = 3
	riskHistorySample      = 20
	riskUsualHourStart     = 6
	riskUsualHourEnd       = 23
)

// LoginAuditor durably records every authentication attempt, success or
// failure, with a computed risk score.
type LoginAuditor struct {
	audits   domain.AuditRepository
	sessions domain.SessionRepository
	logger   *slog.Logger

	now func() time.Time
}

func NewLoginAuditor(audits domain.AuditRepository, sessions domain.SessionRepository, logger *slog.Logger) *LoginAuditor {
	return &LoginAuditor{
		audits:   audits,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Record scores and persists one attempt. The write happens before the
// caller returns its result, so the audit trail cannot be skipped by an
// early return. Scoring failures degrade to a partial score, never block
// the write.
func (a *LoginAuditor) Record(ctx context.Context, attempt *domain.LoginAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.AttemptTime.IsZero() {
		attempt.AttemptTime = a.now()
	}
	attempt.RiskScore = a.ComputeRisk(ctx, attempt)

	return a.audits.RecordAttempt(ctx, attempt)
}

// ComputeRisk combines four advisory signals: unseen device for this
// account, recent failure rate for identity or origin, access outside
// typical hours, and an origin network that matches no prior session.
func (a *LoginAuditor) ComputeRisk(ctx context.Context, attempt *domain.LoginAttempt) int {
	score := 0

	if a.unseenDevice(ctx, attempt) {
		score += riskWeightUnseenDevice
	}

	failures, err := a.audits.RecentFailures(ctx, attempt.Email, attempt.IPAddress, a.now().Add(-riskFailureLookback))
	if err != nil {
		a.logger.Warn("risk: failure-rate lookup failed", "email", attempt.Email, "error", err)
	} else if failures >= riskFailureThreshold {
		score += riskWeightFailureRate
	}

	hour := attempt.AttemptTime.UTC().Hour()
	if hour < riskUsualHourStart || hour >= riskUsualHourEnd {
		score += riskWeightUnusualHour
	}

	if a.geoMismatch(ctx, attempt) {
		score += riskWeightGeoMismatch
	}

	if score > 100 {
		score = 100
	}
	return score
}

// unseenDevice treats missing account history or a missing fingerprint
// as unseen: there is nothing to vouch for the device.
func (a *LoginAuditor) unseenDevice(ctx context.Context, attempt *domain.LoginAttempt) bool {
	if attempt.AccountID == "" || attempt.DeviceFingerprint == "" {
		return true
	}
	known, err := a.sessions.IsKnownDevice(ctx, attempt.AccountID, attempt.DeviceFingerprint)
	if err != nil {
		a.logger.Warn("risk: device lookup failed", "email", attempt.Email, "error", err)
		return false
	}
	return !known
}

// geoMismatch approximates geography by network prefix: the attempt is
// anomalous when no recent successful attempt for this identity shares
// its /16.
func (a *LoginAuditor) geoMismatch(ctx context.Context, attempt *domain.LoginAttempt) bool {
	history, err := a.audits.ListRecentByEmail(ctx, attempt.Email, riskHistorySample)
	if err != nil {
		a.logger.Warn("risk: history lookup failed", "email", attempt.Email, "error", err)
		return false
	}

	sawSuccess := false
	prefix := networkPrefix(attempt.IPAddress)
	for i := range history {
		if !history[i].Successful {
			continue
		}
		sawSuccess = true
		if networkPrefix(history[i].IPAddress) == prefix {
			return false
		}
	}
	// First-ever login has no geography to contradict.
	return sawSuccess
}

func networkPrefix(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return ip
	}
	return parts[0] + "." + parts[1]
}
