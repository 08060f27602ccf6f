package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gouthamkasula22/enterprise-auth/config"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/domain"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/dto"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/password"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/ratelimit"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/rbac"
	autherror "github.com/gouthamkasula22/enterprise-auth/internal/errors"
	"github.com/gouthamkasula22/enterprise-auth/pkg/constant"
)

// UserService orchestrates registration, login, refresh, and logout
// flows. It is the only entry point external callers invoke; expected
// failures come back as typed results, and unexpected store failures are
// logged in full here and surfaced as a single opaque outcome.
type UserService struct {
	repo     domain.UserRepository
	sessions *SessionManager
	auditor  *LoginAuditor
	hasher   *password.Hasher
	limiter  *ratelimit.Limiter
	cfg      *config.Config
	logger   *slog.Logger

	now func() time.Time
}

func NewUserService(
	repo domain.UserRepository,
	sessions *SessionManager,
	auditor *LoginAuditor,
	hasher *password.Hasher,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		repo:     repo,
		sessions: sessions,
		auditor:  auditor,
		hasher:   hasher,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates an account with its first credential history row and
// an initial session.
func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthOutput, error) {
	if err := s.gate(ctx, input.IPAddress, constant.EndpointRegister); err != nil {
		return nil, err
	}

	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	strength := password.Evaluate(input.Password, email)
	if !strength.Valid {
		return nil, autherror.NewValidationError("password", strings.Join(strength.Unmet, ", "))
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.storeFailure("register.get_by_email", err)
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return nil, s.storeFailure("register.hash", err)
	}

	now := s.now()
	account := &domain.Account{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      constant.RoleUser,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	credential := newCredential(account.ID, hash, input.Password, strength.Score, constant.CredentialReasonRegistration, now)

	if err := s.repo.CreateWithCredential(ctx, account, credential); err != nil {
		return nil, s.storeFailure("register.create", err)
	}

	_, pair, err := s.sessions.Create(ctx, account, deviceFrom(input.Fingerprint, input.IPAddress, input.UserAgent))
	if err != nil {
		return nil, s.storeFailure("register.session", err)
	}

	s.logger.Info("account registered", "account_id", account.ID)

	return &dto.AuthOutput{
		User:         toUserOutput(account),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Login verifies the secret and, on success, opens a new per-device
// session. Every attempt is audited before the result is returned; the
// failure message never reveals whether the email exists.
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthOutput, error) {
	if err := s.gate(ctx, input.IPAddress, constant.EndpointLogin); err != nil {
		return nil, err
	}

	start := s.now()
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	attempt := &domain.LoginAttempt{
		Email:             email,
		IPAddress:         input.IPAddress,
		UserAgent:         input.UserAgent,
		DeviceFingerprint: input.Fingerprint,
		Mechanism:         constant.MechanismPassword,
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.audit(ctx, attempt, start, "store_failure")
		return nil, s.storeFailure("login.get_by_email", err)
	}
	if account == nil {
		s.audit(ctx, attempt, start, "unknown_identity")
		return nil, autherror.ErrInvalidCredentials
	}
	attempt.AccountID = account.ID

	if !account.Active {
		s.audit(ctx, attempt, start, "account_deactivated")
		return nil, autherror.ErrInvalidCredentials
	}

	credential, err := s.repo.GetCurrentCredential(ctx, account.ID)
	if err != nil {
		s.audit(ctx, attempt, start, "store_failure")
		return nil, s.storeFailure("login.get_credential", err)
	}

	ok, err := s.hasher.Verify(ctx, credential.Hash, input.Password)
	if err != nil || !ok {
		s.audit(ctx, attempt, start, "invalid_password")
		return nil, autherror.ErrInvalidCredentials
	}

	session, pair, err := s.sessions.Create(ctx, account, deviceFrom(input.Fingerprint, input.IPAddress, input.UserAgent))
	if err != nil {
		s.audit(ctx, attempt, start, "store_failure")
		return nil, s.storeFailure("login.session", err)
	}

	attempt.SessionID = session.ID
	attempt.DeviceFingerprint = session.DeviceFingerprint
	attempt.Successful = true
	s.audit(ctx, attempt, start, "")

	return &dto.AuthOutput{
		User:         toUserOutput(account),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Refresh rotates a refresh token into a fresh pair on a new session.
func (s *UserService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	if err := s.gate(ctx, input.IPAddress, constant.EndpointRefresh); err != nil {
		return nil, err
	}

	start := s.now()
	device := deviceFrom(input.Fingerprint, input.IPAddress, input.UserAgent)

	attempt := &domain.LoginAttempt{
		IPAddress:         input.IPAddress,
		UserAgent:         input.UserAgent,
		DeviceFingerprint: input.Fingerprint,
		Mechanism:         constant.MechanismRefresh,
	}

	old, err := s.sessions.Rotate(ctx, input.RefreshToken, device)
	if err != nil {
		if te, ok := autherror.AsTokenError(err); ok {
			s.logger.Info("refresh rejected", "kind", te.Kind.String())
			s.audit(ctx, attempt, start, "token_"+te.Kind.String())
			return nil, err
		}
		if se, ok := autherror.AsSessionError(err); ok {
			s.audit(ctx, attempt, start, "session_"+se.Kind.String())
			return nil, err
		}
		s.audit(ctx, attempt, start, "store_failure")
		return nil, s.storeFailure("refresh.rotate", err)
	}

	account, err := s.repo.GetByID(ctx, old.AccountID)
	if err != nil {
		s.audit(ctx, attempt, start, "store_failure")
		return nil, s.storeFailure("refresh.get_account", err)
	}
	if account != nil {
		attempt.Email = account.Email
		attempt.AccountID = account.ID
	}
	if account == nil || !account.Active {
		s.audit(ctx, attempt, start, "account_unavailable")
		return nil, autherror.ErrInvalidCredentials
	}

	session, pair, err := s.sessions.Create(ctx, account, device)
	if err != nil {
		s.audit(ctx, attempt, start, "store_failure")
		return nil, s.storeFailure("refresh.session", err)
	}

	attempt.SessionID = session.ID
	attempt.Successful = true
	s.audit(ctx, attempt, start, "")

	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout revokes the session behind the presented access token.
func (s *UserService) Logout(ctx context.Context, accessToken string) error {
	if err := s.sessions.Logout(ctx, accessToken); err != nil {
		if _, ok := autherror.AsTokenError(err); ok {
			return err
		}
		if _, ok := autherror.AsSessionError(err); ok {
			return err
		}
		return s.storeFailure("logout", err)
	}
	return nil
}

// LogoutAll revokes every active session for the account and reports how
// many were revoked.
func (s *UserService) LogoutAll(ctx context.Context, accountID string) (int, error) {
	count, err := s.sessions.RevokeAll(ctx, accountID, "logout_all")
	if err != nil {
		return count, s.storeFailure("logout_all", err)
	}
	return count, nil
}

// ValidatePasswordStrength is side-effect free and usable before
// submission.
func (s *UserService) ValidatePasswordStrength(candidate, email string) password.StrengthResult {
	return password.Evaluate(candidate, email)
}

// Authorize verifies the access token end-to-end (signature, expiry,
// revocation, session state) and checks the embedded role against the
// required rank. Returns the account id on success.
func (s *UserService) Authorize(ctx context.Context, accessToken string, requiredRank int) (string, error) {
	claims, err := s.sessions.ValidateAccess(ctx, accessToken)
	if err != nil {
		if te, ok := autherror.AsTokenError(err); ok {
			s.logger.Info("access token rejected", "kind", te.Kind.String())
			return "", err
		}
		if _, ok := autherror.AsSessionError(err); ok {
			return "", err
		}
		return "", s.storeFailure("authorize", err)
	}

	if err := rbac.Authorize(claims.Role, requiredRank); err != nil {
		return "", err
	}
	return claims.AccountID, nil
}

// ChangePassword appends a credential history row and logs the account
// out everywhere. Reuse of any previous password is rejected.
func (s *UserService) ChangePassword(ctx context.Context, accountID string, input dto.ChangePasswordInput) error {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return s.storeFailure("change_password.get_account", err)
	}
	if account == nil || !account.Active {
		return autherror.ErrInvalidCredentials
	}

	current, err := s.repo.GetCurrentCredential(ctx, accountID)
	if err != nil {
		return s.storeFailure("change_password.get_credential", err)
	}
	ok, err := s.hasher.Verify(ctx, current.Hash, input.CurrentPassword)
	if err != nil || !ok {
		return autherror.ErrInvalidCredentials
	}

	strength := password.Evaluate(input.NewPassword, account.Email)
	if !strength.Valid {
		return autherror.NewValidationError("password", strings.Join(strength.Unmet, ", "))
	}

	history, err := s.repo.GetCredentialHistory(ctx, accountID)
	if err != nil {
		return s.storeFailure("change_password.history", err)
	}
	for i := range history {
		reused, err := s.hasher.Verify(ctx, history[i].Hash, input.NewPassword)
		if err == nil && reused {
			return autherror.ErrPasswordReused
		}
	}

	hash, err := s.hasher.Hash(ctx, input.NewPassword)
	if err != nil {
		return s.storeFailure("change_password.hash", err)
	}

	credential := newCredential(accountID, hash, input.NewPassword, strength.Score, constant.CredentialReasonUserChange, s.now())
	if err := s.repo.AppendCredential(ctx, credential); err != nil {
		return s.storeFailure("change_password.append", err)
	}

	if _, err := s.sessions.RevokeAll(ctx, accountID, "password_change"); err != nil {
		s.logger.Error("failed to revoke sessions after password change", "account_id", accountID, "error", err)
	}

	s.logger.Info("password changed", "account_id", accountID)
	return nil
}

// GetAllUsers lists accounts for the admin surface.
func (s *UserService) GetAllUsers(ctx context.Context) ([]dto.UserOutput, error) {
	accounts, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		return nil, s.storeFailure("get_all_users", err)
	}
	out := make([]dto.UserOutput, 0, len(accounts))
	for i := range accounts {
		out = append(out, toUserOutput(&accounts[i]))
	}
	return out, nil
}

// UpdateUserRole normalizes the requested role at this single write path
// and persists it.
func (s *UserService) UpdateUserRole(ctx context.Context, accountID, role string) error {
	canonical, err := rbac.Normalize(role)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateRole(ctx, accountID, canonical); err != nil {
		return s.storeFailure("update_role", err)
	}
	s.logger.Info("role updated", "account_id", accountID, "role", canonical)
	return nil
}

// DeactivateUser disables the account and revokes its sessions; accounts
// are never deleted.
func (s *UserService) DeactivateUser(ctx context.Context, accountID string) error {
	if err := s.repo.Deactivate(ctx, accountID); err != nil {
		return s.storeFailure("deactivate", err)
	}
	if _, err := s.sessions.RevokeAll(ctx, accountID, "account_deactivated"); err != nil {
		return s.storeFailure("deactivate.revoke_all", err)
	}
	return nil
}

// GetUserSessions lists the account's active sessions for the admin
// surface.
func (s *UserService) GetUserSessions(ctx context.Context, accountID string) ([]dto.SessionOutput, error) {
	sessions, err := s.sessions.ListActive(ctx, accountID)
	if err != nil {
		return nil, s.storeFailure("get_user_sessions", err)
	}
	out := make([]dto.SessionOutput, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		out = append(out, dto.SessionOutput{
			ID:                sess.ID,
			DeviceFingerprint: sess.DeviceFingerprint,
			IPAddress:         sess.IPAddress,
			UserAgent:         sess.UserAgent,
			CreatedAt:         sess.CreatedAt,
			LastAccessedAt:    sess.LastAccessedAt,
			ExpiresAt:         sess.ExpiresAt,
		})
	}
	return out, nil
}

// gate applies the per-endpoint rate limit. Store failures deny the
// request: cannot check means cannot serve.
func (s *UserService) gate(ctx context.Context, clientID, endpoint string) error {
	err := s.limiter.Check(ctx, clientID, endpoint)
	if err == nil {
		return nil
	}
	if _, ok := autherror.AsRateLimitError(err); ok {
		return err
	}
	return s.storeFailure("rate_limit."+endpoint, err)
}

// audit writes the attempt before the caller returns. Audit failures are
// logged loudly but do not change the caller's outcome.
func (s *UserService) audit(ctx context.Context, attempt *domain.LoginAttempt, start time.Time, failureReason string) {
	attempt.FailureReason = failureReason
	attempt.Duration = s.now().Sub(start)
	if err := s.auditor.Record(ctx, attempt); err != nil {
		s.logger.Error("failed to record login attempt", "email", attempt.Email, "error", err)
	}
}

func (s *UserService) storeFailure(op string, err error) error {
	s.logger.Error("unexpected store failure", "op", op, "error", err)
	return autherror.ErrServiceUnavailable
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at+1:], ".") {
		return "", autherror.NewValidationError("email", "must be a valid email address")
	}
	return email, nil
}

func newCredential(accountID, hash, plaintext string, score int, reason string, at time.Time) *domain.Credential {
	flags := password.Classes(plaintext)
	return &domain.Credential{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		Hash:         hash,
		Length:       len(plaintext),
		HasLowercase: flags.Lowercase,
		HasUppercase: flags.Uppercase,
		HasDigit:     flags.Digit,
		HasSymbol:    flags.Symbol,
		Score:        score,
		ChangeReason: reason,
		CreatedAt:    at,
	}
}

func deviceFrom(fingerprint, ip, userAgent string) DeviceInfo {
	return DeviceInfo{Fingerprint: fingerprint, IPAddress: ip, UserAgent: userAgent}
}

func toUserOutput(account *domain.Account) dto.UserOutput {
	return dto.UserOutput{
		ID:        account.ID,
		Email:     account.Email,
		Role:      account.Role,
		Active:    account.Active,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}
