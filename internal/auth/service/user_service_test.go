package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gouthamkasula22/enterprise-auth/config"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/domain"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/dto"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/password"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/ratelimit"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/rbac"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/service"
	autherror "github.com/gouthamkasula22/enterprise-auth/internal/errors"
	"github.com/gouthamkasula22/enterprise-auth/internal/mocks"
	"github.com/gouthamkasula22/enterprise-auth/pkg/constant"
)

const (
	strongPassword  = "Str0ng!Pass"
	anotherPassword = "Wr0ng!Pass99"
)

type userFixture struct {
	repo     *mocks.MockUserRepository
	sessions *mocks.MockSessionRepository
	audits   *mocks.MockAuditRepository
	tokens   *mocks.MockTokenGenerator
	ledger   *mocks.MockBlacklistStore
	hasher   *password.Hasher
	svc      *service.UserService
}

func newUserFixture(t *testing.T) *userFixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &userFixture{
		repo:     mocks.NewMockUserRepository(ctrl),
		sessions: mocks.NewMockSessionRepository(ctrl),
		audits:   mocks.NewMockAuditRepository(ctrl),
		tokens:   mocks.NewMockTokenGenerator(ctrl),
		ledger:   mocks.NewMockBlacklistStore(ctrl),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager := service.NewSessionManager(f.sessions, f.tokens, f.ledger, 5, logger)
	auditor := service.NewLoginAuditor(f.audits, f.sessions, logger)
	// Cheap parameters: correctness only, not resistance.
	f.hasher = password.NewHasher(password.HasherConfig{Time: 1, MemoryKiB: 8 * 1024, Threads: 1, MaxConcurrent: 2})

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	limiter := ratelimit.NewLimiter(store, ratelimit.Config{
		EndpointLimits: map[string]int{
			constant.EndpointLogin:    3,
			constant.EndpointRegister: 2,
		},
	})

	cfg := &config.Config{MaxActiveSessions: 5}
	f.svc = service.NewUserService(f.repo, manager, auditor, f.hasher, limiter, cfg, logger)
	return f
}

func (f *userFixture) hash(t *testing.T, secret string) string {
	t.Helper()
	h, err := f.hasher.Hash(context.Background(), secret)
	require.NoError(t, err)
	return h
}

func (f *userFixture) expectSessionCreate() {
	f.tokens.EXPECT().GeneratePair(gomock.Any()).Return(testPair(), nil)
	f.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.sessions.EXPECT().UpsertTrustedDevice(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.sessions.EXPECT().CountActiveByAccount(gomock.Any(), gomock.Any()).Return(1, nil)
}

// expectRiskLookups stubs the advisory risk signals; the score itself is
// not under test here.
func (f *userFixture) expectRiskLookups(withDeviceLookup bool) {
	if withDeviceLookup {
		f.sessions.EXPECT().IsKnownDevice(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	}
	f.audits.EXPECT().RecentFailures(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	f.audits.EXPECT().ListRecentByEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
}

func (f *userFixture) expectAudit(stored **domain.LoginAttempt) {
	f.audits.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.LoginAttempt) error {
			*stored = a
			return nil
		})
}

func activeAccount() *domain.Account {
	return &domain.Account{
		ID:     "acct-1",
		Email:  "alice@example.com",
		Role:   constant.RoleUser,
		Active: true,
	}
}

func TestRegister_Success(t *testing.T) {
	f := newUserFixture(t)

	var account *domain.Account
	var credential *domain.Credential
	f.repo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").Return(nil, nil)
	f.repo.EXPECT().CreateWithCredential(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *domain.Account, c *domain.Credential) error {
			account = a
			credential = c
			return nil
		})
	f.expectSessionCreate()

	out, err := f.svc.Register(context.Background(), dto.RegisterInput{
		Email:       "  Alice@Example.COM ",
		Password:    strongPassword,
		Fingerprint: "fp-1",
		IPAddress:   "203.0.113.7",
		UserAgent:   "test-agent",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", out.User.Email)
	assert.Equal(t, constant.RoleUser, out.User.Role)
	assert.Equal(t, "access-jwt", out.AccessToken)
	assert.Equal(t, "refresh-jwt", out.RefreshToken)

	require.NotNil(t, account)
	assert.True(t, account.Active)
	require.NotNil(t, credential)
	assert.Equal(t, account.ID, credential.AccountID)
	assert.Equal(t, constant.CredentialReasonRegistration, credential.ChangeReason)
	assert.Contains(t, credential.Hash, "$argon2id$")
	assert.Equal(t, len(strongPassword), credential.Length)
	assert.True(t, credential.HasUppercase)
	assert.True(t, credential.HasSymbol)
	assert.Positive(t, credential.Score)
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Register(context.Background(), dto.RegisterInput{
		Email:    "alice@example.com",
		Password: "password",
	})
	ve, ok := autherror.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "password", ve.Field)
}

func TestRegister_InvalidEmail(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.Register(context.Background(), dto.RegisterInput{
		Email:    "not-an-email",
		Password: strongPassword,
	})
	ve, ok := autherror.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "email", ve.Field)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newUserFixture(t)

	f.repo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").Return(activeAccount(), nil)

	_, err := f.svc.Register(context.Background(), dto.RegisterInput{
		Email:    "alice@example.com",
		Password: strongPassword,
	})
	assert.ErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
}

func TestRegister_StoreFailureIsOpaque(t *testing.T) {
	f := newUserFixture(t)

	f.repo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").Return(nil, assert.AnError)

	_, err := f.svc.Register(context.Background(), dto.RegisterInput{
		Email:    "alice@example.com",
		Password: strongPassword,
	})
	assert.ErrorIs(t, err, autherror.ErrServiceUnavailable)
}

func TestRegister_RateLimited(t *testing.T) {
	f := newUserFixture(t)
	input := dto.RegisterInput{Email: "bad", Password: strongPassword, IPAddress: "203.0.113.7"}

	// The gate runs before validation, so invalid input still consumes
	// window slots.
	for i := 0; i < 2; i++ {
		_, err := f.svc.Register(context.Background(), input)
		_, ok := autherror.AsValidationError(err)
		require.True(t, ok)
	}

	_, err := f.svc.Register(context.Background(), input)
	re, ok := autherror.AsRateLimitError(err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, re.RetryAfter)
}

func TestLogin_Success(t *testing.T) {
	f := newUserFixture(t)
	account := activeAccount()

	f.repo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").Return(account, nil)
	f.repo.EXPECT().GetCurrentCredential(gomock.Any(), "acct-1").Return(&domain.Credential{
		Hash: f.hash(t, strongPassword),
	}, nil)
	f.expectSessionCreate()
	f.expectRiskLookups(true)
	var stored *domain.LoginAttempt
	f.expectAudit(&stored)

	out, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:       "alice@example.com",
		Password:    strongPassword,
		Fingerprint: "fp-1",
		IPAddress:   "203.0.113.7",
		UserAgent:   "test-agent",
	})
	require.NoError(t, err)
	assert.Equal(t, "access-jwt", out.AccessToken)

	require.NotNil(t, stored)
	assert.True(t, stored.Successful)
	assert.Empty(t, stored.FailureReason)
	assert.Equal(t, "acct-1", stored.AccountID)
	assert.NotEmpty(t, stored.SessionID)
	assert.Equal(t, constant.MechanismPassword, stored.Mechanism)
}

func TestLogin_UnknownEmail(t *testing.T) {
	f := newUserFixture(t)

	f.repo.EXPECT().GetByEmail(gomock.Any(), "ghost@example.com").Return(nil, nil)
	f.expectRiskLookups(false)
	var stored *domain.LoginAttempt
	f.expectAudit(&stored)

	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    "ghost@example.com",
		Password: strongPassword,
	})
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)

	require.NotNil(t, stored)
	assert.False(t, stored.Successful)
	assert.Equal(t, "unknown_identity", stored.FailureReason)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newUserFixture(t)
	account := activeAccount()

	f.repo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").Return(account, nil)
	f.repo.EXPECT().GetCurrentCredential(gomock.Any(), "acct-1").Return(&domain.Credential{
		Hash: f.hash(t, strongPassword),
	}, nil)
	f.expectRiskLookups(true)
	var stored *domain.LoginAttempt
	f.expectAudit(&stored)

	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:       "alice@example.com",
		Password:    anotherPassword,
		Fingerprint: "fp-1",
	})
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)

	require.NotNil(t, stored)
	assert.Equal(t, "invalid_password", stored.FailureReason)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	f := newUserFixture(t)
	account := activeAccount()
	account.Active = false

	f.repo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").Return(account, nil)
	f.expectRiskLookups(false)
	var stored *domain.LoginAttempt
	f.expectAudit(&stored)

	// Indistinguishable from a bad password to the caller.
	_, err := f.svc.Login(context.Background(), dto.LoginInput{
		Email:    "alice@example.com",
		Password: strongPassword,
	})
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)

	require.NotNil(t, stored)
	assert.Equal(t, "account_deactivated", stored.FailureReason)
}

func TestLogin_HardLockoutAfterBurst(t *testing.T) {
	f := newUserFixture(t)
	input := dto.LoginInput{Email: "bad", Password: strongPassword, IPAddress: "203.0.113.7"}

	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(context.Background(), input)
		_, ok := autherror.AsValidationError(err)
		require.True(t, ok)
	}

	_, err := f.svc.Login(context.Background(), input)
	re, ok := autherror.AsRateLimitError(err)
	require.True(t, ok)
	assert.Equal(t, time.Minute, re.RetryAfter)
}

func TestRefresh_Success(t *testing.T) {
	f := newUserFixture(t)
	session := activeSession()

	f.tokens.EXPECT().DecodeRefresh("refresh-jwt").Return(accessClaims("refresh-jti"), nil)
	f.ledger.EXPECT().IsRevoked(gomock.Any(), "refresh-jti").Return(false, nil)
	f.sessions.EXPECT().GetByRefreshTokenID(gomock.Any(), "refresh-jti").Return(session, nil)
	f.sessions.EXPECT().Revoke(gomock.Any(), "sess-1").Return(nil)
	f.tokens.EXPECT().GetAccessTokenExpiry().Return(15 * time.Minute)
	f.ledger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.repo.EXPECT().GetByID(gomock.Any(), "acct-1").Return(activeAccount(), nil)
	f.expectSessionCreate()
	f.expectRiskLookups(true)
	var stored *domain.LoginAttempt
	f.expectAudit(&stored)

	out, err := f.svc.Refresh(context.Background(), dto.RefreshInput{
		RefreshToken: "refresh-jwt",
		Fingerprint:  "fp-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "access-jwt", out.AccessToken)
	assert.Equal(t, "refresh-jwt", out.RefreshToken)

	require.NotNil(t, stored)
	assert.True(t, stored.Successful)
	assert.Equal(t, constant.MechanismRefresh, stored.Mechanism)
	assert.Equal(t, "alice@example.com", stored.Email)
}

func TestRefresh_RevokedTokenIsAudited(t *testing.T) {
	f := newUserFixture(t)

	f.tokens.EXPECT().DecodeRefresh("refresh-jwt").Return(accessClaims("refresh-jti"), nil)
	f.ledger.EXPECT().IsRevoked(gomock.Any(), "refresh-jti").Return(true, nil)
	f.expectRiskLookups(false)
	var stored *domain.LoginAttempt
	f.expectAudit(&stored)

	_, err := f.svc.Refresh(context.Background(), dto.RefreshInput{RefreshToken: "refresh-jwt"})
	te, ok := autherror.AsTokenError(err)
	require.True(t, ok)
	assert.Equal(t, autherror.TokenRevoked, te.Kind)

	require.NotNil(t, stored)
	assert.Equal(t, "token_revoked", stored.FailureReason)
}

func TestRefresh_DeactivatedAccountCannotRotate(t *testing.T) {
	f := newUserFixture(t)
	session := activeSession()
	account := activeAccount()
	account.Active = false

	f.tokens.EXPECT().DecodeRefresh("refresh-jwt").Return(accessClaims("refresh-jti"), nil)
	f.ledger.EXPECT().IsRevoked(gomock.Any(), "refresh-jti").Return(false, nil)
	f.sessions.EXPECT().GetByRefreshTokenID(gomock.Any(), "refresh-jti").Return(session, nil)
	f.sessions.EXPECT().Revoke(gomock.Any(), "sess-1").Return(nil)
	f.tokens.EXPECT().GetAccessTokenExpiry().Return(15 * time.Minute)
	f.ledger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.repo.EXPECT().GetByID(gomock.Any(), "acct-1").Return(account, nil)
	f.expectRiskLookups(true)
	var stored *domain.LoginAttempt
	f.expectAudit(&stored)

	_, err := f.svc.Refresh(context.Background(), dto.RefreshInput{
		RefreshToken: "refresh-jwt",
		Fingerprint:  "fp-1",
	})
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)

	require.NotNil(t, stored)
	assert.Equal(t, "account_unavailable", stored.FailureReason)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.Equal(t, "acct-1", stored.AccountID)
}

func TestLogout_Success(t *testing.T) {
	f := newUserFixture(t)
	session := activeSession()

	f.tokens.EXPECT().DecodeAccess("access-jwt").Return(accessClaims("access-jti"), nil)
	f.ledger.EXPECT().IsRevoked(gomock.Any(), "access-jti").Return(false, nil)
	f.sessions.EXPECT().GetByAccessTokenID(gomock.Any(), "access-jti").Return(session, nil)
	f.sessions.EXPECT().Revoke(gomock.Any(), "sess-1").Return(nil)
	f.tokens.EXPECT().GetAccessTokenExpiry().Return(15 * time.Minute)
	f.ledger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	err := f.svc.Logout(context.Background(), "access-jwt")
	require.NoError(t, err)
}

func TestLogout_RevokedTokenPassesThrough(t *testing.T) {
	f := newUserFixture(t)

	f.tokens.EXPECT().DecodeAccess("access-jwt").Return(accessClaims("access-jti"), nil)
	f.ledger.EXPECT().IsRevoked(gomock.Any(), "access-jti").Return(true, nil)

	err := f.svc.Logout(context.Background(), "access-jwt")
	te, ok := autherror.AsTokenError(err)
	require.True(t, ok)
	assert.Equal(t, autherror.TokenRevoked, te.Kind)
}

func TestLogoutAll_ReportsCount(t *testing.T) {
	f := newUserFixture(t)
	first := *activeSession()
	second := *activeSession()
	second.ID = "sess-2"

	f.sessions.EXPECT().ListActiveByAccount(gomock.Any(), "acct-1").Return([]domain.Session{first, second}, nil)
	f.sessions.EXPECT().Revoke(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.tokens.EXPECT().GetAccessTokenExpiry().Return(15 * time.Minute).Times(2)
	f.ledger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil).Times(4)

	count, err := f.svc.LogoutAll(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name         string
		role         string
		requiredRank int
		wantDenied   bool
	}{
		{"user reaches user surface", constant.RoleUser, rbac.RankUser, false},
		{"user denied admin surface", constant.RoleUser, rbac.RankAdmin, true},
		{"admin reaches admin surface", constant.RoleAdmin, rbac.RankAdmin, false},
		{"admin denied superadmin surface", constant.RoleAdmin, rbac.RankSuperadmin, true},
		{"superadmin reaches everything", constant.RoleSuperadmin, rbac.RankSuperadmin, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newUserFixture(t)
			claims := accessClaims("access-jti")
			claims.Role = tc.role

			f.tokens.EXPECT().DecodeAccess("access-jwt").Return(claims, nil)
			f.ledger.EXPECT().IsRevoked(gomock.Any(), "access-jti").Return(false, nil)
			f.sessions.EXPECT().GetByAccessTokenID(gomock.Any(), "access-jti").Return(activeSession(), nil)
			f.sessions.EXPECT().Touch(gomock.Any(), "sess-1", gomock.Any()).Return(nil)

			accountID, err := f.svc.Authorize(context.Background(), "access-jwt", tc.requiredRank)
			if tc.wantDenied {
				ae, ok := autherror.AsAuthorizationError(err)
				require.True(t, ok)
				assert.Equal(t, tc.requiredRank, ae.RequiredRank)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "acct-1", accountID)
			}
		})
	}
}

func TestAuthorize_RevokedToken(t *testing.T) {
	f := newUserFixture(t)

	f.tokens.EXPECT().DecodeAccess("access-jwt").Return(accessClaims("access-jti"), nil)
	f.ledger.EXPECT().IsRevoked(gomock.Any(), "access-jti").Return(true, nil)

	_, err := f.svc.Authorize(context.Background(), "access-jwt", rbac.RankUser)
	te, ok := autherror.AsTokenError(err)
	require.True(t, ok)
	assert.Equal(t, autherror.TokenRevoked, te.Kind)
}

func TestChangePassword_Success(t *testing.T) {
	f := newUserFixture(t)
	currentHash := f.hash(t, strongPassword)

	f.repo.EXPECT().GetByID(gomock.Any(), "acct-1").Return(activeAccount(), nil)
	f.repo.EXPECT().GetCurrentCredential(gomock.Any(), "acct-1").Return(&domain.Credential{Hash: currentHash}, nil)
	f.repo.EXPECT().GetCredentialHistory(gomock.Any(), "acct-1").Return([]domain.Credential{{Hash: currentHash}}, nil)
	var appended *domain.Credential
	f.repo.EXPECT().AppendCredential(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c *domain.Credential) error {
			appended = c
			return nil
		})
	f.sessions.EXPECT().ListActiveByAccount(gomock.Any(), "acct-1").Return(nil, nil)

	err := f.svc.ChangePassword(context.Background(), "acct-1", dto.ChangePasswordInput{
		CurrentPassword: strongPassword,
		NewPassword:     anotherPassword,
	})
	require.NoError(t, err)

	require.NotNil(t, appended)
	assert.Equal(t, constant.CredentialReasonUserChange, appended.ChangeReason)
	assert.Contains(t, appended.Hash, "$argon2id$")
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	f := newUserFixture(t)

	f.repo.EXPECT().GetByID(gomock.Any(), "acct-1").Return(activeAccount(), nil)
	f.repo.EXPECT().GetCurrentCredential(gomock.Any(), "acct-1").Return(&domain.Credential{
		Hash: f.hash(t, strongPassword),
	}, nil)

	err := f.svc.ChangePassword(context.Background(), "acct-1", dto.ChangePasswordInput{
		CurrentPassword: anotherPassword,
		NewPassword:     "N3w!Password1",
	})
	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestChangePassword_ReuseRejected(t *testing.T) {
	f := newUserFixture(t)

	f.repo.EXPECT().GetByID(gomock.Any(), "acct-1").Return(activeAccount(), nil)
	f.repo.EXPECT().GetCurrentCredential(gomock.Any(), "acct-1").Return(&domain.Credential{
		Hash: f.hash(t, strongPassword),
	}, nil)
	// The candidate matches an older history row, not the current hash.
	f.repo.EXPECT().GetCredentialHistory(gomock.Any(), "acct-1").Return([]domain.Credential{
		{Hash: f.hash(t, anotherPassword)},
	}, nil)

	err := f.svc.ChangePassword(context.Background(), "acct-1", dto.ChangePasswordInput{
		CurrentPassword: strongPassword,
		NewPassword:     anotherPassword,
	})
	assert.ErrorIs(t, err, autherror.ErrPasswordReused)
}

func TestUpdateUserRole_NormalizesBeforeWrite(t *testing.T) {
	f := newUserFixture(t)

	f.repo.EXPECT().UpdateRole(gomock.Any(), "acct-1", constant.RoleAdmin).Return(nil)

	err := f.svc.UpdateUserRole(context.Background(), "acct-1", " admin ")
	require.NoError(t, err)
}

func TestUpdateUserRole_UnknownRole(t *testing.T) {
	f := newUserFixture(t)

	err := f.svc.UpdateUserRole(context.Background(), "acct-1", "wizard")
	_, ok := autherror.AsValidationError(err)
	assert.True(t, ok)
}

func TestDeactivateUser_RevokesSessions(t *testing.T) {
	f := newUserFixture(t)

	f.repo.EXPECT().Deactivate(gomock.Any(), "acct-1").Return(nil)
	f.sessions.EXPECT().ListActiveByAccount(gomock.Any(), "acct-1").Return(nil, nil)

	err := f.svc.DeactivateUser(context.Background(), "acct-1")
	require.NoError(t, err)
}

func TestGetAllUsers(t *testing.T) {
	f := newUserFixture(t)

	f.repo.EXPECT().GetAllUsers(gomock.Any()).Return([]domain.Account{*activeAccount()}, nil)

	users, err := f.svc.GetAllUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.com", users[0].Email)
}

func TestGetUserSessions(t *testing.T) {
	f := newUserFixture(t)

	f.sessions.EXPECT().ListActiveByAccount(gomock.Any(), "acct-1").Return([]domain.Session{*activeSession()}, nil)

	sessions, err := f.svc.GetUserSessions(context.Background(), "acct-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "sess-1", sessions[0].ID)
	assert.Equal(t, "fp-1", sessions[0].DeviceFingerprint)
}

func TestValidatePasswordStrength(t *testing.T) {
	f := newUserFixture(t)

	result := f.svc.ValidatePasswordStrength(strongPassword, "alice@example.com")
	assert.True(t, result.Valid)
	assert.Empty(t, result.Unmet)

	result = f.svc.ValidatePasswordStrength("password", "alice@example.com")
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Unmet)
}
