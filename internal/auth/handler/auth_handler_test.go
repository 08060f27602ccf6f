package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gouthamkasula22/enterprise-auth/config"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/domain"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/dto"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/handler"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/password"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/ratelimit"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/service"
	"github.com/gouthamkasula22/enterprise-auth/internal/mocks"
	"github.com/gouthamkasula22/enterprise-auth/pkg/constant"
)

const strongPassword = "Str0ng!Pass"

type handlerFixture struct {
	repo     *mocks.MockUserRepository
	sessions *mocks.MockSessionRepository
	audits   *mocks.MockAuditRepository
	tokens   *mocks.MockTokenGenerator
	ledger   *mocks.MockBlacklistStore
	app      *fiber.App
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &handlerFixture{
		repo:     mocks.NewMockUserRepository(ctrl),
		sessions: mocks.NewMockSessionRepository(ctrl),
		audits:   mocks.NewMockAuditRepository(ctrl),
		tokens:   mocks.NewMockTokenGenerator(ctrl),
		ledger:   mocks.NewMockBlacklistStore(ctrl),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager := service.NewSessionManager(f.sessions, f.tokens, f.ledger, 5, logger)
	auditor := service.NewLoginAuditor(f.audits, f.sessions, logger)
	hasher := password.NewHasher(password.HasherConfig{Time: 1, MemoryKiB: 8 * 1024, Threads: 1, MaxConcurrent: 2})

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	limiter := ratelimit.NewLimiter(store, ratelimit.Config{
		EndpointLimits: map[string]int{
			constant.EndpointLogin:    2,
			constant.EndpointRegister: 5,
		},
	})

	cfg := &config.Config{MaxActiveSessions: 5}
	userService := service.NewUserService(f.repo, manager, auditor, hasher, limiter, cfg, logger)

	f.app = fiber.New()
	handler.RegisterRoutes(f.app, handler.NewAuthHandler(userService))
	return f
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func testPair() *service.TokenPair {
	now := time.Now()
	return &service.TokenPair{
		AccessToken:      "access-jwt",
		RefreshToken:     "refresh-jwt",
		AccessTokenID:    "access-jti",
		RefreshTokenID:   "refresh-jti",
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func activeSession() *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID: "sess-1", AccountID: "acct-1", AccessTokenID: "access-jti", RefreshTokenID: "refresh-jti",
		DeviceFingerprint: "fp-1", CreatedAt: now, LastAccessedAt: now,
		ExpiresAt: now.Add(24 * time.Hour), Active: true,
	}
}

func claimsWithRole(role string) *service.JWTCustomClaims {
	c := &service.JWTCustomClaims{
		AccountID: "acct-1",
		Email:     "alice@example.com",
		Role:      role,
		TokenType: service.TokenTypeAccess,
	}
	c.ID = "access-jti"
	return c
}

func (f *handlerFixture) expectSessionCreate() {
	f.tokens.EXPECT().GeneratePair(gomock.Any()).Return(testPair(), nil)
	f.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.sessions.EXPECT().UpsertTrustedDevice(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.sessions.EXPECT().CountActiveByAccount(gomock.Any(), gomock.Any()).Return(1, nil)
}

func (f *handlerFixture) expectAuthorized(role string) {
	f.tokens.EXPECT().DecodeAccess("access-jwt").Return(claimsWithRole(role), nil)
	f.ledger.EXPECT().IsRevoked(gomock.Any(), "access-jti").Return(false, nil)
	f.sessions.EXPECT().GetByAccessTokenID(gomock.Any(), "access-jti").Return(activeSession(), nil)
	f.sessions.EXPECT().Touch(gomock.Any(), "sess-1", gomock.Any()).Return(nil)
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.repo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").Return(nil, nil)
		f.repo.EXPECT().CreateWithCredential(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.expectSessionCreate()

		resp, err := f.app.Test(jsonRequest(t, "POST", "/api/v1/register", dto.RegisterInput{
			Email:    "alice@example.com",
			Password: strongPassword,
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "access-jwt", body["access_token"])
		assert.Equal(t, "refresh-jwt", body["refresh_token"])
	})

	t.Run("bad body", func(t *testing.T) {
		f := newHandlerFixture(t)

		req := httptest.NewRequest("POST", "/api/v1/register", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.repo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").Return(&domain.Account{ID: "acct-1"}, nil)

		resp, err := f.app.Test(jsonRequest(t, "POST", "/api/v1/register", dto.RegisterInput{
			Email:    "alice@example.com",
			Password: strongPassword,
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("weak password rejected with reasons", func(t *testing.T) {
		f := newHandlerFixture(t)

		resp, err := f.app.Test(jsonRequest(t, "POST", "/api/v1/register", dto.RegisterInput{
			Email:    "alice@example.com",
			Password: "password",
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Contains(t, body["error"], "password")
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("unknown identity gets the generic message", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.repo.EXPECT().GetByEmail(gomock.Any(), "ghost@example.com").Return(nil, nil)
		f.audits.EXPECT().RecentFailures(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
		f.audits.EXPECT().ListRecentByEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
		f.audits.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).Return(nil)

		resp, err := f.app.Test(jsonRequest(t, "POST", "/api/v1/login", dto.LoginInput{
			Email:    "ghost@example.com",
			Password: strongPassword,
		}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "invalid credentials", body["error"])
	})

	t.Run("lockout carries retry-after", func(t *testing.T) {
		f := newHandlerFixture(t)
		input := dto.LoginInput{Email: "bad", Password: strongPassword}

		for i := 0; i < 2; i++ {
			resp, err := f.app.Test(jsonRequest(t, "POST", "/api/v1/login", input))
			require.NoError(t, err)
			require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		}

		resp, err := f.app.Test(jsonRequest(t, "POST", "/api/v1/login", input))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
		assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))
	})
}

func TestRefreshEndpoint_RevokedToken(t *testing.T) {
	f := newHandlerFixture(t)

	f.tokens.EXPECT().DecodeRefresh("refresh-jwt").Return(claimsWithRole("USER"), nil)
	f.ledger.EXPECT().IsRevoked(gomock.Any(), "access-jti").Return(true, nil)
	f.audits.EXPECT().RecentFailures(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	f.audits.EXPECT().ListRecentByEmail(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	f.audits.EXPECT().RecordAttempt(gomock.Any(), gomock.Any()).Return(nil)

	resp, err := f.app.Test(jsonRequest(t, "POST", "/api/v1/refresh", dto.RefreshInput{
		RefreshToken: "refresh-jwt",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutEndpoint(t *testing.T) {
	t.Run("missing bearer token", func(t *testing.T) {
		f := newHandlerFixture(t)

		resp, err := f.app.Test(httptest.NewRequest("DELETE", "/api/v1/session", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("revokes the session", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.tokens.EXPECT().DecodeAccess("access-jwt").Return(claimsWithRole("USER"), nil)
		f.ledger.EXPECT().IsRevoked(gomock.Any(), "access-jti").Return(false, nil)
		f.sessions.EXPECT().GetByAccessTokenID(gomock.Any(), "access-jti").Return(activeSession(), nil)
		f.sessions.EXPECT().Revoke(gomock.Any(), "sess-1").Return(nil)
		f.tokens.EXPECT().GetAccessTokenExpiry().Return(15 * time.Minute)
		f.ledger.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil).Times(2)

		req := httptest.NewRequest("DELETE", "/api/v1/session", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer access-jwt")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	})
}

func TestPasswordStrengthEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	resp, err := f.app.Test(jsonRequest(t, "POST", "/api/v1/password/strength", dto.PasswordStrengthInput{
		Password: strongPassword,
		Email:    "alice@example.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["valid"])
}

func TestAdminEndpoints(t *testing.T) {
	t.Run("user role is forbidden", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.expectAuthorized("USER")

		req := httptest.NewRequest("GET", "/api/v1/admin/users", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer access-jwt")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin lists users", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.expectAuthorized("ADMIN")
		f.repo.EXPECT().GetAllUsers(gomock.Any()).Return([]domain.Account{
			{ID: "acct-1", Email: "alice@example.com", Role: "USER", Active: true},
		}, nil)

		req := httptest.NewRequest("GET", "/api/v1/admin/users", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer access-jwt")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("admin updates a role", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.expectAuthorized("ADMIN")
		f.repo.EXPECT().UpdateRole(gomock.Any(), "acct-2", "ADMIN").Return(nil)

		req := jsonRequest(t, "PATCH", "/api/v1/admin/user/acct-2/role", dto.UpdateRoleInput{Role: "admin"})
		req.Header.Set(fiber.HeaderAuthorization, "Bearer access-jwt")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	})

	t.Run("admin force-logs-out an account", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.expectAuthorized("ADMIN")
		f.sessions.EXPECT().ListActiveByAccount(gomock.Any(), "acct-2").Return(nil, nil)

		req := httptest.NewRequest("DELETE", "/api/v1/admin/user/acct-2/sessions", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer access-jwt")

		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
