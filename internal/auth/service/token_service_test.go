package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gouthamkasula22/enterprise-auth/internal/auth/domain"
	autherror "github.com/gouthamkasula22/enterprise-auth/internal/errors"
	"github.com/gouthamkasula22/enterprise-auth/pkg/constant"
)

func newTestTokenService() *TokenService {
	return NewTokenService("access-secret", "refresh-secret", 15, 10080, "enterprise-auth")
}

func testAccount() *domain.Account {
	return &domain.Account{
		ID:     "acct-1",
		Email:  "alice@example.com",
		Role:   constant.RoleUser,
		Active: true,
	}
}

func TestGeneratePair(t *testing.T) {
	ts := newTestTokenService()

	pair, err := ts.GeneratePair(testAccount())
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessTokenID, pair.RefreshTokenID)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := ts.DecodeAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", claims.AccountID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, constant.RoleUser, claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, pair.AccessTokenID, claims.ID)
	assert.Equal(t, "enterprise-auth", claims.Issuer)
}

func TestDecodeRefresh_CarriesAccountOnly(t *testing.T) {
	ts := newTestTokenService()

	pair, err := ts.GeneratePair(testAccount())
	require.NoError(t, err)

	claims, err := ts.DecodeRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", claims.AccountID)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Role)
	assert.Equal(t, pair.RefreshTokenID, claims.ID)
}

func TestDecodeAccess_Expired(t *testing.T) {
	ts := newTestTokenService()
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return issued }

	pair, err := ts.GeneratePair(testAccount())
	require.NoError(t, err)

	// Within the 15 minute lifetime the token still verifies.
	ts.now = func() time.Time { return issued.Add(14 * time.Minute) }
	_, err = ts.DecodeAccess(pair.AccessToken)
	require.NoError(t, err)

	ts.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = ts.DecodeAccess(pair.AccessToken)
	te, ok := autherror.AsTokenError(err)
	require.True(t, ok)
	assert.Equal(t, autherror.TokenExpired, te.Kind)
}

func TestDecodeAccess_SignatureInvalid(t *testing.T) {
	ts := newTestTokenService()
	pair, err := ts.GeneratePair(testAccount())
	require.NoError(t, err)

	other := NewTokenService("different-secret", "refresh-secret", 15, 10080, "enterprise-auth")
	_, err = other.DecodeAccess(pair.AccessToken)
	te, ok := autherror.AsTokenError(err)
	require.True(t, ok)
	assert.Equal(t, autherror.TokenSignatureInvalid, te.Kind)
}

func TestDecodeAccess_Malformed(t *testing.T) {
	ts := newTestTokenService()

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := ts.DecodeAccess(raw)
		te, ok := autherror.AsTokenError(err)
		require.True(t, ok, "input %q", raw)
		assert.Equal(t, autherror.TokenMalformed, te.Kind)
	}
}

func TestDecode_WrongTokenType(t *testing.T) {
	// Same secret for both types so the signature verifies and only the
	// embedded token_type claim can reject it.
	ts := NewTokenService("shared-secret", "shared-secret", 15, 10080, "enterprise-auth")
	pair, err := ts.GeneratePair(testAccount())
	require.NoError(t, err)

	_, err = ts.DecodeAccess(pair.RefreshToken)
	te, ok := autherror.AsTokenError(err)
	require.True(t, ok)
	assert.Equal(t, autherror.TokenWrongType, te.Kind)

	_, err = ts.DecodeRefresh(pair.AccessToken)
	te, ok = autherror.AsTokenError(err)
	require.True(t, ok)
	assert.Equal(t, autherror.TokenWrongType, te.Kind)
}

func TestTokenError_ExternalMessageIsGeneric(t *testing.T) {
	ts := newTestTokenService()

	_, err := ts.DecodeAccess("garbage")
	te, ok := autherror.AsTokenError(err)
	require.True(t, ok)
	assert.Equal(t, autherror.ErrInvalidCredentials, te.External())
}

func TestGetExpiries(t *testing.T) {
	ts := newTestTokenService()

	assert.Equal(t, 15*time.Minute, ts.GetAccessTokenExpiry())
	assert.Equal(t, 10080*time.Minute, ts.GetRefreshTokenExpiry())
}
