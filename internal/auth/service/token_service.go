package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/gouthamkasula22/enterprise-auth/internal/auth/service TokenGenerator

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/domain"
	autherror "github.com/gouthamkasula22/enterprise-auth/internal/errors"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// JWTCustomClaims carries identity plus the token type; the jti claim is
// the handle the revocation ledger is keyed on.
type JWTCustomClaims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
}

// TokenPair is one freshly issued access+refresh pair with the metadata
// sessions persist.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessTokenID    string
	RefreshTokenID   string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenGenerator is the purely cryptographic token capability: no
// database access, no synchronization needed.
type TokenGenerator interface {
	GeneratePair(account *domain.Account) (*TokenPair, error)
	DecodeAccess(tokenString string) (*JWTCustomClaims, error)
	DecodeRefresh(tokenString string) (*JWTCustomClaims, error)
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type TokenService struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string

	now func() time.Time
}

func NewTokenService(accessSecret, refreshSecret string, accessMinutes, refreshMinutes int, issuer string) *TokenService {
	return &TokenService{
		AccessTokenSecret:  accessSecret,
		RefreshTokenSecret: refreshSecret,
		AccessTokenExpiry:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenExpiry: time.Duration(refreshMinutes) * time.Minute,
		Issuer:             issuer,
		now:                time.Now,
	}
}

// GeneratePair issues a signed access and refresh token for the account,
// each with its own jti.
func (ts *TokenService) GeneratePair(account *domain.Account) (*TokenPair, error) {
	now := ts.now()
	pair := &TokenPair{
		AccessTokenID:    uuid.NewString(),
		RefreshTokenID:   uuid.NewString(),
		AccessExpiresAt:  now.Add(ts.AccessTokenExpiry),
		RefreshExpiresAt: now.Add(ts.RefreshTokenExpiry),
	}

	accessClaims := JWTCustomClaims{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        pair.AccessTokenID,
			Subject:   account.ID,
			Issuer:    ts.Issuer,
			ExpiresAt: jwt.NewNumericDate(pair.AccessExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	refreshClaims := JWTCustomClaims{
		AccountID: account.ID,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        pair.RefreshTokenID,
			Subject:   account.ID,
			Issuer:    ts.Issuer,
			ExpiresAt: jwt.NewNumericDate(pair.RefreshExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(ts.AccessTokenSecret))
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		refreshClaims).SignedString([]byte(ts.RefreshTokenSecret))
	if err != nil {
		return nil, err
	}

	pair.AccessToken = accessToken
	pair.RefreshToken = refreshToken

	return pair, nil
}

// DecodeAccess verifies an access token and returns its claims or a
// typed TokenError. The kind is for internal logging only; callers show
// unauthenticated clients a single generic message.
func (ts *TokenService) DecodeAccess(tokenString string) (*JWTCustomClaims, error) {
	return ts.decode(tokenString, ts.AccessTokenSecret, TokenTypeAccess)
}

// DecodeRefresh verifies a refresh token and returns its claims or a
// typed TokenError.
func (ts *TokenService) DecodeRefresh(tokenString string) (*JWTCustomClaims, error) {
	return ts.decode(tokenString, ts.RefreshTokenSecret, TokenTypeRefresh)
}

func (ts *TokenService) decode(tokenString, secret, wantType string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, autherror.NewTokenError(autherror.TokenSignatureInvalid)
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(ts.now))

	if err != nil {
		return nil, classifyJWTError(err)
	}
	if !token.Valid {
		return nil, autherror.NewTokenError(autherror.TokenMalformed)
	}
	if claims.TokenType != wantType {
		return nil, autherror.NewTokenError(autherror.TokenWrongType)
	}

	return claims, nil
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return autherror.NewTokenError(autherror.TokenExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return autherror.NewTokenError(autherror.TokenSignatureInvalid)
	default:
		return autherror.NewTokenError(autherror.TokenMalformed)
	}
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.AccessTokenExpiry
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenExpiry
}
