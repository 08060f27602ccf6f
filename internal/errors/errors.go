package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailAlreadyInUse    = errors.New("email already in use")
	ErrAccountDeactivated   = errors.New("account deactivated")
	ErrServiceUnavailable   = errors.New("service unavailable")
	ErrPasswordReused       = errors.New("password was used previously")
	ErrTooManyLoginAttempts = errors.New("too many failed login attempts")
)

// TokenErrorKind distinguishes token failures for internal logging. All
// kinds collapse to ErrInvalidCredentials at the external boundary.
type TokenErrorKind int

const (
	TokenMalformed TokenErrorKind = iota
	TokenSignatureInvalid
	TokenExpired
	TokenRevoked
	TokenWrongType
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenMalformed:
		return "malformed"
	case TokenSignatureInvalid:
		return "signature_invalid"
	case TokenExpired:
		return "expired"
	case TokenRevoked:
		return "revoked"
	case TokenWrongType:
		return "wrong_type"
	default:
		return "unknown"
	}
}

// TokenError carries the internal failure kind for a rejected token.
type TokenError struct {
	Kind TokenErrorKind
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token %s", e.Kind)
}

// External returns the single message safe to show unauthenticated
// callers, regardless of which check failed.
func (e *TokenError) External() error { return ErrInvalidCredentials }

func NewTokenError(kind TokenErrorKind) *TokenError {
	return &TokenError{Kind: kind}
}

// AsTokenError unwraps err into a *TokenError if it is one.
func AsTokenError(err error) (*TokenError, bool) {
	var te *TokenError
	ok := errors.As(err, &te)
	return te, ok
}

// SessionErrorKind distinguishes session failures.
type SessionErrorKind int

const (
	SessionNotFound SessionErrorKind = iota
	SessionExpired
	SessionRevoked
	SessionDeviceMismatch
)

func (k SessionErrorKind) String() string {
	switch k {
	case SessionNotFound:
		return "not_found"
	case SessionExpired:
		return "expired"
	case SessionRevoked:
		return "revoked"
	case SessionDeviceMismatch:
		return "device_mismatch"
	default:
		return "unknown"
	}
}

type SessionError struct {
	Kind SessionErrorKind
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s", e.Kind)
}

func NewSessionError(kind SessionErrorKind) *SessionError {
	return &SessionError{Kind: kind}
}

func AsSessionError(err error) (*SessionError, bool) {
	var se *SessionError
	ok := errors.As(err, &se)
	return se, ok
}

// ValidationError reports out-of-policy input. Its details are safe to
// return to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// AuthorizationError reports an insufficient role. Required and actual
// ranks are safe to state.
type AuthorizationError struct {
	RequiredRank int
	ActualRank   int
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization failed: required rank %d, have %d", e.RequiredRank, e.ActualRank)
}

func AsAuthorizationError(err error) (*AuthorizationError, bool) {
	var ae *AuthorizationError
	ok := errors.As(err, &ae)
	return ae, ok
}

// RateLimitError carries the duration the client must wait before the
// cool-down lifts.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func AsRateLimitError(err error) (*RateLimitError, bool) {
	var re *RateLimitError
	ok := errors.As(err, &re)
	return re, ok
}
