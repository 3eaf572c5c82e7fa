// Package auth issues and verifies the signed, time-limited bearer tokens that
// represent an authenticated user. Tokens are stateless: validity is purely a
// function of signature and expiry, so a token cannot be revoked early.
package auth

import (
	"fmt"
	"maps"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claim names written by the login flow.
const (
	ClaimUserID     = "user_id"
	ClaimEmail      = "email"
	ClaimExpiration = "exp"
)

var symmetricMethods = map[string]jwt.SigningMethod{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

// TokenService signs and verifies tokens with one HMAC secret and algorithm.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService validates the signing configuration up front. Any problem is
// reported as common.ErrConfiguration.
func NewTokenService(secret string, algorithm string, ttl time.Duration, opts ...Option) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: secret key is missing", common.ErrConfiguration)
	}
	method, ok := symmetricMethods[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", common.ErrConfiguration, algorithm)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: token lifetime must be positive", common.ErrConfiguration)
	}

	s := &TokenService{secret: []byte(secret), method: method, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewTokenServiceFromConfig is NewTokenService fed from the server config.
func NewTokenServiceFromConfig(cfg *config.Config, opts ...Option) (*TokenService, error) {
	return NewTokenService(cfg.SecretKey, cfg.SigningAlgorithm, cfg.AccessTokenExpire, opts...)
}

// TTL is the lifetime given to every issued token.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a copy of claims with "exp" set to now + TTL. A caller-supplied
// "exp" is overwritten. The claims map itself is not modified.
func (s *TokenService) Issue(claims map[string]any) (string, error) {
	if s == nil || len(s.secret) == 0 || s.method == nil {
		return "", fmt.Errorf("%w: token service is not configured", common.ErrConfiguration)
	}

	toEncode := make(jwt.MapClaims, len(claims)+1)
	maps.Copy(toEncode, claims)
	toEncode[ClaimExpiration] = s.now().Add(s.ttl).Unix()

	signed, err := jwt.NewWithClaims(s.method, toEncode).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrSigning, err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the embedded claims.
//
// Every failure, whether the token is malformed, expired, signed with another
// key or algorithm, or lacks "exp", yields exactly common.ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (map[string]any, error) {
	if s == nil || len(s.secret) == 0 || s.method == nil {
		return nil, fmt.Errorf("%w: token service is not configured", common.ErrConfiguration)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return map[string]any(claims), nil
}

// UserIDFromClaims returns the non-empty string "user_id" claim.
func UserIDFromClaims(claims map[string]any) (string, bool) {
	id, ok := claims[ClaimUserID].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
