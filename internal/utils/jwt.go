// Package utils holds the token codec and password and random helpers.
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failures.  Every parse error is mapped onto exactly one of
// these so callers never inspect jwt library errors directly.
var (
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrPayloadInvalid   = errors.New("token payload invalid")
)

// SignedToken is a serialized JWT together with its issue and expiry
// instants.  Both times are UTC and truncated to whole seconds, matching
// what is encoded in the iat and exp claims.
type SignedToken struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AccessClaims is the payload of an access token.  The subject is the
// user ID and Role the user's role at sign time.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token.  It carries no role so
// a refresh token can never be presented as an access token.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// CodecConfig configures a TokenCodec.  The two secrets must differ.
type CodecConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenCodec signs and verifies HS256 access and refresh tokens with
// independent secrets.
type TokenCodec struct {
	cfg CodecConfig
	now func() time.Time
}

// NewTokenCodec returns a codec using the wall clock.
func NewTokenCodec(cfg CodecConfig) *TokenCodec {
	return &TokenCodec{cfg: cfg, now: time.Now}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

// AccessTTL is the configured access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration { return c.cfg.AccessTTL }

// RefreshTTL is the configured refresh token lifetime.
func (c *TokenCodec) RefreshTTL() time.Duration { return c.cfg.RefreshTTL }

func (c *TokenCodec) registered(subject string, ttl time.Duration) (jwt.RegisteredClaims, time.Time, time.Time) {
	iat := c.now().UTC().Truncate(time.Second)
	exp := iat.Add(ttl)
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    c.cfg.Issuer,
		Audience:  jwt.ClaimStrings{c.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(exp),
	}, iat, exp
}

// SignAccessToken issues an access token for subject with the given role.
func (c *TokenCodec) SignAccessToken(subject, role string) (SignedToken, error) {
	rc, iat, exp := c.registered(subject, c.cfg.AccessTTL)
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{Role: role, RegisteredClaims: rc}).
		SignedString([]byte(c.cfg.AccessSecret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Value: s, IssuedAt: iat, ExpiresAt: exp}, nil
}

// SignRefreshToken issues a refresh token for subject.
func (c *TokenCodec) SignRefreshToken(subject string) (SignedToken, error) {
	rc, iat, exp := c.registered(subject, c.cfg.RefreshTTL)
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{RegisteredClaims: rc}).
		SignedString([]byte(c.cfg.RefreshSecret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Value: s, IssuedAt: iat, ExpiresAt: exp}, nil
}

// VerifyAccessToken checks signature, expiry, issuer and audience and
// returns the claims.  A token without a subject or with an unknown role
// shape is rejected as ErrPayloadInvalid.
func (c *TokenCodec) VerifyAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(token, claims, c.cfg.AccessSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, ErrPayloadInvalid
	}
	return claims, nil
}

// VerifyRefreshToken checks a refresh token signed with the refresh secret.
func (c *TokenCodec) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(token, claims, c.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrPayloadInvalid
	}
	return claims, nil
}

func (c *TokenCodec) parse(token string, claims jwt.Claims, secret string) error {
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.cfg.Issuer),
		jwt.WithAudience(c.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrPayloadInvalid
	}
}
