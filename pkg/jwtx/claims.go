// Package jwtx signs and verifies the access tokens exchanged between our
// services. It wraps golang-jwt with a fixed claims shape, multi-key
// management and JWKS publishing so individual services never touch raw key
// material handling themselves.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes for services that do not configure their own.
const (
	// DefaultAccessTokenTTL keeps access tokens short-lived.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL bounds how long a refresh credential stays
	// usable without a fresh login.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Authentication Method Reference values (RFC 8176) carried in the "amr"
// claim, one entry per factor the user presented.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
	AMRMFA      = "mfa"
)

// Claim validation errors. Verifiers return these unwrapped so callers can
// branch with errors.Is.
var (
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// Claims is the access-token payload shared by everything that signs or
// verifies our tokens. Changes must stay additive: renaming or removing a
// field breaks tokens already in flight.
type Claims struct {
	jwt.RegisteredClaims

	// SID identifies the session the token was minted for.
	SID string `json:"sid,omitempty"`

	// Scopes lists the permissions granted to the token,
	// e.g. "family:read" or "family:write".
	Scopes []string `json:"scopes,omitempty"`

	// AMR records how the user authenticated ("pwd", "otp", "mfa").
	// Useful for audits and for gating sensitive actions on MFA.
	AMR []string `json:"amr,omitempty"`

	// Username of the authenticated user.
	Username string `json:"username,omitempty"`

	// PreferredName is the user's display name.
	PreferredName string `json:"preferred_name,omitempty"`
}

// NewAccessClaims assembles the claims for a fresh access token. The jti is
// always a newly minted random value.
func NewAccessClaims(
	subject, sid string,
	scopes, amr []string,
	ttl time.Duration,
	issuer string,
	audience []string,
	username, preferredName string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings(audience),
			ID:        NewJTI(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SID:           sid,
		Scopes:        scopes,
		AMR:           amr,
		Username:      username,
		PreferredName: preferredName,
	}
}

// NewJTI returns a random URL-safe identifier (160 bits) for the jti claim.
func NewJTI() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// ValidateIssuer checks the iss claim. An empty expected issuer disables
// the check.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateAudience passes when the token carries at least one of the
// expected audience values. An empty expectation disables the check.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, aud := range c.Audience {
		if slices.Contains(expected, aud) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry checks exp and nbf against the current time.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryWithLeeway(0)
}

// ValidateExpiryWithLeeway is ValidateExpiry with a grace window for clock
// skew between services.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()
	if exp := c.ExpiresAt; exp != nil && now.After(exp.Add(leeway)) {
		return ErrExpired
	}
	if nbf := c.NotBefore; nbf != nil && now.Before(nbf.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
