package jwtx_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
)

func TestNewAccessClaims(t *testing.T) {
	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims(
		"user-1", "sess-9",
		[]string{"family:read", "family:write"},
		[]string{jwtx.AMRPassword, jwtx.AMRMFA},
		15*time.Minute,
		"family-service",
		[]string{"family", "billing"},
		"bert", "Bert H",
		now,
	)

	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "sess-9", claims.SID)
	require.Equal(t, "family-service", claims.Issuer)
	require.Equal(t, jwt.ClaimStrings{"family", "billing"}, claims.Audience)
	require.Equal(t, []string{"family:read", "family:write"}, claims.Scopes)
	require.Equal(t, []string{jwtx.AMRPassword, jwtx.AMRMFA}, claims.AMR)
	require.Equal(t, "bert", claims.Username)
	require.Equal(t, "Bert H", claims.PreferredName)
	require.NotEmpty(t, claims.ID)

	require.WithinDuration(t, now, claims.IssuedAt.Time, time.Second)
	require.WithinDuration(t, now, claims.NotBefore.Time, time.Second)
	require.WithinDuration(t, now.Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestNewAccessClaimsMintsUniqueJTI(t *testing.T) {
	a := jwtx.NewAccessClaims("u", "s", nil, nil, time.Minute, "iss", nil, "", "", time.Now())
	b := jwtx.NewAccessClaims("u", "s", nil, nil, time.Minute, "iss", nil, "", "", time.Now())
	require.NotEqual(t, a.ID, b.ID)
}

func TestNewJTI(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		id := jwtx.NewJTI()
		require.Len(t, id, 27) // 20 bytes, base64url without padding
		require.False(t, seen[id], "jti repeated: %s", id)
		seen[id] = true
	}
}

// TestClaimsWireKeys pins the JSON claim names. Verifiers in other services
// read these keys, so a rename here is a breaking change.
func TestClaimsWireKeys(t *testing.T) {
	claims := jwtx.NewAccessClaims(
		"user-1", "sess-1",
		[]string{"family:read"},
		[]string{jwtx.AMRPassword},
		time.Minute,
		"iss",
		[]string{"aud"},
		"bert", "Bert",
		time.Now(),
	)

	raw, err := json.Marshal(claims)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti", "sid", "scopes", "amr", "username", "preferred_name"} {
		require.Contains(t, m, key)
	}
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "family-service"}}

	require.NoError(t, c.ValidateIssuer("family-service"))
	require.NoError(t, c.ValidateIssuer(""))
	require.ErrorIs(t, c.ValidateIssuer("other-service"), jwtx.ErrIssuer)
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Audience: []string{"family", "billing"}}}

	t.Run("one match is enough", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"family"}))
		require.NoError(t, c.ValidateAudience([]string{"nope", "billing"}))
	})

	t.Run("no match", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateAudience([]string{"admin"}), jwtx.ErrAudience)
	})

	t.Run("empty expectation disables the check", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience(nil))
	})
}

func TestValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	fresh := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		NotBefore: jwt.NewNumericDate(now.Add(-time.Minute)),
	}}
	require.NoError(t, fresh.ValidateExpiry())

	expired := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(-30 * time.Second)),
	}}
	require.ErrorIs(t, expired.ValidateExpiry(), jwtx.ErrExpired)

	future := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
		NotBefore: jwt.NewNumericDate(now.Add(30 * time.Second)),
	}}
	require.ErrorIs(t, future.ValidateExpiry(), jwtx.ErrNotYetValid)

	// Absent exp and nbf pass; presence checks belong to the issuer.
	require.NoError(t, (&jwtx.Claims{}).ValidateExpiry())
}

func TestValidateExpiryWithLeeway(t *testing.T) {
	now := time.Now().UTC()

	justExpired := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(-30 * time.Second)),
	}}
	require.ErrorIs(t, justExpired.ValidateExpiry(), jwtx.ErrExpired)
	require.NoError(t, justExpired.ValidateExpiryWithLeeway(time.Minute))

	almostValid := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
		NotBefore: jwt.NewNumericDate(now.Add(30 * time.Second)),
	}}
	require.ErrorIs(t, almostValid.ValidateExpiry(), jwtx.ErrNotYetValid)
	require.NoError(t, almostValid.ValidateExpiryWithLeeway(time.Minute))
}
