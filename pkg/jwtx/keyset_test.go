package jwtx_test

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
)

func TestKeySetAddAndGet(t *testing.T) {
	ks := jwtx.NewKeySet()
	require.False(t, ks.IsReady())

	_, err := ks.Get("nope")
	require.ErrorIs(t, err, jwtx.ErrNoKey)

	require.NoError(t, ks.AddSigner(newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-1")))
	require.True(t, ks.IsReady())

	key, err := ks.Get("kid-1")
	require.NoError(t, err)
	require.IsType(t, ed25519.PublicKey{}, key)
}

func TestKeySetRejectsUnparsableJWK(t *testing.T) {
	ks := jwtx.NewKeySet()
	err := ks.AddJWK(jwtx.JWK{Kty: "martian", Kid: "kid-bad"})
	require.Error(t, err)
	require.False(t, ks.IsReady())
}

func TestKeySetReplacesDuplicateKid(t *testing.T) {
	ks := jwtx.NewKeySet()
	first := newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-dup")
	second := newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-dup")
	require.NoError(t, ks.AddSigner(first))
	require.NoError(t, ks.AddSigner(second))

	require.Len(t, ks.PublicJWKS().Keys, 1)

	want, err := second.PublicJWK().PublicKey()
	require.NoError(t, err)
	got, err := ks.Get("kid-dup")
	require.NoError(t, err)
	require.True(t, want.(ed25519.PublicKey).Equal(got.(ed25519.PublicKey)))
}

func TestKeySetSnapshotIsolation(t *testing.T) {
	ks := jwtx.NewKeySet()
	require.NoError(t, ks.AddSigner(newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-1")))

	snapshot := ks.PublicJWKS()
	require.NoError(t, ks.AddSigner(newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-2")))

	require.Len(t, snapshot.Keys, 1)
	require.Len(t, ks.PublicJWKS().Keys, 2)
}

func TestKeySetResetFromJWKS(t *testing.T) {
	ks := jwtx.NewKeySet()
	require.NoError(t, ks.AddSigner(newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-old")))

	fresh := jwtx.NewKeySet()
	require.NoError(t, fresh.AddSigner(newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-new")))

	require.NoError(t, ks.ResetFromJWKS(fresh.PublicJWKS()))

	_, err := ks.Get("kid-old")
	require.ErrorIs(t, err, jwtx.ErrNoKey)
	_, err = ks.Get("kid-new")
	require.NoError(t, err)
}

func TestKeySetResetKeepsStateOnBadInput(t *testing.T) {
	ks := jwtx.NewKeySet()
	require.NoError(t, ks.AddSigner(newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-keep")))

	err := ks.ResetFromJWKS(jwtx.JWKS{Keys: []jwtx.JWK{{Kty: "martian"}}})
	require.Error(t, err)

	_, err = ks.Get("kid-keep")
	require.NoError(t, err)
	require.Len(t, ks.PublicJWKS().Keys, 1)
}
