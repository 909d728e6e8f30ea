package jwtx_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/kinfolkhq/kinfolk/pkg/cryptox"
	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
)

var allAlgorithms = []string{jwtx.AlgorithmRS256, jwtx.AlgorithmES256, jwtx.AlgorithmEdDSA}

// newTestSigner mints a fresh key for alg and wraps it in a Signer. RSA uses
// 2048 bits to keep the suite quick.
func newTestSigner(t *testing.T, alg, kid string) jwtx.Signer {
	t.Helper()

	var pemKey []byte
	var err error
	switch alg {
	case jwtx.AlgorithmRS256:
		pemKey, err = cryptox.GenerateRSAKey(2048)
	case jwtx.AlgorithmES256:
		pemKey, err = cryptox.GenerateES256Key()
	case jwtx.AlgorithmEdDSA:
		pemKey, err = cryptox.GenerateEd25519Key()
	default:
		t.Fatalf("no key generator for %s", alg)
	}
	require.NoError(t, err)

	signer, err := jwtx.NewSigner(alg, kid, pemKey)
	require.NoError(t, err)
	return signer
}

// newTestVerifier builds a Verifier over the signers' public keys expecting
// the issuer and audience testClaims carries.
func newTestVerifier(t *testing.T, alg string, signers ...jwtx.Signer) jwtx.Verifier {
	t.Helper()

	keys := jwtx.NewKeySet()
	for _, s := range signers {
		require.NoError(t, keys.AddSigner(s))
	}
	verifier, err := jwtx.NewVerifier(alg, keys, "family-service", []string{"family"})
	require.NoError(t, err)
	return verifier
}

func testClaims(ttl time.Duration) jwtx.Claims {
	return jwtx.NewAccessClaims(
		"user-1", "sess-1",
		[]string{"family:read"},
		[]string{jwtx.AMRPassword},
		ttl,
		"family-service",
		[]string{"family"},
		"bert", "Bert",
		time.Now(),
	)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	for _, alg := range allAlgorithms {
		t.Run(alg, func(t *testing.T) {
			signer := newTestSigner(t, alg, "kid-"+alg)
			verifier := newTestVerifier(t, alg, signer)

			token, err := signer.Sign(testClaims(time.Minute))
			require.NoError(t, err)

			claims, err := verifier.Verify(token)
			require.NoError(t, err)
			require.Equal(t, "user-1", claims.Subject)
			require.Equal(t, "sess-1", claims.SID)
			require.Equal(t, []string{"family:read"}, claims.Scopes)
			require.Equal(t, []string{jwtx.AMRPassword}, claims.AMR)
			require.Equal(t, "bert", claims.Username)
			require.Equal(t, "Bert", claims.PreferredName)
		})
	}
}

func TestTokenHeaderCarriesKidAndAlg(t *testing.T) {
	signer := newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-header")

	token, err := signer.Sign(testClaims(time.Minute))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)

	var header struct {
		Alg string `json:"alg"`
		Kid string `json:"kid"`
	}
	require.NoError(t, json.Unmarshal(raw, &header))
	require.Equal(t, "EdDSA", header.Alg)
	require.Equal(t, "kid-header", header.Kid)
}

func TestVerifyRejectsUnknownKid(t *testing.T) {
	trusted := newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-a")
	stranger := newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-b")
	verifier := newTestVerifier(t, jwtx.AlgorithmEdDSA, trusted)

	token, err := stranger.Sign(testClaims(time.Minute))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrNoKey)
}

// TestVerifyRejectsAlgorithmConfusion checks the verifier pins its
// algorithm: a token signed with a different one is rejected even when its
// kid resolves to a published key.
func TestVerifyRejectsAlgorithmConfusion(t *testing.T) {
	signer := newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-confused")

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	verifier, err := jwtx.NewVerifier(jwtx.AlgorithmES256, keys, "", nil)
	require.NoError(t, err)

	token, err := signer.Sign(testClaims(time.Minute))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	signer := newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-tamper")
	verifier := newTestVerifier(t, jwtx.AlgorithmEdDSA, signer)

	token, err := signer.Sign(testClaims(time.Minute))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	doctored := strings.Replace(string(payload), "user-1", "user-2", 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(doctored))

	_, err = verifier.Verify(strings.Join(parts, "."))
	require.Error(t, err)
}

func TestVerifyRejectsMissingKid(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSigner(jwtx.AlgorithmEdDSA, "kid-present", pemKey)
	require.NoError(t, err)
	verifier := newTestVerifier(t, jwtx.AlgorithmEdDSA, signer)

	// Hand-roll a token with the same key but no kid header.
	block, _ := pem.Decode(pemKey)
	require.NotNil(t, block)
	raw, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)

	bare := jwt.NewWithClaims(jwt.SigningMethodEdDSA, testClaims(time.Minute))
	token, err := bare.SignedString(raw.(ed25519.PrivateKey))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorContains(t, err, "no kid")
}

func TestVerifyExpiredToken(t *testing.T) {
	signer := newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-expired")
	verifier := newTestVerifier(t, jwtx.AlgorithmEdDSA, signer)

	token, err := signer.Sign(testClaims(-time.Minute))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyTokenNotYetValid(t *testing.T) {
	signer := newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-future")
	verifier := newTestVerifier(t, jwtx.AlgorithmEdDSA, signer)

	claims := jwtx.NewAccessClaims(
		"user-1", "sess-1", nil, nil,
		time.Hour, "family-service", []string{"family"},
		"", "", time.Now().Add(30*time.Minute),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrNotYetValid)
}

func TestVerifyEnforcesIssuerAndAudience(t *testing.T) {
	signer := newTestSigner(t, jwtx.AlgorithmEdDSA, "kid-claims")
	verifier := newTestVerifier(t, jwtx.AlgorithmEdDSA, signer)

	t.Run("wrong issuer", func(t *testing.T) {
		claims := jwtx.NewAccessClaims("user-1", "sess-1", nil, nil, time.Minute, "other-service", []string{"family"}, "", "", time.Now())
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := jwtx.NewAccessClaims("user-1", "sess-1", nil, nil, time.Minute, "family-service", []string{"billing"}, "", "", time.Now())
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})
}

func TestNewSignerRejectsBadMaterial(t *testing.T) {
	edKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	t.Run("garbage PEM", func(t *testing.T) {
		_, err := jwtx.NewSigner(jwtx.AlgorithmEdDSA, "kid", []byte("not a key"))
		require.ErrorContains(t, err, "no PEM block")
	})

	t.Run("key type mismatch", func(t *testing.T) {
		_, err := jwtx.NewSigner(jwtx.AlgorithmRS256, "kid", edKey)
		require.ErrorContains(t, err, "RSA private key")
	})

	t.Run("wrong curve", func(t *testing.T) {
		key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
		require.NoError(t, err)
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

		_, err = jwtx.NewSigner(jwtx.AlgorithmES256, "kid", pemKey)
		require.ErrorContains(t, err, "P-256")
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := jwtx.NewSigner("HS256", "kid", edKey)
		require.ErrorContains(t, err, "unsupported algorithm")
	})
}

func TestNewSignerAcceptsBothRSAEncodings(t *testing.T) {
	pkcs1, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)
	pkcs8, err := cryptox.GenerateRSAKeyPKCS8(2048)
	require.NoError(t, err)

	for name, pemKey := range map[string][]byte{"pkcs1": pkcs1, "pkcs8": pkcs8} {
		t.Run(name, func(t *testing.T) {
			signer, err := jwtx.NewSigner(jwtx.AlgorithmRS256, "kid-"+name, pemKey)
			require.NoError(t, err)
			require.Equal(t, "RS256", signer.Alg())
		})
	}
}

func TestNewVerifierRejectsUnknownAlgorithm(t *testing.T) {
	_, err := jwtx.NewVerifier("none", jwtx.NewKeySet(), "", nil)
	require.ErrorContains(t, err, "unsupported algorithm")
}
