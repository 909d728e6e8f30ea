package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Token sizes in bytes of entropy before encoding.
const (
	// TokenSize128 (16 bytes, 22 chars encoded) suits single-use tokens
	// that are also bounded by a server-side expiry.
	TokenSize128 = 16

	// TokenSize256 (32 bytes, 43 chars encoded) suits long-lived secrets
	// like API keys.
	TokenSize256 = 32
)

// GenerateToken returns size bytes of CSPRNG output encoded as unpadded
// base64url, safe to place in links and headers.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateToken is GenerateToken for initialization paths and tests
// where a CSPRNG failure is unrecoverable anyway.
func MustGenerateToken(size int) string {
	token, err := GenerateToken(size)
	if err != nil {
		panic(err)
	}
	return token
}

// FingerprintToken maps a token to its storable form: unpadded base64url of
// the SHA-256 digest. The database only ever sees fingerprints, so a leaked
// table cannot be replayed, while lookup by the presented token stays a
// single indexed equality.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
