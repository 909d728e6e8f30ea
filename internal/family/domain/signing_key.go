package domain

import "time"

// SigningKey is a token-signing key at rest. Private key PEMs are sealed with
// the master key before they reach the database. A retired key no longer signs
// new tokens but keeps verifying outstanding ones until ExpiresAt.
type SigningKey struct {
	ID                  string
	Kid                 string // JWKS key id, "kinfolk-" prefixed
	Algorithm           string // RS256, ES256 or EdDSA
	PrivateKeyEncrypted []byte // AES-256-GCM sealed PEM
	CreatedAt           time.Time
	RetiredAt           *time.Time // nil while the key still signs
	ExpiresAt           time.Time
}

// IsActive reports whether the key may sign new tokens at the given time.
func (k *SigningKey) IsActive(now time.Time) bool {
	return k.RetiredAt == nil && now.Before(k.ExpiresAt)
}

// IsExpired reports whether the key's verification grace period has ended.
func (k *SigningKey) IsExpired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}
