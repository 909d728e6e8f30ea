package jwtx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kinfolkhq/kinfolk/pkg/cryptox"
	"github.com/kinfolkhq/kinfolk/pkg/idx"
)

// SigningKeyRecord is a stored signing key. The private key material is
// encrypted at rest and only decrypted while the manager loads it.
type SigningKeyRecord struct {
	ID                  string
	Kid                 string
	Algorithm           string
	PrivateKeyEncrypted []byte
	CreatedAt           time.Time

	// RetiredAt marks when the key stopped signing. Nil means active.
	RetiredAt *time.Time

	// ExpiresAt is when the key stops verifying too.
	ExpiresAt time.Time
}

// KeyStore is the storage surface the persistent key manager needs. It is
// declared here rather than in the store package so storage backends depend
// on jwtx, not the other way around.
type KeyStore interface {
	// ListAllSigningKeys returns every stored key, retired and expired
	// included, for verification coverage.
	ListAllSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// ListActiveSigningKeys returns the keys currently eligible for
	// signing.
	ListActiveSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// CreateSigningKey stores a newly minted key.
	CreateSigningKey(ctx context.Context, key SigningKeyRecord) error
}

// PersistentKeyManagerOptions configures NewPersistentKeyManager.
type PersistentKeyManagerOptions struct {
	// Store holds the signing keys.
	Store KeyStore

	// Algorithm used when minting new keys. Stored keys keep the
	// algorithm they were created with.
	Algorithm string

	// Issuer is stamped into the iss claim and enforced on verification.
	Issuer string

	// Audience values enforced on verification. Empty disables the check.
	Audience []string

	// RSABits sets the RSA key size for new RS256 keys. Zero means 4096.
	RSABits int

	// NumKeys is the target number of active signing keys. The shortfall
	// is minted on startup. Zero means 3; the ceiling is 10.
	NumKeys int

	// GracePeriod bounds how long a key keeps verifying after it stops
	// signing. Zero means 30 days.
	GracePeriod time.Duration
}

const defaultKeyGracePeriod = 30 * 24 * time.Hour

// NewPersistentKeyManager builds a KeyManager from the keys in the store,
// minting and persisting new ones until the active count reaches the
// NumKeys target. Retired keys load for verification only, so sessions
// signed before a rotation keep working through the grace period.
func NewPersistentKeyManager(ctx context.Context, opts PersistentKeyManagerOptions) (*KeyManager, error) {
	if opts.Store == nil {
		return nil, errors.New("jwtx: store is required")
	}
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: issuer is required")
	}

	grace := opts.GracePeriod
	if grace <= 0 {
		grace = defaultKeyGracePeriod
	}
	target := clampNumKeys(opts.NumKeys)

	allKeys, err := opts.Store.ListAllSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list signing keys: %w", err)
	}
	activeKeys, err := opts.Store.ListActiveSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active signing keys: %w", err)
	}

	// Every stored key verifies; each one is decrypted exactly once.
	keyset := NewKeySet()
	loaded := make(map[string]Signer, len(allKeys))
	for _, rec := range allKeys {
		signer, err := signerFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("register key %q: %w", rec.Kid, err)
		}
		loaded[rec.Kid] = signer
	}

	// Only active keys sign.
	signers := make([]Signer, 0, target)
	for _, rec := range activeKeys {
		signer, ok := loaded[rec.Kid]
		if !ok {
			return nil, fmt.Errorf("jwtx: active key %q missing from full key listing", rec.Kid)
		}
		signers = append(signers, signer)
	}

	// Top up to the target, persisting every new key before it signs
	// anything.
	now := time.Now().UTC()
	for len(signers) < target {
		signer, pemKey, err := mintSigner(opts.Algorithm, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("mint signing key: %w", err)
		}
		encrypted, err := cryptox.EncryptPrivateKey(pemKey)
		if err != nil {
			return nil, fmt.Errorf("encrypt signing key %q: %w", signer.KID(), err)
		}

		rec := SigningKeyRecord{
			ID:                  idx.New().String(),
			Kid:                 signer.KID(),
			Algorithm:           opts.Algorithm,
			PrivateKeyEncrypted: encrypted,
			CreatedAt:           now,
			ExpiresAt:           now.Add(grace),
		}
		if err := opts.Store.CreateSigningKey(ctx, rec); err != nil {
			return nil, fmt.Errorf("store signing key %q: %w", signer.KID(), err)
		}

		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("register key %q: %w", signer.KID(), err)
		}
		signers = append(signers, signer)
	}

	verifier, err := NewVerifier(opts.Algorithm, keyset, opts.Issuer, opts.Audience)
	if err != nil {
		return nil, err
	}

	return &KeyManager{
		Verifier:  verifier,
		KeySet:    keyset,
		algorithm: opts.Algorithm,
		signers:   signers,
	}, nil
}

// signerFromRecord decrypts a stored key and rebuilds its signer.
func signerFromRecord(rec SigningKeyRecord) (Signer, error) {
	pemKey, err := cryptox.DecryptPrivateKey(rec.PrivateKeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt key %q: %w", rec.Kid, err)
	}
	signer, err := NewSigner(rec.Algorithm, rec.Kid, pemKey)
	if err != nil {
		return nil, fmt.Errorf("load key %q: %w", rec.Kid, err)
	}
	return signer, nil
}
