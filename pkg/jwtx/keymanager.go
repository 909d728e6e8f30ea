package jwtx

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/kinfolkhq/kinfolk/pkg/cryptox"
)

// KeyManager owns a service's signing keys together with the matching
// verification state. Several keys stay live at once, so signing load
// spreads out and a single key can retire without invalidating every
// outstanding session.
type KeyManager struct {
	// Verifier validates tokens against every key the manager knows,
	// retired ones still in their grace period included.
	Verifier Verifier

	// KeySet backs the JWKS endpoint.
	KeySet *KeySet

	algorithm string

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures NewEphemeralKeyManager.
type KeyManagerOptions struct {
	// Algorithm selects the signing algorithm: RS256, ES256 or EdDSA.
	Algorithm string

	// Issuer is stamped into the iss claim and enforced on verification.
	Issuer string

	// Audience values enforced on verification. Empty disables the check.
	Audience []string

	// RSABits sets the RSA key size for RS256. Zero means 4096.
	RSABits int

	// NumKeys is how many signing keys to keep live. Zero means 3; the
	// ceiling is 10.
	NumKeys int
}

const (
	defaultNumKeys = 3
	maxNumKeys     = 10
)

// clampNumKeys applies the default and the ceiling for key counts.
func clampNumKeys(n int) int {
	if n <= 0 {
		return defaultNumKeys
	}
	if n > maxNumKeys {
		return maxNumKeys
	}
	return n
}

// NewEphemeralKeyManager generates fresh signing keys in memory. Nothing is
// persisted: a restart mints new keys and every outstanding token stops
// verifying.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, errors.New("jwtx: issuer is required")
	}

	keyset := NewKeySet()
	total := clampNumKeys(opts.NumKeys)
	signers := make([]Signer, 0, total)

	for i := 0; i < total; i++ {
		signer, _, err := mintSigner(opts.Algorithm, opts.RSABits)
		if err != nil {
			return nil, fmt.Errorf("generate signing key %d of %d: %w", i+1, total, err)
		}
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("register signing key %q: %w", signer.KID(), err)
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

// mintSigner creates a brand new signer under a random kid. The private key
// PEM is returned alongside so persistent callers can encrypt and store it.
func mintSigner(alg string, rsaBits int) (Signer, []byte, error) {
	kid, err := randomKID()
	if err != nil {
		return nil, nil, err
	}
	pemKey, err := generatePrivatePEM(alg, rsaBits)
	if err != nil {
		return nil, nil, err
	}
	signer, err := NewSigner(alg, kid, pemKey)
	if err != nil {
		return nil, nil, err
	}
	return signer, pemKey, nil
}

// randomKID returns a fresh key identifier with 128 bits of entropy.
func randomKID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("generate kid: %w", err)
	}
	return "kinfolk-" + token, nil
}

// Algorithm returns the configured signing algorithm.
func (m *KeyManager) Algorithm() string { return m.algorithm }

// IsReady reports whether verification keys are loaded.
func (m *KeyManager) IsReady() bool { return m.KeySet.IsReady() }

// GetSigner picks one of the live signing keys at random.
func (m *KeyManager) GetSigner() Signer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch len(m.signers) {
	case 0:
		return nil
	case 1:
		return m.signers[0]
	default:
		return m.signers[rand.IntN(len(m.signers))]
	}
}

// GetSigners returns a snapshot of the live signing keys.
func (m *KeyManager) GetSigners() []Signer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Signer, len(m.signers))
	copy(out, m.signers)
	return out
}

// NumSigners returns how many keys are live for signing.
func (m *KeyManager) NumSigners() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.signers)
}
