package jwtx

import (
	"crypto"
	"errors"
	"sync"
)

// ErrNoKey is returned when a kid has no matching key in the set.
var ErrNoKey = errors.New("jwtx: key not found")

// KeySet is the in-memory collection of verification keys. The issuing
// service fills it from its signers and serves it as JWKS; a verifying
// service fills it from a fetched JWKS. Safe for concurrent use.
type KeySet struct {
	mu   sync.RWMutex
	jwks []JWK
	keys map[string]crypto.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string]crypto.PublicKey)}
}

// AddSigner registers a signer's public key.
func (s *KeySet) AddSigner(sig Signer) error {
	return s.AddJWK(sig.PublicJWK())
}

// AddJWK registers a key. Re-adding a kid replaces the earlier entry.
func (s *KeySet) AddJWK(j JWK) error {
	key, err := j.PublicKey()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[j.Kid]; exists {
		for i := range s.jwks {
			if s.jwks[i].Kid == j.Kid {
				s.jwks[i] = j
				break
			}
		}
	} else {
		s.jwks = append(s.jwks, j)
	}
	s.keys[j.Kid] = key
	return nil
}

// Get returns the public key registered under kid.
func (s *KeySet) Get(kid string) (crypto.PublicKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[kid]
	if !ok {
		return nil, ErrNoKey
	}
	return key, nil
}

// PublicJWKS returns a copy of the set for HTTP serving. Handlers get their
// own slice, so later AddJWK calls cannot race a response in flight.
func (s *KeySet) PublicJWKS() JWKS {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]JWK, len(s.jwks))
	copy(keys, s.jwks)
	return JWKS{Keys: keys}
}

// IsReady reports whether at least one key is loaded.
func (s *KeySet) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys) > 0
}

// ResetFromJWKS swaps in a freshly fetched key set. The set is untouched
// when any entry fails to parse.
func (s *KeySet) ResetFromJWKS(jwks JWKS) error {
	keys := make(map[string]crypto.PublicKey, len(jwks.Keys))
	for _, j := range jwks.Keys {
		key, err := j.PublicKey()
		if err != nil {
			return err
		}
		keys[j.Kid] = key
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
	s.jwks = append([]JWK(nil), jwks.Keys...)
	return nil
}
