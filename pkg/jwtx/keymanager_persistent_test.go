package jwtx_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kinfolkhq/kinfolk/pkg/cryptox"
	"github.com/kinfolkhq/kinfolk/pkg/idx"
	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
)

// memKeyStore is an in-memory KeyStore with the same active/retired
// semantics as the database-backed one.
type memKeyStore struct {
	mu   sync.Mutex
	recs []jwtx.SigningKeyRecord
}

func (s *memKeyStore) ListAllSigningKeys(_ context.Context) ([]jwtx.SigningKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]jwtx.SigningKeyRecord(nil), s.recs...), nil
}

func (s *memKeyStore) ListActiveSigningKeys(_ context.Context) ([]jwtx.SigningKeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var active []jwtx.SigningKeyRecord
	for _, rec := range s.recs {
		if rec.RetiredAt == nil && now.Before(rec.ExpiresAt) {
			active = append(active, rec)
		}
	}
	return active, nil
}

func (s *memKeyStore) CreateSigningKey(_ context.Context, key jwtx.SigningKeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, key)
	return nil
}

func (s *memKeyStore) retire(kid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for i := range s.recs {
		if s.recs[i].Kid == kid {
			s.recs[i].RetiredAt = &now
			return
		}
	}
}

// useTestMasterKey pins the key-encryption secret for the test so records
// written by one manager stay readable by the next.
func useTestMasterKey(t *testing.T) {
	t.Helper()
	cryptox.ResetMasterKeyForTesting()
	cryptox.SetMasterKeyPath("")
	t.Setenv("KINFOLK_MASTER_KEY", "jwtx-persistent-test-key")
	t.Cleanup(cryptox.ResetMasterKeyForTesting)
}

func newPersistentManager(t *testing.T, store jwtx.KeyStore, numKeys int) *jwtx.KeyManager {
	t.Helper()
	km, err := jwtx.NewPersistentKeyManager(context.Background(), jwtx.PersistentKeyManagerOptions{
		Store:       store,
		Algorithm:   jwtx.AlgorithmEdDSA,
		Issuer:      "family-service",
		Audience:    []string{"family"},
		NumKeys:     numKeys,
		GracePeriod: time.Hour,
	})
	require.NoError(t, err)
	return km
}

func TestPersistentManagerMintsToTarget(t *testing.T) {
	useTestMasterKey(t)
	store := &memKeyStore{}

	km := newPersistentManager(t, store, 2)
	require.Equal(t, 2, km.NumSigners())
	require.True(t, km.IsReady())
	require.Len(t, store.recs, 2)

	for _, rec := range store.recs {
		_, err := idx.Parse(rec.ID)
		require.NoError(t, err)
		require.Equal(t, jwtx.AlgorithmEdDSA, rec.Algorithm)
		require.NotEmpty(t, rec.Kid)
		require.Nil(t, rec.RetiredAt)
		require.WithinDuration(t, rec.CreatedAt.Add(time.Hour), rec.ExpiresAt, time.Second)
	}
}

func TestPersistentManagerEncryptsKeysAtRest(t *testing.T) {
	useTestMasterKey(t)
	store := &memKeyStore{}
	newPersistentManager(t, store, 1)

	rec := store.recs[0]
	require.NotContains(t, string(rec.PrivateKeyEncrypted), "PRIVATE KEY")

	pemKey, err := cryptox.DecryptPrivateKey(rec.PrivateKeyEncrypted)
	require.NoError(t, err)
	require.Contains(t, string(pemKey), "PRIVATE KEY")
}

func TestPersistentManagerReusesStoredKeys(t *testing.T) {
	useTestMasterKey(t)
	store := &memKeyStore{}

	first := newPersistentManager(t, store, 2)
	token, err := first.GetSigner().Sign(testClaims(time.Minute))
	require.NoError(t, err)

	second := newPersistentManager(t, store, 2)
	require.Equal(t, 2, second.NumSigners())
	require.Len(t, store.recs, 2) // nothing new minted

	// Tokens issued before the restart still verify.
	claims, err := second.Verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)

	var firstKids, secondKids []string
	for _, s := range first.GetSigners() {
		firstKids = append(firstKids, s.KID())
	}
	for _, s := range second.GetSigners() {
		secondKids = append(secondKids, s.KID())
	}
	require.ElementsMatch(t, firstKids, secondKids)
}

func TestPersistentManagerRetiredKeysVerifyOnly(t *testing.T) {
	useTestMasterKey(t)
	store := &memKeyStore{}

	first := newPersistentManager(t, store, 2)
	signer := first.GetSigner()
	token, err := signer.Sign(testClaims(time.Minute))
	require.NoError(t, err)

	store.retire(signer.KID())

	second := newPersistentManager(t, store, 2)
	require.Equal(t, 2, second.NumSigners())
	require.Len(t, store.recs, 3) // a replacement key was minted

	for _, s := range second.GetSigners() {
		require.NotEqual(t, signer.KID(), s.KID())
	}

	// The retired key verifies through its grace period.
	_, err = second.Verifier.Verify(token)
	require.NoError(t, err)

	// And stays published for clients that cached the kid.
	_, err = second.KeySet.Get(signer.KID())
	require.NoError(t, err)
}

func TestPersistentManagerValidatesOptions(t *testing.T) {
	useTestMasterKey(t)

	_, err := jwtx.NewPersistentKeyManager(context.Background(), jwtx.PersistentKeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    "family-service",
	})
	require.ErrorContains(t, err, "store")

	_, err = jwtx.NewPersistentKeyManager(context.Background(), jwtx.PersistentKeyManagerOptions{
		Store:     &memKeyStore{},
		Algorithm: jwtx.AlgorithmEdDSA,
	})
	require.ErrorContains(t, err, "issuer")
}
