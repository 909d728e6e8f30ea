package cryptox

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestMain(m *testing.M) {
	// The pepper file must be configured before the first hash. Use a
	// throwaway path so runs never pick up a stale pepper.
	pepperPath := filepath.Join(os.TempDir(), "cryptox-test-pepper")
	os.Remove(pepperPath)
	SetPepperPath(pepperPath)

	code := m.Run()

	os.Remove(pepperPath)
	os.Exit(code)
}

func TestHashPasswordProducesPHCRecord(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"),
		"hash should carry the configured parameters: %s", hash)
	require.Len(t, strings.Split(hash, "$"), 6)
}

func TestHashPasswordSaltsEveryHash(t *testing.T) {
	a, err := HashPassword("same password")
	require.NoError(t, err)
	b, err := HashPassword("same password")
	require.NoError(t, err)

	require.NotEqual(t, a, b, "fresh salt should make identical passwords hash differently")

	require.NoError(t, VerifyPassword("same password", a))
	require.NoError(t, VerifyPassword("same password", b))
}

func TestHashPasswordEdgeInputs(t *testing.T) {
	for _, password := range []string{
		"",
		"   leading and trailing   ",
		strings.Repeat("k", 300),
		"pässwörd-日本語-🔑",
	} {
		hash, err := HashPassword(password)
		require.NoError(t, err, "password %q", password)
		require.NoError(t, VerifyPassword(password, hash), "password %q", password)
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sunflower123!")
	require.NoError(t, err)

	t.Run("accepts the right password", func(t *testing.T) {
		require.NoError(t, VerifyPassword("Sunflower123!", hash))
	})

	t.Run("rejects a case variant", func(t *testing.T) {
		require.ErrorIs(t, VerifyPassword("sunflower123!", hash), ErrPasswordMismatch)
	})

	t.Run("rejects trailing whitespace", func(t *testing.T) {
		require.ErrorIs(t, VerifyPassword("Sunflower123! ", hash), ErrPasswordMismatch)
	})
}

func TestVerifyPasswordMalformedRecords(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"not a record":     "plainly-not-a-hash",
		"too few parts":    "$argon2id$v=19$m=19456,t=2,p=1$saltonly",
		"wrong algorithm":  "$argon2i$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"wrong version":    "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"unparsable costs": "$argon2id$v=19$m=lots,t=2,p=1$c2FsdA$aGFzaA",
		"bad salt base64":  "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
		"bad hash base64":  "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!",
	}

	for name, record := range cases {
		t.Run(name, func(t *testing.T) {
			err := VerifyPassword("whatever", record)
			require.Error(t, err)
			require.False(t, errors.Is(err, ErrPasswordMismatch),
				"malformed records should be distinguishable from mismatches")
		})
	}
}

func TestVerifyPasswordHonorsEmbeddedParameters(t *testing.T) {
	// Records hashed under older cost parameters keep verifying after the
	// defaults change, because verification reads the costs from the
	// record rather than the package constants.
	const password = "migrated-record"
	salt := []byte("0123456789abcdef")
	derived := argon2.IDKey([]byte(password+currentPepper()), salt, 3, 32*1024, 2, 32)

	record := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		32*1024, 3, 2,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(derived),
	)

	require.NoError(t, VerifyPassword(password, record))
	require.ErrorIs(t, VerifyPassword("wrong", record), ErrPasswordMismatch)
}

func TestPepperFileCreatedOnFirstUse(t *testing.T) {
	// TestMain removed the file; the first hash in this run recreated it.
	_, err := HashPassword("force pepper load")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(os.TempDir(), "cryptox-test-pepper"))
	require.NoError(t, err)
	require.NotZero(t, info.Size())
}
