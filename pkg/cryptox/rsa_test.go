package cryptox_test

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kinfolkhq/kinfolk/pkg/cryptox"
)

func decodePEM(t *testing.T, data []byte, wantType string) []byte {
	t.Helper()

	block, rest := pem.Decode(data)
	require.NotNil(t, block, "output should be PEM")
	require.Empty(t, rest, "nothing should trail the PEM block")
	require.Equal(t, wantType, block.Type)
	return block.Bytes
}

func TestGenerateRSAKeyPKCS1(t *testing.T) {
	pemBytes, err := cryptox.GenerateRSAKey(2048)
	require.NoError(t, err)

	key, err := x509.ParsePKCS1PrivateKey(decodePEM(t, pemBytes, "RSA PRIVATE KEY"))
	require.NoError(t, err)
	require.Equal(t, 2048, key.N.BitLen())
	require.NoError(t, key.Validate())
}

func TestGenerateRSAKeyPKCS8(t *testing.T) {
	pemBytes, err := cryptox.GenerateRSAKeyPKCS8(2048)
	require.NoError(t, err)

	parsed, err := x509.ParsePKCS8PrivateKey(decodePEM(t, pemBytes, "PRIVATE KEY"))
	require.NoError(t, err)

	key, ok := parsed.(*rsa.PrivateKey)
	require.True(t, ok, "PKCS8 payload should be an RSA key")
	require.Equal(t, 2048, key.N.BitLen())
}

func TestGenerateRSAKeyRejectsWeakSizes(t *testing.T) {
	for _, bits := range []int{0, 512, 1024, 2047} {
		_, err := cryptox.GenerateRSAKey(bits)
		require.ErrorContains(t, err, "at least 2048 bits", "bits %d", bits)

		_, err = cryptox.GenerateRSAKeyPKCS8(bits)
		require.ErrorContains(t, err, "at least 2048 bits", "bits %d", bits)
	}
}
