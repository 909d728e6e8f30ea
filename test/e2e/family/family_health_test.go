package family_test

import (
	"testing"

	"github.com/kinfolkhq/kinfolk/pkg/familysdk"
	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint hits /livez on a fresh container.
func TestLivezEndpoint(t *testing.T) {
	baseURL, cleanup := setupFamilyContainer(t)
	defer cleanup()

	client := familysdk.NewSDKClient(baseURL)

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
}

// TestReadyzEndpoint verifies a fresh container reports both dependency
// checks as ok.
func TestReadyzEndpoint(t *testing.T) {
	baseURL, cleanup := setupFamilyContainer(t)
	defer cleanup()

	client := familysdk.NewSDKClient(baseURL)

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)

	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)
}

// TestJWKSEndpoint verifies signing keys are published before any user
// exists, since partner services fetch them at startup.
func TestJWKSEndpoint(t *testing.T) {
	baseURL, cleanup := setupFamilyContainer(t)
	defer cleanup()

	client := familysdk.NewSDKClient(baseURL)

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.NotNil(t, jwks)
	require.NotEmpty(t, jwks.Keys, "JWKS should contain at least one key")

	for _, key := range jwks.Keys {
		require.NotEmpty(t, key.Kid)
		require.Equal(t, "sig", key.Use)
	}
}
