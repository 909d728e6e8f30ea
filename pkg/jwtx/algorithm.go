package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kinfolkhq/kinfolk/pkg/cryptox"
)

// Signing algorithms supported by this package. The names follow the JWA
// registry, so they can be written straight into JWT headers and JWKS
// documents.
const (
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// defaultRSABits is the RSA key size used when the caller does not pick one.
const defaultRSABits = 4096

// signingMethod resolves an algorithm name to its golang-jwt implementation.
func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case AlgorithmRS256:
		return jwt.SigningMethodRS256, nil
	case AlgorithmES256:
		return jwt.SigningMethodES256, nil
	case AlgorithmEdDSA:
		return jwt.SigningMethodEdDSA, nil
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (want RS256, ES256 or EdDSA)", alg)
	}
}

// generatePrivatePEM mints a fresh private key for the algorithm and returns
// it PEM encoded. rsaBits applies to RS256 only; zero picks defaultRSABits.
func generatePrivatePEM(alg string, rsaBits int) ([]byte, error) {
	switch alg {
	case AlgorithmRS256:
		if rsaBits == 0 {
			rsaBits = defaultRSABits
		}
		return cryptox.GenerateRSAKey(rsaBits)
	case AlgorithmES256:
		return cryptox.GenerateES256Key()
	case AlgorithmEdDSA:
		return cryptox.GenerateEd25519Key()
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (want RS256, ES256 or EdDSA)", alg)
	}
}
