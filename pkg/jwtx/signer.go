package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs claims into compact JWTs under a fixed key and key ID.
type Signer interface {
	// Alg returns the JWA algorithm name, e.g. "EdDSA".
	Alg() string

	// KID returns the key ID stamped into token headers and the JWKS.
	KID() string

	// Sign produces a signed compact JWT for the claims.
	Sign(Claims) (string, error)

	// PublicJWK returns the verification half of the key in JWK form.
	PublicJWK() JWK
}

// NewSigner loads a PEM-encoded private key and returns a Signer for the
// given algorithm. RSA keys may be PKCS1 ("RSA PRIVATE KEY") or PKCS8
// ("PRIVATE KEY"); ECDSA and Ed25519 keys must be PKCS8. The key type, and
// for ES256 the curve, are checked here so a misconfigured key fails at
// startup rather than on the first request.
func NewSigner(alg, kid string, pemKey []byte) (Signer, error) {
	method, err := signingMethod(alg)
	if err != nil {
		return nil, err
	}

	key, err := parseSigningKey(alg, pemKey)
	if err != nil {
		return nil, err
	}

	jwk, err := newJWK(kid, alg, key.Public())
	if err != nil {
		return nil, err
	}

	return &pemSigner{kid: kid, method: method, key: key, jwk: jwk}, nil
}

// pemSigner is the single Signer implementation. All the per-algorithm work
// happens during construction; signing itself is uniform.
type pemSigner struct {
	kid    string
	method jwt.SigningMethod
	key    crypto.Signer
	jwk    JWK
}

func (s *pemSigner) Alg() string    { return s.method.Alg() }
func (s *pemSigner) KID() string    { return s.kid }
func (s *pemSigner) PublicJWK() JWK { return s.jwk }

func (s *pemSigner) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(s.method, claims)
	token.Header["kid"] = s.kid
	return token.SignedString(s.key)
}

// parseSigningKey decodes the PEM block and checks that the key inside
// matches what the algorithm needs.
func parseSigningKey(alg string, pemKey []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: no PEM block in key material")
	}

	var parsed any
	var err error
	switch block.Type {
	case "RSA PRIVATE KEY":
		parsed, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		parsed, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("jwtx: unsupported PEM type %q", block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse private key: %w", err)
	}

	switch alg {
	case AlgorithmRS256:
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("jwtx: RS256 needs an RSA private key, got %T", parsed)
		}
		return key, nil

	case AlgorithmES256:
		key, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("jwtx: ES256 needs an ECDSA private key, got %T", parsed)
		}
		if key.Curve != elliptic.P256() {
			return nil, fmt.Errorf("jwtx: ES256 needs curve P-256, got %s", key.Curve.Params().Name)
		}
		return key, nil

	case AlgorithmEdDSA:
		key, ok := parsed.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("jwtx: EdDSA needs an Ed25519 private key, got %T", parsed)
		}
		return key, nil

	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (want RS256, ES256 or EdDSA)", alg)
	}
}
