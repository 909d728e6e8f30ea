package jwtx

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
)

// JWK is a public key in JSON Web Key form (RFC 7517). Only the fields for
// the key types we issue are modelled: RSA, EC (P-256) and OKP (Ed25519).
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Kid string `json:"kid,omitempty"`

	// RSA parameters, base64url without padding.
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// EC and OKP parameters. For Ed25519 keys X holds the raw public key
	// bytes and Y stays empty.
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// JWKS is a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// newJWK encodes a public key as a signature-use JWK under the given kid.
func newJWK(kid, alg string, pub crypto.PublicKey) (JWK, error) {
	jwk := JWK{Use: "sig", Alg: alg, Kid: kid}

	switch key := pub.(type) {
	case *rsa.PublicKey:
		jwk.Kty = "RSA"
		jwk.N = base64.RawURLEncoding.EncodeToString(key.N.Bytes())
		jwk.E = base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes())

	case *ecdsa.PublicKey:
		if key.Curve != elliptic.P256() {
			return JWK{}, fmt.Errorf("jwtx: unsupported ECDSA curve %s", key.Curve.Params().Name)
		}
		// Coordinates are fixed width on the wire: left-pad to the
		// 32-byte P-256 field size.
		jwk.Kty = "EC"
		jwk.Crv = "P-256"
		jwk.X = base64.RawURLEncoding.EncodeToString(key.X.FillBytes(make([]byte, 32)))
		jwk.Y = base64.RawURLEncoding.EncodeToString(key.Y.FillBytes(make([]byte, 32)))

	case ed25519.PublicKey:
		jwk.Kty = "OKP"
		jwk.Crv = "Ed25519"
		jwk.X = base64.RawURLEncoding.EncodeToString(key)

	default:
		return JWK{}, fmt.Errorf("jwtx: unsupported public key type %T", pub)
	}

	return jwk, nil
}

// PublicKey decodes the JWK back into a crypto public key.
func (j JWK) PublicKey() (crypto.PublicKey, error) {
	switch j.Kty {
	case "RSA":
		n, err := decodeBase64Int(j.N)
		if err != nil {
			return nil, fmt.Errorf("jwtx: jwk field n: %w", err)
		}
		e, err := decodeBase64Int(j.E)
		if err != nil {
			return nil, fmt.Errorf("jwtx: jwk field e: %w", err)
		}
		return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil

	case "EC":
		if j.Crv != "P-256" {
			return nil, fmt.Errorf("jwtx: unsupported EC curve %q", j.Crv)
		}
		x, err := decodeBase64Int(j.X)
		if err != nil {
			return nil, fmt.Errorf("jwtx: jwk field x: %w", err)
		}
		y, err := decodeBase64Int(j.Y)
		if err != nil {
			return nil, fmt.Errorf("jwtx: jwk field y: %w", err)
		}
		return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil

	case "OKP":
		if j.Crv != "Ed25519" {
			return nil, fmt.Errorf("jwtx: unsupported OKP curve %q", j.Crv)
		}
		raw, err := base64.RawURLEncoding.DecodeString(j.X)
		if err != nil {
			return nil, fmt.Errorf("jwtx: jwk field x: %w", err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, errors.New("jwtx: bad Ed25519 public key length")
		}
		return ed25519.PublicKey(raw), nil

	default:
		return nil, fmt.Errorf("jwtx: unsupported kty %q", j.Kty)
	}
}

// PEM renders the JWK as a PKIX "PUBLIC KEY" block, for handing a single
// key to tooling that does not speak JWKS.
func (j JWK) PEM() (string, error) {
	pub, err := j.PublicKey()
	if err != nil {
		return "", err
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// decodeBase64Int reads a base64url big-endian integer field.
func decodeBase64Int(s string) (*big.Int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}
