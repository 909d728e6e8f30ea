package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a compact JWT and returns its claims when the token is
// genuine and current.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// NewVerifier returns a Verifier that accepts tokens signed with alg by any
// key in the set, matched via the kid header. issuer and audience are
// enforced when non-empty.
func NewVerifier(alg string, keys *KeySet, issuer string, audience []string) (Verifier, error) {
	if _, err := signingMethod(alg); err != nil {
		return nil, err
	}
	return &keySetVerifier{
		keys:     keys,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{alg})),
		issuer:   issuer,
		audience: audience,
	}, nil
}

// keySetVerifier implements Verifier for every supported algorithm. The
// parser pins the expected algorithm, so a forged header can never steer
// verification onto a key of the wrong type.
type keySetVerifier struct {
	keys     *KeySet
	parser   *jwt.Parser
	issuer   string
	audience []string
}

func (v *keySetVerifier) Verify(token string) (Claims, error) {
	parsed, err := v.parser.ParseWithClaims(token, &Claims{}, v.lookupKey)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return Claims{}, ErrNotYetValid
		}
		return Claims{}, fmt.Errorf("verify token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("jwtx: unexpected claims type")
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.audience); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// lookupKey resolves the verification key for a token's kid header.
func (v *keySetVerifier) lookupKey(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("jwtx: token header has no kid")
	}
	key, err := v.keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("jwtx: kid %q: %w", kid, err)
	}
	return key, nil
}
