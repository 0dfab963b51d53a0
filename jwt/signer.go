package jwt

import (
	"context"
	"fmt"

	"github.com/MrEthical07/jwtlab/token"
	gjwt "github.com/golang-jwt/jwt/v5"
)

// Signer produces compact tokens from header and payload objects.
type Signer struct{}

// NewSigner returns a Signer.
func NewSigner() *Signer {
	return &Signer{}
}

// Sign signs payload under header using the algorithm named by header["alg"].
//
// The header and payload are serialized exactly as given. When the key slot the
// algorithm needs is empty, Sign returns ("", ErrMissingKeyMaterial); callers treat that
// as "cannot sign yet". Any other failure is a *SignError matching ErrSigningFailed.
func (s *Signer) Sign(ctx context.Context, header, payload map[string]any, keys KeyMaterial) (signed string, err error) {
	name, _ := header["alg"].(string)
	alg := Algorithm(name)
	if !alg.Valid() {
		return "", &SignError{Algorithm: name, Err: fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)}
	}
	if !HasSufficientKeyForSign(alg, keys) {
		return "", ErrMissingKeyMaterial
	}
	if ctx != nil {
		if cerr := ctx.Err(); cerr != nil {
			return "", &SignError{Algorithm: name, Err: cerr}
		}
	}

	method, err := alg.Method()
	if err != nil {
		return "", &SignError{Algorithm: name, Err: err}
	}
	key, err := signKey(alg, keys)
	if err != nil {
		return "", &SignError{Algorithm: name, Err: err}
	}

	defer func() {
		if r := recover(); r != nil {
			signed = ""
			err = &SignError{Algorithm: name, Err: fmt.Errorf("%v", r)}
		}
	}()

	tok := &gjwt.Token{
		Header: token.CloneObject(header),
		Claims: gjwt.MapClaims(nonNilClaims(token.CloneObject(payload))),
		Method: method,
	}
	out, err := tok.SignedString(key)
	if err != nil {
		return "", &SignError{Algorithm: name, Err: err}
	}
	return out, nil
}

func nonNilClaims(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
