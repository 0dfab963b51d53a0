package jwt

import (
	"crypto"
	"errors"
	"fmt"

	"github.com/MrEthical07/jwtlab/token"
	jose "github.com/go-jose/go-jose/v4"
)

// PublicJWK renders the public key of an asymmetric key pair as a JWK. When kid is
// empty the RFC 7638 SHA-256 thumbprint is used. HMAC secrets are never exported.
func PublicJWK(alg Algorithm, keys KeyMaterial, kid string) ([]byte, error) {
	if RequiredSlot(alg) != SlotPublicPrivate {
		return nil, fmt.Errorf("%w: %s keys are not exportable as JWK", ErrKeyAlgorithmMismatch, alg.Family())
	}
	if !HasSufficientKeyForVerify(alg, keys) {
		return nil, ErrMissingKeyMaterial
	}
	pub, err := verifyKey(alg, keys)
	if err != nil {
		return nil, err
	}

	jwk := jose.JSONWebKey{
		Key:       pub,
		Algorithm: string(alg),
		Use:       "sig",
	}
	if !jwk.Valid() {
		return nil, errors.New("public key rejected by jwk encoder")
	}
	if kid == "" {
		tp, err := jwk.Thumbprint(crypto.SHA256)
		if err != nil {
			return nil, fmt.Errorf("jwk thumbprint: %w", err)
		}
		kid = token.EncodeSegment(tp)
	}
	jwk.KeyID = kid

	out, err := jwk.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal jwk: %w", err)
	}
	return out, nil
}
