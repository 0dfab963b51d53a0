package jwt

import (
	"encoding/hex"
	"fmt"
	"strings"

	gjwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"
)

// KeyMaterial holds caller-supplied keys. Only the slot relevant to the token's
// algorithm family is read; the others are kept untouched.
type KeyMaterial struct {
	Secret     string `json:"secret,omitempty"`
	PublicKey  string `json:"publicKey,omitempty"`  // PEM SPKI
	PrivateKey string `json:"privateKey,omitempty"` // PEM PKCS8
}

// IsZero reports whether no key is set at all.
func (k KeyMaterial) IsZero() bool {
	return k.Secret == "" && k.PublicKey == "" && k.PrivateKey == ""
}

// Merge overlays the non-empty fields of other onto k.
func (k KeyMaterial) Merge(other KeyMaterial) KeyMaterial {
	if other.Secret != "" {
		k.Secret = other.Secret
	}
	if other.PublicKey != "" {
		k.PublicKey = other.PublicKey
	}
	if other.PrivateKey != "" {
		k.PrivateKey = other.PrivateKey
	}
	return k
}

// String never prints key material.
func (k KeyMaterial) String() string {
	return fmt.Sprintf("KeyMaterial{secret:%t public:%t private:%t}", k.Secret != "", k.PublicKey != "", k.PrivateKey != "")
}

// HasSufficientKeyForVerify reports whether keys carry what alg needs to verify.
func HasSufficientKeyForVerify(alg Algorithm, keys KeyMaterial) bool {
	switch RequiredSlot(alg) {
	case SlotSecret:
		return keys.Secret != ""
	case SlotPublicPrivate:
		return strings.TrimSpace(keys.PublicKey) != ""
	default:
		return false
	}
}

// HasSufficientKeyForSign reports whether keys carry what alg needs to sign.
func HasSufficientKeyForSign(alg Algorithm, keys KeyMaterial) bool {
	switch RequiredSlot(alg) {
	case SlotSecret:
		return keys.Secret != ""
	case SlotPublicPrivate:
		return strings.TrimSpace(keys.PrivateKey) != ""
	default:
		return false
	}
}

// KeySignature fingerprints the signing-relevant key slot together with alg. Two
// calls return the same value iff signing with either input would use the same key
// under the same algorithm.
func KeySignature(alg Algorithm, keys KeyMaterial) string {
	var material string
	switch RequiredSlot(alg) {
	case SlotSecret:
		material = "secret:" + keys.Secret
	case SlotPublicPrivate:
		material = "private:" + strings.TrimSpace(keys.PrivateKey)
	}
	sum := blake2b.Sum256([]byte(string(alg) + "\x00" + material))
	return hex.EncodeToString(sum[:])
}

func missingMaterialMessage(alg Algorithm, forSign bool) string {
	family := alg.Family()
	switch RequiredSlot(alg) {
	case SlotSecret:
		return "secret required for " + family.String() + " algorithms"
	case SlotPublicPrivate:
		if forSign {
			return "private key required for " + family.String() + " algorithms"
		}
		return "public key required for " + family.String() + " algorithms"
	default:
		return "unsupported algorithm " + string(alg)
	}
}

func verifyKey(alg Algorithm, keys KeyMaterial) (any, error) {
	switch alg.Family() {
	case FamilyHMAC:
		return []byte(keys.Secret), nil
	case FamilyRSA, FamilyRSAPSS:
		pub, err := gjwt.ParseRSAPublicKeyFromPEM([]byte(keys.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("%w: rsa public key: %v", ErrInvalidKey, err)
		}
		return pub, nil
	case FamilyECDSA:
		pub, err := gjwt.ParseECPublicKeyFromPEM([]byte(keys.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("%w: ecdsa public key: %v", ErrInvalidKey, err)
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(alg))
	}
}

func signKey(alg Algorithm, keys KeyMaterial) (any, error) {
	switch alg.Family() {
	case FamilyHMAC:
		return []byte(keys.Secret), nil
	case FamilyRSA, FamilyRSAPSS:
		priv, err := gjwt.ParseRSAPrivateKeyFromPEM([]byte(keys.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("%w: rsa private key: %v", ErrInvalidKey, err)
		}
		return priv, nil
	case FamilyECDSA:
		priv, err := gjwt.ParseECPrivateKeyFromPEM([]byte(keys.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("%w: ecdsa private key: %v", ErrInvalidKey, err)
		}
		return priv, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(alg))
	}
}
