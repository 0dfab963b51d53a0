package jwt

import (
	"fmt"
	"strings"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// Algorithm is a JWS "alg" value.
type Algorithm string

const (
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"
	PS256 Algorithm = "PS256"
	PS384 Algorithm = "PS384"
	PS512 Algorithm = "PS512"
	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
	ES512 Algorithm = "ES512"
)

var algorithms = []Algorithm{
	HS256, HS384, HS512,
	RS256, RS384, RS512,
	PS256, PS384, PS512,
	ES256, ES384, ES512,
}

// Algorithms returns the supported algorithms in display order.
func Algorithms() []Algorithm {
	out := make([]Algorithm, len(algorithms))
	copy(out, algorithms)
	return out
}

// ParseAlgorithm accepts an alg name case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	alg := Algorithm(strings.ToUpper(strings.TrimSpace(s)))
	if !alg.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
	return alg, nil
}

// Valid reports whether alg is one of the supported algorithms.
func (a Algorithm) Valid() bool {
	for _, alg := range algorithms {
		if a == alg {
			return true
		}
	}
	return false
}

func (a Algorithm) String() string { return string(a) }

// Family is the cryptographic scheme implied by the alg prefix.
type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyHMAC
	FamilyRSA
	FamilyRSAPSS
	FamilyECDSA
)

func (f Family) String() string {
	switch f {
	case FamilyHMAC:
		return "HMAC"
	case FamilyRSA:
		return "RSA"
	case FamilyRSAPSS:
		return "RSA-PSS"
	case FamilyECDSA:
		return "ECDSA"
	default:
		return "unknown"
	}
}

// Family derives the family from the two-letter prefix.
func (a Algorithm) Family() Family {
	if len(a) < 2 {
		return FamilyUnknown
	}
	switch string(a[:2]) {
	case "HS":
		return FamilyHMAC
	case "RS":
		return FamilyRSA
	case "PS":
		return FamilyRSAPSS
	case "ES":
		return FamilyECDSA
	default:
		return FamilyUnknown
	}
}

// Slot names the key material an algorithm family consumes.
type Slot uint8

const (
	SlotNone Slot = iota
	SlotSecret
	SlotPublicPrivate
)

func (s Slot) String() string {
	switch s {
	case SlotSecret:
		return "secret"
	case SlotPublicPrivate:
		return "publicPrivate"
	default:
		return "none"
	}
}

// RequiredSlot maps an algorithm to the key slot it needs. Unknown algorithms need none.
func RequiredSlot(alg Algorithm) Slot {
	switch alg.Family() {
	case FamilyHMAC:
		return SlotSecret
	case FamilyRSA, FamilyRSAPSS, FamilyECDSA:
		return SlotPublicPrivate
	default:
		return SlotNone
	}
}

// Method returns the golang-jwt signing method for alg.
func (a Algorithm) Method() (gjwt.SigningMethod, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
	}
	method := gjwt.GetSigningMethod(string(a))
	if method == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
	}
	return method, nil
}
