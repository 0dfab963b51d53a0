package jwt

import (
	"context"
	"fmt"

	"github.com/MrEthical07/jwtlab/token"
	gjwt "github.com/golang-jwt/jwt/v5"
)

// SignatureStatus is the tri-state outcome rendered for a token signature.
type SignatureStatus uint8

const (
	// SignatureUnverified means verification was not attempted (no key supplied).
	SignatureUnverified SignatureStatus = iota
	// SignatureValid means the signature verified against the supplied key.
	SignatureValid
	// SignatureInvalid means verification was attempted and failed.
	SignatureInvalid
)

func (s SignatureStatus) String() string {
	switch s {
	case SignatureValid:
		return "valid"
	case SignatureInvalid:
		return "invalid"
	default:
		return "unverified"
	}
}

// VerifyResult is the outcome of Verify. An empty Error with Valid false means the
// verification was not attempted; it must not be rendered as invalid.
type VerifyResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Attempted reports whether a cryptographic check actually ran.
func (r VerifyResult) Attempted() bool {
	return r.Valid || r.Error != ""
}

// Status maps the result onto the tri-state.
func (r VerifyResult) Status() SignatureStatus {
	switch {
	case r.Valid:
		return SignatureValid
	case r.Error != "":
		return SignatureInvalid
	default:
		return SignatureUnverified
	}
}

// Verifier checks compact token signatures against caller-supplied keys.
type Verifier struct{}

// NewVerifier returns a Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify checks compact against keys, restricted to the algorithm declared in
// decoded's header. It never panics and never returns an error; every failure is
// reported in the result.
func (v *Verifier) Verify(ctx context.Context, compact string, decoded token.Decoded, keys KeyMaterial) (res VerifyResult) {
	if keys.Secret == "" && keys.PublicKey == "" {
		return VerifyResult{}
	}

	alg := Algorithm(decoded.Algorithm())
	if !alg.Valid() {
		return VerifyResult{Error: fmt.Sprintf("unsupported algorithm %q", decoded.Algorithm())}
	}
	if !HasSufficientKeyForVerify(alg, keys) {
		return VerifyResult{Error: missingMaterialMessage(alg, false)}
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return VerifyResult{Error: err.Error()}
		}
	}

	defer func() {
		if r := recover(); r != nil {
			res = VerifyResult{Error: fmt.Sprintf("verification failed: %v", r)}
		}
	}()

	parser := gjwt.NewParser(
		gjwt.WithValidMethods([]string{string(alg)}),
		gjwt.WithoutClaimsValidation(),
		gjwt.WithPaddingAllowed(),
	)
	_, err := parser.Parse(compact, func(t *gjwt.Token) (any, error) {
		if t.Method == nil || t.Method.Alg() != string(alg) {
			return nil, fmt.Errorf("unexpected signing algorithm")
		}
		return verifyKey(alg, keys)
	})
	if err != nil {
		return VerifyResult{Error: err.Error()}
	}
	return VerifyResult{Valid: true}
}
