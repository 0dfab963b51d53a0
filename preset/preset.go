package preset

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/MrEthical07/jwtlab/jwt"
	"github.com/MrEthical07/jwtlab/token"
)

//go:embed keys/*.pem
var keyFS embed.FS

// ErrUnknownPreset is returned by Lookup for names that are not in the table.
var ErrUnknownPreset = errors.New("unknown preset")

// DemoSecret is the shared secret used by the HMAC presets.
const DemoSecret = "your-256-bit-secret"

// Preset is a read-only demo configuration.
type Preset struct {
	Name        string
	Description string
	Algorithm   jwt.Algorithm
	Keys        jwt.KeyMaterial
	Header      map[string]any
	Claims      map[string]any
}

// Clone returns a deep copy so callers cannot alter the shared table.
func (p Preset) Clone() Preset {
	p.Header = token.CloneObject(p.Header)
	p.Claims = token.CloneObject(p.Claims)
	return p
}

var table = mustBuild()

// Lookup returns the preset registered under name (case-insensitive).
func Lookup(name string) (Preset, error) {
	p, ok := table[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p.Clone(), nil
}

// ForAlgorithm returns the preset for alg.
func ForAlgorithm(alg jwt.Algorithm) (Preset, error) {
	return Lookup(string(alg))
}

// Names lists the preset names in algorithm order.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	order := make(map[string]int, len(names))
	for i, alg := range jwt.Algorithms() {
		order[string(alg)] = i
	}
	sort.Slice(names, func(i, j int) bool { return order[names[i]] < order[names[j]] })
	return names
}

// SampleClaims returns the payload used when no token has been decoded yet.
func SampleClaims() map[string]any {
	return map[string]any{
		"sub":   "1234567890",
		"name":  "John Doe",
		"admin": true,
		"iat":   float64(1516239022),
	}
}

func mustBuild() map[string]Preset {
	rsaKeys := jwt.KeyMaterial{
		PublicKey:  mustKey("rsa_public.pem"),
		PrivateKey: mustKey("rsa_private.pem"),
	}
	ecKeys := map[jwt.Algorithm]jwt.KeyMaterial{
		jwt.ES256: {PublicKey: mustKey("ec_p256_public.pem"), PrivateKey: mustKey("ec_p256_private.pem")},
		jwt.ES384: {PublicKey: mustKey("ec_p384_public.pem"), PrivateKey: mustKey("ec_p384_private.pem")},
		jwt.ES512: {PublicKey: mustKey("ec_p521_public.pem"), PrivateKey: mustKey("ec_p521_private.pem")},
	}

	out := make(map[string]Preset, len(jwt.Algorithms()))
	for _, alg := range jwt.Algorithms() {
		p := Preset{
			Name:      string(alg),
			Algorithm: alg,
			Header:    map[string]any{"alg": string(alg), "typ": "JWT"},
			Claims:    SampleClaims(),
		}
		switch alg.Family() {
		case jwt.FamilyHMAC:
			p.Keys = jwt.KeyMaterial{Secret: DemoSecret}
			p.Description = "HMAC using SHA-" + alg.String()[2:] + " with a shared secret"
		case jwt.FamilyRSA:
			p.Keys = rsaKeys
			p.Description = "RSASSA-PKCS1-v1_5 using SHA-" + alg.String()[2:]
		case jwt.FamilyRSAPSS:
			p.Keys = rsaKeys
			p.Description = "RSASSA-PSS using SHA-" + alg.String()[2:]
		case jwt.FamilyECDSA:
			p.Keys = ecKeys[alg]
			p.Description = "ECDSA using " + curveName(alg) + " and SHA-" + alg.String()[2:]
		}
		out[p.Name] = p
	}
	return out
}

func curveName(alg jwt.Algorithm) string {
	switch alg {
	case jwt.ES384:
		return "P-384"
	case jwt.ES512:
		return "P-521"
	default:
		return "P-256"
	}
}

func mustKey(name string) string {
	b, err := keyFS.ReadFile("keys/" + name)
	if err != nil {
		panic("preset: missing embedded key " + name)
	}
	return string(b)
}
