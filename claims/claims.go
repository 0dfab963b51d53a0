package claims

import (
	"encoding/json"
	"math"
	"time"

	"github.com/MrEthical07/jwtlab/token"
	"github.com/google/uuid"
)

// Registered claim names (RFC 7519 section 4.1).
const (
	Issuer    = "iss"
	Subject   = "sub"
	Audience  = "aud"
	ExpiresAt = "exp"
	NotBefore = "nbf"
	IssuedAt  = "iat"
	JWTID     = "jti"
)

// Defaults configures the values AddCommon fills in.
type Defaults struct {
	Issuer   string
	Subject  string
	Audience string
	TTL      time.Duration
	// NewID generates jti values; uuid.NewString when nil.
	NewID func() string
}

// DefaultDefaults returns the values used by the interactive tool.
func DefaultDefaults() Defaults {
	return Defaults{
		Issuer:   "https://example.com",
		Subject:  "user-123",
		Audience: "https://api.example.com",
		TTL:      time.Hour,
	}
}

// AddCommon returns a copy of payload with iss, sub, aud, iat, exp, nbf and jti set
// where they are absent. Existing values are never replaced and payload is not mutated.
func AddCommon(payload map[string]any, now time.Time, d Defaults) map[string]any {
	out := token.CloneObject(payload)
	if out == nil {
		out = map[string]any{}
	}
	if d.TTL <= 0 {
		d.TTL = time.Hour
	}
	newID := d.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	iat := now.Unix()
	setIfAbsent(out, Issuer, d.Issuer)
	setIfAbsent(out, Subject, d.Subject)
	setIfAbsent(out, Audience, d.Audience)
	setIfAbsent(out, IssuedAt, float64(iat))
	setIfAbsent(out, ExpiresAt, float64(iat+int64(d.TTL/time.Second)))
	setIfAbsent(out, NotBefore, float64(iat))
	if _, ok := out[JWTID]; !ok {
		out[JWTID] = newID()
	}
	return out
}

func setIfAbsent(m map[string]any, key string, value any) {
	if _, ok := m[key]; ok {
		return
	}
	if s, ok := value.(string); ok && s == "" {
		return
	}
	m[key] = value
}

// NumericDate reads a numeric claim in seconds since the epoch.
func NumericDate(payload map[string]any, name string) (float64, bool) {
	switch v := payload[name].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Timestamp returns a numeric date claim as time.
func Timestamp(payload map[string]any, name string) (time.Time, bool) {
	secs, ok := NumericDate(payload, name)
	if !ok {
		return time.Time{}, false
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)), true
}

// Expired reports whether payload.exp is a number strictly before now (unix seconds).
// A missing or non-numeric exp is never expired.
func Expired(payload map[string]any, now time.Time) bool {
	exp, ok := NumericDate(payload, ExpiresAt)
	if !ok {
		return false
	}
	return exp < float64(now.Unix())
}

var descriptions = map[string]string{
	Issuer:    "Issuer: principal that issued the token",
	Subject:   "Subject: principal the token is about",
	Audience:  "Audience: recipients the token is intended for",
	ExpiresAt: "Expiration time: token must not be accepted on or after this time",
	NotBefore: "Not before: token must not be accepted before this time",
	IssuedAt:  "Issued at: time the token was issued",
	JWTID:     "JWT ID: unique identifier of the token",
	"alg":     "Algorithm used to sign the token",
	"typ":     "Media type of the token",
	"kid":     "Key ID hint for selecting the verification key",
	"cty":     "Content type of the payload",
}

// Describe returns a short description of a registered claim or header parameter,
// or "" for custom names.
func Describe(name string) string {
	return descriptions[name]
}

// IsRegistered reports whether name is one of the seven registered claims.
func IsRegistered(name string) bool {
	switch name {
	case Issuer, Subject, Audience, ExpiresAt, NotBefore, IssuedAt, JWTID:
		return true
	}
	return false
}
