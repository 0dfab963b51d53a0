package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxTokenLength bounds the input accepted by Decode.
const MaxTokenLength = 64 << 10

// Decoded is the structured view of a compact token. Signature is the raw third
// segment, kept verbatim.
type Decoded struct {
	Header    map[string]any `json:"header"`
	Payload   map[string]any `json:"payload"`
	Signature string         `json:"signature"`
}

// Algorithm returns header.alg, or "" when it is absent or not a string.
func (d Decoded) Algorithm() string {
	alg, _ := d.Header["alg"].(string)
	return alg
}

// HasSignature reports whether the third segment is non-empty.
func (d Decoded) HasSignature() bool {
	return d.Signature != ""
}

// Clone returns a deep copy of the decoded token.
func (d Decoded) Clone() Decoded {
	return Decoded{
		Header:    CloneObject(d.Header),
		Payload:   CloneObject(d.Payload),
		Signature: d.Signature,
	}
}

// Segments holds the encoded header and payload of a token.
type Segments struct {
	Header  string
	Payload string
}

// SigningInput returns "header.payload".
func (s Segments) SigningInput() string {
	return s.Header + "." + s.Payload
}

// Decode splits a compact token and decodes its header and payload. It never panics;
// all failures are returned as *DecodeError.
func Decode(compact string) (Decoded, error) {
	if len(compact) > MaxTokenLength {
		return Decoded{}, &DecodeError{Kind: KindMalformed, Err: fmt.Errorf("token exceeds %d bytes", MaxTokenLength)}
	}

	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		return Decoded{}, &DecodeError{Kind: KindMalformed, Err: fmt.Errorf("expected 3 segments, got %d", len(parts))}
	}

	header, err := decodeObject(parts[0], "header")
	if err != nil {
		return Decoded{}, err
	}
	payload, err := decodeObject(parts[1], "payload")
	if err != nil {
		return Decoded{}, err
	}

	return Decoded{
		Header:    header,
		Payload:   payload,
		Signature: parts[2],
	}, nil
}

// DecodeSegment base64url-decodes a single segment. Standard-alphabet characters and
// trailing padding are tolerated.
func DecodeSegment(segment string) ([]byte, error) {
	s := strings.TrimRight(segment, "=")
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	return base64.RawURLEncoding.DecodeString(s)
}

// EncodeSegment base64url-encodes raw bytes without padding.
func EncodeSegment(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// EncodeHeaderPayload serializes header and payload into their segments.
func EncodeHeaderPayload(header, payload map[string]any) (Segments, error) {
	h, err := json.Marshal(nonNil(header))
	if err != nil {
		return Segments{}, fmt.Errorf("encode header: %w", err)
	}
	p, err := json.Marshal(nonNil(payload))
	if err != nil {
		return Segments{}, fmt.Errorf("encode payload: %w", err)
	}
	return Segments{Header: EncodeSegment(h), Payload: EncodeSegment(p)}, nil
}

// Encode assembles a compact token from a header, payload and an already encoded
// signature segment.
func Encode(header, payload map[string]any, signature string) (string, error) {
	seg, err := EncodeHeaderPayload(header, payload)
	if err != nil {
		return "", err
	}
	return seg.SigningInput() + "." + signature, nil
}

// Pretty renders an object as two-space indented JSON for display and editing.
func Pretty(obj map[string]any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nonNil(obj)); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}

// ParseObject parses text as a JSON object. Arrays, scalars and null are rejected.
func ParseObject(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("json value is not an object")
	}
	return obj, nil
}

// CloneObject deep-copies a JSON object produced by encoding/json.
func CloneObject(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneObject(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

func decodeObject(segment, name string) (map[string]any, error) {
	raw, err := DecodeSegment(segment)
	if err != nil {
		return nil, &DecodeError{Kind: KindInvalidBase64, Segment: name, Err: err}
	}
	obj, err := ParseObject(string(raw))
	if err != nil {
		return nil, &DecodeError{Kind: KindInvalidJSON, Segment: name, Err: err}
	}
	return obj, nil
}

func nonNil(obj map[string]any) map[string]any {
	if obj == nil {
		return map[string]any{}
	}
	return obj
}
