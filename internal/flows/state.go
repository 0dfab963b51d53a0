package flows

import (
	"errors"
	"time"

	"github.com/MrEthical07/jwtlab/claims"
	"github.com/MrEthical07/jwtlab/jwt"
	"github.com/MrEthical07/jwtlab/token"
)

// PlaceholderSignature is the third segment of the demo token shown while no
// signing key is available.
const PlaceholderSignature = "unsigned-placeholder"

// Channel names an independent input stream with its own debounce and generation.
type Channel uint8

const (
	ChannelToken Channel = iota
	ChannelClaims
	ChannelKey
	ChannelAlgorithm
	channelCount
)

func (c Channel) String() string {
	switch c {
	case ChannelToken:
		return "token"
	case ChannelClaims:
		return "claims"
	case ChannelKey:
		return "key"
	case ChannelAlgorithm:
		return "algorithm"
	default:
		return "unknown"
	}
}

// Channels lists every input channel.
func Channels() []Channel {
	return []Channel{ChannelToken, ChannelClaims, ChannelKey, ChannelAlgorithm}
}

// Notice is a non-error hint for the presentation layer.
type Notice uint8

const (
	NoticeNone Notice = iota
	NoticeProvideKey
	NoticeSignFailed
)

func (n Notice) String() string {
	switch n {
	case NoticeProvideKey:
		return "provide key to sign"
	case NoticeSignFailed:
		return "signing failed"
	default:
		return ""
	}
}

// Origin tells whether the current token was produced by the session or supplied from outside.
type Origin uint8

const (
	OriginNone Origin = iota
	OriginExternal
	OriginSession
)

// Validation is the derived view of the current token.
// Decoded is non-nil iff IsValidFormat. IsSignatureValid is nil when verification
// was not attempted.
type Validation struct {
	IsValidFormat    bool
	IsSignatureValid *bool
	Decoded          *token.Decoded
	Algorithm        string
	Expired          bool
	FormatError      string
	SignatureError   string
}

// Status collapses IsSignatureValid into the tri-state.
func (v Validation) Status() jwt.SignatureStatus {
	switch {
	case v.IsSignatureValid == nil:
		return jwt.SignatureUnverified
	case *v.IsSignatureValid:
		return jwt.SignatureValid
	default:
		return jwt.SignatureInvalid
	}
}

// Clone deep-copies the decoded claims.
func (v Validation) Clone() Validation {
	if v.Decoded != nil {
		d := v.Decoded.Clone()
		v.Decoded = &d
	}
	if v.IsSignatureValid != nil {
		b := *v.IsSignatureValid
		v.IsSignatureValid = &b
	}
	return v
}

// FormatKind classifies the format error, KindMalformed when the token is empty.
func FormatKind(err error) token.Kind {
	var de *token.DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return token.KindMalformed
}

// Validate decodes compact and derives format, algorithm and expiry. The signature
// fields are left unverified.
func Validate(compact string, now time.Time, leeway time.Duration) Validation {
	if compact == "" {
		return Validation{}
	}
	decoded, err := token.Decode(compact)
	if err != nil {
		return Validation{FormatError: err.Error()}
	}
	return decodedValidation(decoded, now, leeway)
}

func decodedValidation(decoded token.Decoded, now time.Time, leeway time.Duration) Validation {
	return Validation{
		IsValidFormat: true,
		Decoded:       &decoded,
		Algorithm:     decoded.Algorithm(),
		Expired:       claims.Expired(decoded.Payload, now.Add(-leeway)),
	}
}

// State is the complete session state. Apply never mutates maps reachable from a
// State it was given; it replaces them.
type State struct {
	Token                   string
	Keys                    jwt.KeyMaterial
	HeaderText              string
	PayloadText             string
	Editing                 bool
	LastAppliedKeySignature string

	Validation    Validation
	VerifyPending bool
	Notice        Notice
	NoticeMessage string
	Placeholder   bool
	Origin        Origin

	// PendingAlgorithm is the algorithm switch whose signing is in flight.
	PendingAlgorithm AlgorithmSign

	// TokenRevision increments every time Token is replaced.
	TokenRevision uint64
	VerifyGen     uint64
	Generations   [channelCount]uint64
}

// AlgorithmSign is the header and payload an algorithm switch is signing.
// The zero value means no switch is pending.
type AlgorithmSign struct {
	Algorithm jwt.Algorithm
	Header    map[string]any
	Payload   map[string]any
}

// Pending reports whether a switch is waiting for its signature.
func (p AlgorithmSign) Pending() bool {
	return p.Algorithm.Valid()
}

// Generation returns the current generation of ch.
func (s State) Generation(ch Channel) uint64 {
	if ch >= channelCount {
		return 0
	}
	return s.Generations[ch]
}

// Phase names the coarse state-machine position.
type Phase uint8

const (
	PhaseEmpty Phase = iota
	PhaseInvalid
	PhaseDecoded
)

func (p Phase) String() string {
	switch p {
	case PhaseInvalid:
		return "invalid"
	case PhaseDecoded:
		return "decoded"
	default:
		return "empty"
	}
}

// Phase derives the coarse state from Token and Validation.
func (s State) Phase() Phase {
	switch {
	case s.Token == "" && s.Validation.Decoded == nil:
		return PhaseEmpty
	case s.Validation.IsValidFormat:
		return PhaseDecoded
	default:
		return PhaseInvalid
	}
}
