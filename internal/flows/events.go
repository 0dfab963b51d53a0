package flows

import (
	"github.com/MrEthical07/jwtlab/jwt"
	"github.com/MrEthical07/jwtlab/token"
)

// Event is an input to Apply.
type Event interface {
	event()
}

// TokenReplaced carries token text supplied from outside the session.
type TokenReplaced struct {
	Token string
}

// EditingStarted switches the session into claims editing.
type EditingStarted struct{}

// EditingEnded leaves claims editing; buffers resynchronize from the token.
type EditingEnded struct{}

// ClaimsEdited carries the raw header and payload buffers.
type ClaimsEdited struct {
	Header  string
	Payload string
}

// KeysChanged replaces the whole key material.
type KeysChanged struct {
	Keys jwt.KeyMaterial
}

// AlgorithmSwitched changes header.alg. Keys are merged into their slots; Header and
// Claims are used only when there is no decoded token to carry over.
type AlgorithmSwitched struct {
	Algorithm jwt.Algorithm
	Keys      jwt.KeyMaterial
	Header    map[string]any
	Claims    map[string]any
	Preset    string
}

// CommonClaimsAdded fills the registered claims missing from Payload, then signs.
type CommonClaimsAdded struct {
	Header  string
	Payload string
}

// VerifyCompleted carries the result of a VerifyEffect.
type VerifyCompleted struct {
	Gen    uint64
	Result jwt.VerifyResult
}

// SignCompleted carries the result of a SignEffect.
type SignCompleted struct {
	Ticket  Ticket
	Header  map[string]any
	Payload map[string]any
	Token   string
	Err     error
}

func (TokenReplaced) event()     {}
func (EditingStarted) event()    {}
func (EditingEnded) event()      {}
func (ClaimsEdited) event()      {}
func (KeysChanged) event()       {}
func (AlgorithmSwitched) event() {}
func (CommonClaimsAdded) event() {}
func (VerifyCompleted) event()   {}
func (SignCompleted) event()     {}

// ChannelOf returns the input channel an event belongs to. Completion and mode
// events report ok=false.
func ChannelOf(ev Event) (Channel, bool) {
	switch ev.(type) {
	case TokenReplaced:
		return ChannelToken, true
	case ClaimsEdited, CommonClaimsAdded:
		return ChannelClaims, true
	case KeysChanged:
		return ChannelKey, true
	case AlgorithmSwitched:
		return ChannelAlgorithm, true
	default:
		return 0, false
	}
}

// Ticket identifies the state a sign effect was issued against.
type Ticket struct {
	Channel      Channel
	Gen          uint64
	Revision     uint64
	KeySignature string
}

// Effect is asynchronous work requested by Apply.
type Effect interface {
	effect()
}

// VerifyEffect asks for the current token to be verified.
type VerifyEffect struct {
	Gen     uint64
	Token   string
	Decoded token.Decoded
	Keys    jwt.KeyMaterial
}

// SignEffect asks for header and payload to be signed.
type SignEffect struct {
	Ticket  Ticket
	Header  map[string]any
	Payload map[string]any
	Keys    jwt.KeyMaterial
}

func (VerifyEffect) effect() {}
func (SignEffect) effect()   {}

// Signal flags notable outcomes of an Apply call.
type Signal uint32

const (
	SignalTokenChanged Signal = 1 << iota
	SignalDecodeFailed
	SignalResigned
	SignalPlaceholder
	SignalMissingKey
	SignalSignFailed
	SignalResignSuppressed
	SignalStaleResult
	SignalClaimsJSONInvalid
	SignalEchoIgnored
	SignalIgnored
	SignalVerified
	SignalEditingStarted
	SignalEditingEnded
	SignalKeysChanged
	SignalAlgorithmSwitched
)

// Has reports whether every flag in f is set.
func (s Signal) Has(f Signal) bool {
	return s&f == f && f != 0
}

// Outcome is the result of Apply.
type Outcome struct {
	State   State
	Effects []Effect
	Signals Signal
}
