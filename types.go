package jwtlab

import (
	"github.com/MrEthical07/jwtlab/internal/flows"
	"github.com/MrEthical07/jwtlab/jwt"
)

// ValidationState is the derived view of the session token.
// Decoded is non-nil iff IsValidFormat; IsSignatureValid is nil when verification
// was not attempted.
type ValidationState = flows.Validation

// Notice is a non-error hint shown next to the token.
type Notice = flows.Notice

const (
	NoticeNone       = flows.NoticeNone
	NoticeProvideKey = flows.NoticeProvideKey
	NoticeSignFailed = flows.NoticeSignFailed
)

// PlaceholderSignature is the signature segment of the demo token issued while no
// signing key is available.
const PlaceholderSignature = flows.PlaceholderSignature

// Phase is the coarse state-machine position.
type Phase = flows.Phase

const (
	PhaseEmpty   = flows.PhaseEmpty
	PhaseInvalid = flows.PhaseInvalid
	PhaseDecoded = flows.PhaseDecoded
)

// Snapshot is a consistent, deep-copied view of a Session.
type Snapshot struct {
	Token         string
	Keys          jwt.KeyMaterial
	HeaderText    string
	PayloadText   string
	Editing       bool
	Phase         Phase
	Validation    ValidationState
	Signature     jwt.SignatureStatus
	VerifyPending bool
	Notice        Notice
	NoticeMessage string
	Placeholder   bool
	// Revision increments each time Token is replaced.
	Revision uint64
	// Sequence increments on every applied transition.
	Sequence uint64
}

func snapshotOf(s flows.State, seq uint64) Snapshot {
	v := s.Validation.Clone()
	return Snapshot{
		Token:         s.Token,
		Keys:          s.Keys,
		HeaderText:    s.HeaderText,
		PayloadText:   s.PayloadText,
		Editing:       s.Editing,
		Phase:         s.Phase(),
		Validation:    v,
		Signature:     v.Status(),
		VerifyPending: s.VerifyPending,
		Notice:        s.Notice,
		NoticeMessage: s.NoticeMessage,
		Placeholder:   s.Placeholder,
		Revision:      s.TokenRevision,
		Sequence:      seq,
	}
}

// Observer receives a snapshot after every applied transition. Calls may arrive
// from several goroutines; order them by Sequence.
type Observer func(Snapshot)
