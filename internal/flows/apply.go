package flows

import (
	"errors"
	"time"

	"github.com/MrEthical07/jwtlab/claims"
	"github.com/MrEthical07/jwtlab/jwt"
	"github.com/MrEthical07/jwtlab/token"
)

// Deps carries the clock and policy knobs Apply depends on.
type Deps struct {
	Now                   func() time.Time
	ExpiryLeeway          time.Duration
	AutoResignOnKeyChange bool
	// PreserveExternalTokens keeps a token pasted from outside as is when the key
	// changes. It is only re-verified.
	PreserveExternalTokens bool
	CommonClaims           claims.Defaults
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

type applier struct {
	s       State
	deps    Deps
	effects []Effect
	signals Signal
}

// Apply computes the next state for ev. It is pure: effects are returned, not run.
func Apply(s State, ev Event, deps Deps) Outcome {
	a := &applier{s: s, deps: deps}

	switch e := ev.(type) {
	case TokenReplaced:
		a.tokenReplaced(e)
	case EditingStarted:
		a.editingStarted()
	case EditingEnded:
		a.editingEnded()
	case ClaimsEdited:
		a.claimsEdited(e)
	case KeysChanged:
		a.keysChanged(e)
	case AlgorithmSwitched:
		a.algorithmSwitched(e)
	case CommonClaimsAdded:
		a.commonClaimsAdded(e)
	case VerifyCompleted:
		a.verifyCompleted(e)
	case SignCompleted:
		a.signCompleted(e)
	default:
		a.signal(SignalIgnored)
	}

	return Outcome{State: a.s, Effects: a.effects, Signals: a.signals}
}

func (a *applier) signal(f Signal) {
	a.signals |= f
}

func (a *applier) tokenReplaced(e TokenReplaced) {
	a.s.Generations[ChannelToken]++
	if e.Token == a.s.Token {
		// The token text is left alone, editing still ends.
		a.editingEnded()
		a.signal(SignalEchoIgnored)
		return
	}

	// An outside token supersedes claims signing still in flight.
	a.s.Generations[ChannelClaims]++
	if a.s.Editing {
		a.s.Editing = false
		a.signal(SignalEditingEnded)
	}
	a.replaceToken(e.Token, OriginExternal)
}

func (a *applier) editingStarted() {
	if a.s.Editing {
		return
	}
	a.s.Editing = true
	a.signal(SignalEditingStarted)
}

func (a *applier) editingEnded() {
	if !a.s.Editing {
		return
	}
	a.s.Editing = false
	a.signal(SignalEditingEnded)

	prev := a.s.Validation
	a.s.Validation = Validate(a.s.Token, a.deps.now(), a.deps.ExpiryLeeway)
	if d := a.s.Validation.Decoded; d != nil {
		a.s.HeaderText = token.Pretty(d.Header)
		a.s.PayloadText = token.Pretty(d.Payload)
	}
	if prev.Decoded != nil && a.s.Validation.Decoded != nil && prev.Decoded.Signature == a.s.Validation.Decoded.Signature {
		a.s.Validation.IsSignatureValid = prev.IsSignatureValid
		a.s.Validation.SignatureError = prev.SignatureError
	} else {
		a.issueVerify()
	}
	if !a.s.Placeholder {
		a.s.Notice, a.s.NoticeMessage = NoticeNone, ""
	}
}

func (a *applier) claimsEdited(e ClaimsEdited) {
	if !a.s.Editing {
		a.signal(SignalIgnored)
		return
	}
	header, payload, ok := a.parseBuffers(e.Header, e.Payload)
	if !ok {
		return
	}
	a.s.HeaderText, a.s.PayloadText = e.Header, e.Payload
	a.signClaims(header, payload)
}

func (a *applier) keysChanged(e KeysChanged) {
	// Signing in flight on either channel used the previous keys.
	pending := a.s.PendingAlgorithm
	a.s.PendingAlgorithm = AlgorithmSign{}
	a.s.Generations[ChannelKey]++
	a.s.Generations[ChannelAlgorithm]++
	a.s.Keys = e.Keys
	a.signal(SignalKeysChanged)
	a.issueVerify()

	switch {
	case a.s.Editing:
		a.resignBuffers()
	case pending.Pending():
		a.resignAlgorithm(pending)
	default:
		a.resignDecoded()
	}
}

// resignAlgorithm finishes an algorithm switch with the keys that replaced the
// ones it was issued with. The token on screen still carries the old algorithm.
func (a *applier) resignAlgorithm(p AlgorithmSign) {
	header, payload := token.CloneObject(p.Header), token.CloneObject(p.Payload)
	if !jwt.HasSufficientKeyForSign(p.Algorithm, a.s.Keys) {
		a.placeholder(header, payload)
		return
	}
	a.signAlgorithm(p.Algorithm, header, payload)
}

// resignBuffers routes a key change through the claims channel while editing.
func (a *applier) resignBuffers() {
	header, payload, ok := a.parseBuffers(a.s.HeaderText, a.s.PayloadText)
	if !ok {
		return
	}
	if alg, err := jwt.ParseAlgorithm(algOf(header)); err == nil {
		if jwt.KeySignature(alg, a.s.Keys) == a.s.LastAppliedKeySignature && a.s.Notice == NoticeNone {
			a.signal(SignalResignSuppressed)
			return
		}
	}
	a.signClaims(header, payload)
}

func (a *applier) resignDecoded() {
	if !a.deps.AutoResignOnKeyChange {
		return
	}
	d := a.s.Validation.Decoded
	if d == nil {
		return
	}
	if a.s.Origin == OriginExternal && a.deps.PreserveExternalTokens {
		return
	}
	alg, err := jwt.ParseAlgorithm(d.Algorithm())
	if err != nil {
		return
	}

	// Set only after a successful sign, so an equal value means these keys already
	// produced the current token.
	if jwt.KeySignature(alg, a.s.Keys) == a.s.LastAppliedKeySignature {
		a.signal(SignalResignSuppressed)
		return
	}
	if !jwt.HasSufficientKeyForSign(alg, a.s.Keys) {
		return
	}
	a.requestSign(ChannelKey, alg, token.CloneObject(d.Header), token.CloneObject(d.Payload))
}

func (a *applier) algorithmSwitched(e AlgorithmSwitched) {
	if !e.Algorithm.Valid() {
		a.signal(SignalIgnored)
		return
	}
	a.s.Generations[ChannelAlgorithm]++
	a.s.Generations[ChannelClaims]++
	a.s.Generations[ChannelKey]++
	a.s.Keys = a.s.Keys.Merge(e.Keys)
	a.signal(SignalAlgorithmSwitched)

	var header, payload map[string]any
	if d := a.s.Validation.Decoded; d != nil {
		header, payload = token.CloneObject(d.Header), token.CloneObject(d.Payload)
	} else {
		header, payload = token.CloneObject(e.Header), token.CloneObject(e.Claims)
	}
	if header == nil {
		header = map[string]any{"typ": "JWT"}
	}
	if payload == nil {
		payload = map[string]any{}
	}
	header["alg"] = string(e.Algorithm)

	a.s.HeaderText = token.Pretty(header)
	a.s.PayloadText = token.Pretty(payload)

	if !jwt.HasSufficientKeyForSign(e.Algorithm, a.s.Keys) {
		a.placeholder(header, payload)
		return
	}
	a.signAlgorithm(e.Algorithm, header, payload)
}

func (a *applier) signAlgorithm(alg jwt.Algorithm, header, payload map[string]any) {
	a.s.PendingAlgorithm = AlgorithmSign{Algorithm: alg, Header: header, Payload: payload}
	a.requestSign(ChannelAlgorithm, alg, header, payload)
}

func (a *applier) commonClaimsAdded(e CommonClaimsAdded) {
	header, payload, ok := a.parseBuffers(e.Header, e.Payload)
	if !ok {
		return
	}
	payload = claims.AddCommon(payload, a.deps.now(), a.deps.CommonClaims)

	if !a.s.Editing {
		a.s.Editing = true
		a.signal(SignalEditingStarted)
	}
	a.s.HeaderText = e.Header
	a.s.PayloadText = token.Pretty(payload)
	a.signClaims(header, payload)
}

func (a *applier) verifyCompleted(e VerifyCompleted) {
	if e.Gen != a.s.VerifyGen {
		a.signal(SignalStaleResult)
		return
	}
	a.s.VerifyPending = false
	if e.Result.Attempted() {
		valid := e.Result.Valid
		a.s.Validation.IsSignatureValid = &valid
	} else {
		a.s.Validation.IsSignatureValid = nil
	}
	a.s.Validation.SignatureError = e.Result.Error
	a.signal(SignalVerified)
}

func (a *applier) signCompleted(e SignCompleted) {
	t := e.Ticket
	if t.Channel >= channelCount || t.Gen != a.s.Generations[t.Channel] {
		a.signal(SignalStaleResult)
		return
	}
	// Key and algorithm signing re-sign the token they were issued against.
	if t.Channel != ChannelClaims && t.Revision != a.s.TokenRevision {
		a.signal(SignalStaleResult)
		return
	}
	if t.Channel == ChannelAlgorithm {
		a.s.PendingAlgorithm = AlgorithmSign{}
	}
	if e.Err == nil && !a.signedWithCurrentKeys(t, e.Header) {
		a.signal(SignalStaleResult)
		return
	}

	switch {
	case errors.Is(e.Err, jwt.ErrMissingKeyMaterial):
		switch t.Channel {
		case ChannelClaims:
			a.showUnsigned(e.Header, e.Payload)
		case ChannelAlgorithm:
			a.placeholder(e.Header, e.Payload)
		default:
			a.signal(SignalMissingKey)
		}
	case e.Err != nil:
		a.s.Notice = NoticeSignFailed
		a.s.NoticeMessage = e.Err.Error()
		a.signal(SignalSignFailed)
	default:
		a.replaceToken(e.Token, OriginSession)
		a.s.LastAppliedKeySignature = t.KeySignature
		a.signal(SignalResigned)
	}
}

// signedWithCurrentKeys reports whether a signature was produced with the keys
// the session holds now.
func (a *applier) signedWithCurrentKeys(t Ticket, header map[string]any) bool {
	alg, err := jwt.ParseAlgorithm(algOf(header))
	if err != nil || t.KeySignature == "" {
		return true
	}
	return t.KeySignature == jwt.KeySignature(alg, a.s.Keys)
}

// signClaims signs edited claims, superseding key and algorithm signing in flight.
func (a *applier) signClaims(header, payload map[string]any) {
	a.s.Generations[ChannelClaims]++
	a.s.Generations[ChannelKey]++
	a.s.Generations[ChannelAlgorithm]++
	a.s.PendingAlgorithm = AlgorithmSign{}

	alg, err := jwt.ParseAlgorithm(algOf(header))
	if err == nil && !jwt.HasSufficientKeyForSign(alg, a.s.Keys) {
		a.showUnsigned(header, payload)
		return
	}
	a.requestSign(ChannelClaims, alg, header, payload)
}

func (a *applier) requestSign(ch Channel, alg jwt.Algorithm, header, payload map[string]any) {
	var sig string
	if alg.Valid() {
		sig = jwt.KeySignature(alg, a.s.Keys)
	}
	a.effects = append(a.effects, SignEffect{
		Ticket: Ticket{
			Channel:      ch,
			Gen:          a.s.Generations[ch],
			Revision:     a.s.TokenRevision,
			KeySignature: sig,
		},
		Header:  header,
		Payload: payload,
		Keys:    a.s.Keys,
	})
}

// showUnsigned displays claims that could not be signed yet. Token is untouched.
func (a *applier) showUnsigned(header, payload map[string]any) {
	a.s.Validation = decodedValidation(token.Decoded{Header: header, Payload: payload}, a.deps.now(), a.deps.ExpiryLeeway)
	a.s.VerifyGen++
	a.s.VerifyPending = false
	a.s.Notice = NoticeProvideKey
	a.s.NoticeMessage = NoticeProvideKey.String()
	a.signal(SignalMissingKey)
}

func (a *applier) placeholder(header, payload map[string]any) {
	tok, err := token.Encode(header, payload, PlaceholderSignature)
	if err != nil {
		a.s.Notice = NoticeSignFailed
		a.s.NoticeMessage = err.Error()
		a.signal(SignalSignFailed)
		return
	}
	a.replaceToken(tok, OriginSession)
	a.s.Placeholder = true
	a.s.Notice = NoticeProvideKey
	a.s.NoticeMessage = NoticeProvideKey.String()
	a.signal(SignalPlaceholder | SignalMissingKey)
}

func (a *applier) replaceToken(compact string, origin Origin) {
	a.s.Token = compact
	a.s.TokenRevision++
	a.s.PendingAlgorithm = AlgorithmSign{}
	a.s.Origin = origin
	if compact == "" {
		a.s.Origin = OriginNone
	}
	a.s.Placeholder = false
	a.s.Notice, a.s.NoticeMessage = NoticeNone, ""
	a.signal(SignalTokenChanged)

	a.s.Validation = Validate(compact, a.deps.now(), a.deps.ExpiryLeeway)
	if compact != "" && !a.s.Validation.IsValidFormat {
		a.signal(SignalDecodeFailed)
	}
	if d := a.s.Validation.Decoded; d != nil && !a.s.Editing {
		a.s.HeaderText = token.Pretty(d.Header)
		a.s.PayloadText = token.Pretty(d.Payload)
	}
	a.issueVerify()
}

func (a *applier) issueVerify() {
	a.s.VerifyGen++
	a.s.VerifyPending = false
	a.s.Validation.IsSignatureValid = nil
	a.s.Validation.SignatureError = ""

	if a.s.Token == "" {
		return
	}
	decoded, err := token.Decode(a.s.Token)
	if err != nil {
		return
	}
	a.s.VerifyPending = true
	a.effects = append(a.effects, VerifyEffect{
		Gen:     a.s.VerifyGen,
		Token:   a.s.Token,
		Decoded: decoded,
		Keys:    a.s.Keys,
	})
}

func (a *applier) parseBuffers(headerText, payloadText string) (map[string]any, map[string]any, bool) {
	header, err := token.ParseObject(headerText)
	if err != nil {
		a.signal(SignalClaimsJSONInvalid)
		return nil, nil, false
	}
	payload, err := token.ParseObject(payloadText)
	if err != nil {
		a.signal(SignalClaimsJSONInvalid)
		return nil, nil, false
	}
	return header, payload, true
}

func algOf(header map[string]any) string {
	alg, _ := header["alg"].(string)
	return alg
}
