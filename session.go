package jwtlab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	internalaudit "github.com/MrEthical07/jwtlab/internal/audit"
	"github.com/MrEthical07/jwtlab/internal/debounce"
	"github.com/MrEthical07/jwtlab/internal/flows"
	internalmetrics "github.com/MrEthical07/jwtlab/internal/metrics"
	"github.com/MrEthical07/jwtlab/jwt"
	"github.com/MrEthical07/jwtlab/preset"
)

const (
	// ExportFileName is the suggested file name for an exported token.
	ExportFileName = "jwt-token.txt"
	// ExportContentType is the MIME type of an exported token.
	ExportContentType = "text/plain"
)

// ErrNoToken is returned by Export when the session holds no token.
var ErrNoToken = errors.New("no token to export")

// Session is one interactive JWT editing session. It is safe for concurrent use.
//
// Inputs are grouped in four channels (token, claims, key, algorithm). Each channel
// is debounced independently; a newer input supersedes a pending one on the same
// channel. Every transition is applied under one mutex, while verification and
// signing run on their own goroutines and are discarded when their result is stale.
type Session struct {
	id        string
	cfg       Config
	deps      flows.Deps
	logger    *slog.Logger
	metrics   *internalmetrics.Metrics
	audit     *internalaudit.Dispatcher
	verifier  *jwt.Verifier
	signer    *jwt.Signer
	observers []Observer

	ctx        context.Context
	cancel     context.CancelFunc
	tracker    *debounce.Tracker
	debouncers [4]*debounce.Debouncer

	mu            sync.Mutex
	state         flows.State
	seq           uint64
	closed        bool
	pendingKeys   *jwt.KeyMaterial
	pendingClaims *claimsBuffers
}

type claimsBuffers struct {
	header  string
	payload string
}

// ID returns the random session identifier used in logs and audit events.
func (s *Session) ID() string {
	return s.id
}

// Config returns a copy of the active configuration.
func (s *Session) Config() Config {
	return cloneConfig(s.cfg)
}

/*
====================================
INPUTS
====================================
*/

// SetToken replaces the token text (paste, typing). Leaves editing mode.
func (s *Session) SetToken(compact string) error {
	return s.trigger(flows.ChannelToken, flows.TokenReplaced{Token: compact})
}

// SetKeys replaces the whole key material.
func (s *Session) SetKeys(keys jwt.KeyMaterial) error {
	return s.updateKeys(func(k *jwt.KeyMaterial) { *k = keys })
}

// SetSecret replaces the HMAC secret and keeps the PEM slots.
func (s *Session) SetSecret(secret string) error {
	return s.updateKeys(func(k *jwt.KeyMaterial) { k.Secret = secret })
}

// SetPublicKey replaces the PEM SPKI public key and keeps the other slots.
func (s *Session) SetPublicKey(pem string) error {
	return s.updateKeys(func(k *jwt.KeyMaterial) { k.PublicKey = pem })
}

// SetPrivateKey replaces the PEM PKCS8 private key and keeps the other slots.
func (s *Session) SetPrivateKey(pem string) error {
	return s.updateKeys(func(k *jwt.KeyMaterial) { k.PrivateKey = pem })
}

func (s *Session) updateKeys(mutate func(*jwt.KeyMaterial)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	keys := s.state.Keys
	if s.pendingKeys != nil {
		keys = *s.pendingKeys
	}
	mutate(&keys)
	s.pendingKeys = &keys
	s.mu.Unlock()

	return s.trigger(flows.ChannelKey, flows.KeysChanged{Keys: keys})
}

// BeginEdit enters claims editing. The header and payload buffers become
// authoritative until EndEdit or SetToken.
func (s *Session) BeginEdit() error {
	return s.apply(flows.EditingStarted{})
}

// EndEdit leaves claims editing. Edits still waiting for the debounce window are
// discarded and the buffers resynchronize from the token.
func (s *Session) EndEdit() error {
	s.debouncers[flows.ChannelClaims].Cancel()
	return s.apply(flows.EditingEnded{})
}

// EditClaims submits new header and payload text. It has effect only while
// editing; text that is not a JSON object leaves the session untouched.
func (s *Session) EditClaims(header, payload string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.pendingClaims = &claimsBuffers{header: header, payload: payload}
	s.mu.Unlock()

	return s.trigger(flows.ChannelClaims, flows.ClaimsEdited{Header: header, Payload: payload})
}

// AddCommonClaims fills iss, sub, aud, iat, exp, nbf and jti where absent in the
// payload buffer, enters editing and re-signs.
func (s *Session) AddCommonClaims() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	buf := claimsBuffers{header: s.state.HeaderText, payload: s.state.PayloadText}
	if s.pendingClaims != nil {
		buf = *s.pendingClaims
	}
	s.mu.Unlock()

	return s.trigger(flows.ChannelClaims, flows.CommonClaimsAdded{Header: buf.header, Payload: buf.payload})
}

// SwitchAlgorithm rewrites header.alg keeping the payload and re-signs with the
// keys already entered.
func (s *Session) SwitchAlgorithm(name string) error {
	alg, err := jwt.ParseAlgorithm(name)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	return s.trigger(flows.ChannelAlgorithm, flows.AlgorithmSwitched{Algorithm: alg})
}

// LoadPreset switches to the preset's algorithm and merges its demo keys into
// their slots. Keys of other families are kept.
func (s *Session) LoadPreset(name string) error {
	p, err := preset.Lookup(name)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return s.trigger(flows.ChannelAlgorithm, presetEvent(p))
}

/*
====================================
OUTPUTS
====================================
*/

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.state, s.seq)
}

// Token returns the current compact token.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Export writes the current token, as stored in [ExportFileName].
func (s *Session) Export(w io.Writer) (int, error) {
	tok := s.Token()
	if tok == "" {
		return 0, ErrNoToken
	}
	return io.WriteString(w, tok)
}

// Settle blocks until no debounced input and no verification or signing is pending.
func (s *Session) Settle(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}
	return s.tracker.Wait(ctx)
}

// Close cancels pending inputs, waits for running effects and flushes the audit
// dispatcher. It is idempotent.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	for _, d := range s.debouncers {
		if d != nil {
			d.Stop()
		}
	}
	s.cancel()
	_ = s.tracker.Wait(context.Background())
	s.audit.Close()
	return nil
}

// MetricsSnapshot returns the session counters. Empty when metrics are disabled.
func (s *Session) MetricsSnapshot() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return s.metrics.Snapshot()
}

// AuditDropped returns the number of audit events lost to backpressure.
func (s *Session) AuditDropped() uint64 {
	if s == nil {
		return 0
	}
	return s.audit.Dropped()
}

// AuditCoalesced returns the number of queued verify.completed events replaced
// by a newer verification of the same token.
func (s *Session) AuditCoalesced() uint64 {
	if s == nil {
		return 0
	}
	return s.audit.Coalesced()
}

/*
====================================
DISPATCH
====================================
*/

func (s *Session) trigger(ch flows.Channel, ev flows.Event) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	if s.debouncers[ch].Trigger(func() { s.dispatch(ev) }) {
		s.metrics.Inc(MetricDebounceSuperseded)
	}
	return nil
}

// apply dispatches without debouncing.
func (s *Session) apply(ev flows.Event) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}
	s.tracker.Add(1)
	defer s.tracker.Done()
	s.dispatch(ev)
	return nil
}

func (s *Session) dispatch(ev flows.Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	out := flows.Apply(s.state, ev, s.deps)
	s.state = out.State
	s.seq++
	s.clearPendingLocked(ev)

	var snap Snapshot
	if len(s.observers) > 0 {
		snap = snapshotOf(s.state, s.seq)
	}
	// Counted before unlocking so Settle never observes a gap.
	s.tracker.Add(len(out.Effects))
	s.mu.Unlock()

	s.record(ev, out)
	for _, eff := range out.Effects {
		go s.run(eff)
	}
	for _, o := range s.observers {
		o(snap)
	}
}

func (s *Session) clearPendingLocked(ev flows.Event) {
	switch e := ev.(type) {
	case flows.KeysChanged:
		if s.pendingKeys != nil && *s.pendingKeys == e.Keys {
			s.pendingKeys = nil
		}
	case flows.ClaimsEdited:
		if s.pendingClaims != nil && *s.pendingClaims == (claimsBuffers{header: e.Header, payload: e.Payload}) {
			s.pendingClaims = nil
		}
	case flows.CommonClaimsAdded, flows.TokenReplaced, flows.EditingEnded:
		s.pendingClaims = nil
	}
}

func (s *Session) run(eff flows.Effect) {
	defer s.tracker.Done()

	switch e := eff.(type) {
	case flows.VerifyEffect:
		start := time.Now()
		res := s.verifier.Verify(s.ctx, e.Token, e.Decoded, e.Keys)
		s.metrics.Observe(MetricVerifyLatency, time.Since(start))
		switch res.Status() {
		case jwt.SignatureValid:
			s.metrics.Inc(MetricVerifyValid)
		case jwt.SignatureInvalid:
			s.metrics.Inc(MetricVerifyInvalid)
		default:
			s.metrics.Inc(MetricVerifyUnverified)
		}
		s.dispatch(flows.VerifyCompleted{Gen: e.Gen, Result: res})

	case flows.SignEffect:
		start := time.Now()
		signed, err := s.signer.Sign(s.ctx, e.Header, e.Payload, e.Keys)
		s.metrics.Observe(MetricSignLatency, time.Since(start))
		switch {
		case err == nil:
			s.metrics.Inc(MetricSignOK)
		case !errors.Is(err, jwt.ErrMissingKeyMaterial):
			s.metrics.Inc(MetricSignFailed)
		}
		s.dispatch(flows.SignCompleted{
			Ticket:  e.Ticket,
			Header:  e.Header,
			Payload: e.Payload,
			Token:   signed,
			Err:     err,
		})
	}
}
