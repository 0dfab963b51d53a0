package jwtlab

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/MrEthical07/jwtlab/internal/flows"
)

// record turns the signals of one transition into metrics, audit events and logs.
func (s *Session) record(ev flows.Event, out flows.Outcome) {
	sig := out.Signals
	st := out.State

	if sig.Has(flows.SignalTokenChanged) && st.Token != "" {
		if st.Validation.IsValidFormat {
			s.metrics.Inc(MetricDecodeOK)
		} else {
			s.metrics.Inc(MetricDecodeFailed)
		}
	}
	if sig.Has(flows.SignalMissingKey) {
		s.metrics.Inc(MetricSignMissingKey)
	}
	if sig.Has(flows.SignalResignSuppressed) {
		s.metrics.Inc(MetricResignSuppressed)
		s.logger.Debug("re-sign suppressed, key signature unchanged")
	}
	if sig.Has(flows.SignalStaleResult) {
		s.metrics.Inc(MetricStaleResultDropped)
		s.logger.Debug("stale result dropped", slog.String("event", eventName(ev)))
	}
	if sig.Has(flows.SignalClaimsJSONInvalid) {
		s.metrics.Inc(MetricClaimsJSONInvalid)
	}
	if sig.Has(flows.SignalPlaceholder) {
		s.metrics.Inc(MetricPlaceholderIssued)
	}

	if sig.Has(flows.SignalSignFailed) {
		s.logger.Warn("signing failed", slog.String("algorithm", st.Validation.Algorithm), slog.String("error", st.NoticeMessage))
	}

	if s.audit == nil {
		return
	}

	ctx := context.Background()
	switch e := ev.(type) {
	case flows.TokenReplaced:
		if !sig.Has(flows.SignalEchoIgnored) {
			s.emit(ctx, AuditTokenReplaced, st, st.Validation.IsValidFormat, st.Validation.FormatError, map[string]string{
				"phase": st.Phase().String(),
			})
		}
	case flows.KeysChanged:
		s.emit(ctx, AuditKeysChanged, st, true, "", map[string]string{
			"secret":      strconv.FormatBool(e.Keys.Secret != ""),
			"public_key":  strconv.FormatBool(e.Keys.PublicKey != ""),
			"private_key": strconv.FormatBool(e.Keys.PrivateKey != ""),
		})
	case flows.AlgorithmSwitched:
		if sig.Has(flows.SignalAlgorithmSwitched) {
			md := map[string]string{"algorithm": string(e.Algorithm)}
			if e.Preset != "" {
				md["preset"] = e.Preset
			}
			s.emit(ctx, AuditAlgorithmSwitched, st, true, "", md)
		}
	case flows.SignCompleted:
		if sig.Has(flows.SignalResigned) {
			s.emit(ctx, AuditTokenResigned, st, true, "", map[string]string{
				"channel": e.Ticket.Channel.String(),
			})
		}
	case flows.VerifyCompleted:
		if sig.Has(flows.SignalVerified) {
			status := st.Validation.Status()
			s.emit(ctx, AuditVerifyCompleted, st, e.Result.Valid, e.Result.Error, map[string]string{
				"status": status.String(),
			})
		}
	}

	if sig.Has(flows.SignalEditingStarted) {
		s.emit(ctx, AuditEditingStarted, st, true, "", nil)
	}
	if sig.Has(flows.SignalEditingEnded) {
		s.emit(ctx, AuditEditingEnded, st, true, "", nil)
	}
	if sig.Has(flows.SignalSignFailed) {
		s.emit(ctx, AuditSignFailed, st, false, st.NoticeMessage, nil)
	}
}

func (s *Session) emit(ctx context.Context, eventType string, st flows.State, success bool, errMsg string, metadata map[string]string) {
	s.audit.Emit(ctx, AuditEvent{
		Timestamp:     time.Now().UTC(),
		EventType:     eventType,
		SessionID:     s.id,
		Algorithm:     st.Validation.Algorithm,
		TokenRevision: st.TokenRevision,
		Success:       success,
		Error:         errMsg,
		Metadata:      metadata,
	})
}

func eventName(ev flows.Event) string {
	switch ev.(type) {
	case flows.VerifyCompleted:
		return "verify"
	case flows.SignCompleted:
		return "sign"
	default:
		return "input"
	}
}
