package internaldefs

import (
	"github.com/MrEthical07/jwtlab"
)

// CounterDef names one session counter for exporters.
type CounterDef struct {
	ID   jwtlab.MetricID
	Name string
	Help string
}

// HistogramDef names one latency histogram for exporters.
type HistogramDef struct {
	ID   jwtlab.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in rendering order.
var CounterDefs = []CounterDef{
	{ID: jwtlab.MetricDecodeOK, Name: "jwtlab_decode_ok_total", Help: "Tokens that decoded into header and payload."},
	{ID: jwtlab.MetricDecodeFailed, Name: "jwtlab_decode_failed_total", Help: "Tokens rejected as malformed."},
	{ID: jwtlab.MetricVerifyValid, Name: "jwtlab_verify_valid_total", Help: "Signatures that verified."},
	{ID: jwtlab.MetricVerifyInvalid, Name: "jwtlab_verify_invalid_total", Help: "Signatures that failed verification."},
	{ID: jwtlab.MetricVerifyUnverified, Name: "jwtlab_verify_unverified_total", Help: "Verifications skipped for lack of key material."},
	{ID: jwtlab.MetricSignOK, Name: "jwtlab_sign_ok_total", Help: "Tokens signed."},
	{ID: jwtlab.MetricSignMissingKey, Name: "jwtlab_sign_missing_key_total", Help: "Sign requests without the required key."},
	{ID: jwtlab.MetricSignFailed, Name: "jwtlab_sign_failed_total", Help: "Sign requests that failed with key material present."},
	{ID: jwtlab.MetricResignSuppressed, Name: "jwtlab_resign_suppressed_total", Help: "Re-signs skipped because the key signature was unchanged."},
	{ID: jwtlab.MetricStaleResultDropped, Name: "jwtlab_stale_result_dropped_total", Help: "Verify or sign results discarded as superseded."},
	{ID: jwtlab.MetricClaimsJSONInvalid, Name: "jwtlab_claims_json_invalid_total", Help: "Claims edits rejected as invalid JSON."},
	{ID: jwtlab.MetricPlaceholderIssued, Name: "jwtlab_placeholder_issued_total", Help: "Unsigned placeholder tokens issued."},
	{ID: jwtlab.MetricDebounceSuperseded, Name: "jwtlab_debounce_superseded_total", Help: "Inputs replaced by a newer one within the debounce window."},
}

// HistogramDefs lists the exported latency histograms.
var HistogramDefs = []HistogramDef{
	{ID: jwtlab.MetricSignLatency, Name: "jwtlab_sign_latency_seconds", Help: "Signing latency."},
	{ID: jwtlab.MetricVerifyLatency, Name: "jwtlab_verify_latency_seconds", Help: "Verification latency."},
}

// Audit backpressure counter.
const (
	AuditDroppedName = "jwtlab_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped due to dispatcher backpressure."
)

// HistogramBounds are the upper bounds, in seconds, of the session latency buckets.
var HistogramBounds = [BucketCount]string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// BucketCount matches the session histogram width.
const BucketCount = 8

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts to the running totals exporters expect.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i, n := range raw {
		running += n
		out[i] = running
	}
	return out
}
