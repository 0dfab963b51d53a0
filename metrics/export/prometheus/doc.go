// Package prometheus renders jwtlab session metrics in the Prometheus text
// exposition format.
//
// [NewExporter] wraps a [jwtlab.Session]; [Exporter.Handler] serves the text on any
// mux. Counters are named jwtlab_*_total and the latency histograms
// jwtlab_sign_latency_seconds and jwtlab_verify_latency_seconds, which appear only
// when latency histograms are enabled.
//
// # What this package must NOT do
//
//   - Register in a global registry; callers mount the Handler.
//   - Mutate session state.
package prometheus
