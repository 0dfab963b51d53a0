// Package otel publishes jwtlab session metrics through OpenTelemetry.
//
// [NewExporter] registers an Int64ObservableCounter per session counter and, for
// each latency histogram, a cumulative bucket gauge labelled by "le" plus a count
// gauge. One callback reads [jwtlab.Session.MetricsSnapshot] per collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate session state.
package otel
