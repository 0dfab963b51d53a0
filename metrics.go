package jwtlab

import (
	internalmetrics "github.com/MrEthical07/jwtlab/internal/metrics"
)

// MetricID identifies a session counter or histogram.
type MetricID = internalmetrics.ID

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot = internalmetrics.Snapshot

const (
	MetricDecodeOK           = internalmetrics.DecodeOK
	MetricDecodeFailed       = internalmetrics.DecodeFailed
	MetricVerifyValid        = internalmetrics.VerifyValid
	MetricVerifyInvalid      = internalmetrics.VerifyInvalid
	MetricVerifyUnverified   = internalmetrics.VerifyUnverified
	MetricSignOK             = internalmetrics.SignOK
	MetricSignMissingKey     = internalmetrics.SignMissingKey
	MetricSignFailed         = internalmetrics.SignFailed
	MetricResignSuppressed   = internalmetrics.ResignSuppressed
	MetricStaleResultDropped = internalmetrics.StaleResultDropped
	MetricClaimsJSONInvalid  = internalmetrics.ClaimsJSONInvalid
	MetricPlaceholderIssued  = internalmetrics.PlaceholderIssued
	MetricDebounceSuperseded = internalmetrics.DebounceSuperseded
	MetricSignLatency        = internalmetrics.SignLatency
	MetricVerifyLatency      = internalmetrics.VerifyLatency
)
