// Package metrics defines the instrumentation hooks for the streamr engine.
// The normalizer's silent zero fallback and the accrual clock-skew clamp are
// correctness risks worth watching, so both report through a Recorder.
package metrics

import "time"

// Counter names recorded by the engine.
const (
	CounterDecodeFailure       = "decode_failure"
	CounterNormalizeFallback   = "normalize_fallback"
	CounterRecordDropped       = "record_dropped"
	CounterClockSkew           = "clock_skew"
	CounterMutationSettled     = "mutation_settled"
	CounterMutationFailed      = "mutation_failed"
	CounterMutationCancelled   = "mutation_cancelled"
	CounterTrustlineRemedied   = "trustline_remedied"
	CounterConfirmationTimeout = "confirmation_timeout"
)

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
