package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of every meetmatch instrument.
const MeterName = "meetmatch"

// Metrics holds the engine instruments. They report to the global meter
// provider, which stays a no-op until Init installs an SDK.
type Metrics struct {
	PairsScored        metric.Int64Counter
	MatchesCreated     metric.Int64Counter
	RationaleCalls     metric.Int64Counter
	RationaleFallbacks metric.Int64Counter
	RetryAttempts      metric.Int64Counter
	MatchScore         metric.Float64Histogram
}

// New creates the instruments from the current global meter provider.
func New() *Metrics {
	return newFromMeter(otel.Meter(MeterName))
}

func newFromMeter(meter metric.Meter) *Metrics {
	pairs, _ := meter.Int64Counter("meetmatch_pairs_scored_total",
		metric.WithDescription("Profile pairs scored into the compatibility matrix"))
	matches, _ := meter.Int64Counter("meetmatch_matches_total",
		metric.WithDescription("Matches produced by the assignment"))
	calls, _ := meter.Int64Counter("meetmatch_rationale_calls_total",
		metric.WithDescription("Rationale requests sent to the explainer"))
	fallbacks, _ := meter.Int64Counter("meetmatch_rationale_fallback_total",
		metric.WithDescription("Matches that received the deterministic rationale"))
	retries, _ := meter.Int64Counter("meetmatch_retry_attempts_total",
		metric.WithDescription("Attempts made by retried operations"))
	score, _ := meter.Float64Histogram("meetmatch_match_score",
		metric.WithDescription("Compatibility score of produced matches"))

	return &Metrics{
		PairsScored:        pairs,
		MatchesCreated:     matches,
		RationaleCalls:     calls,
		RationaleFallbacks: fallbacks,
		RetryAttempts:      retries,
		MatchScore:         score,
	}
}

var global = New()

// Default returns the process-wide instruments.
func Default() *Metrics {
	return global
}

// ObserveMatch records one produced match.
func (m *Metrics) ObserveMatch(ctx context.Context, score float64, confidence string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("confidence", confidence))
	m.MatchesCreated.Add(ctx, 1, attrs)
	m.MatchScore.Record(ctx, score, attrs)
}

// ObserveRationale records one rationale outcome by source.
func (m *Metrics) ObserveRationale(ctx context.Context, source string, called bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	if called {
		m.RationaleCalls.Add(ctx, 1, attrs)
	}
	if source == "fallback" {
		m.RationaleFallbacks.Add(ctx, 1, attrs)
	}
}
