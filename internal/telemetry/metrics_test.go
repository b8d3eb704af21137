package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return newFromMeter(provider.Meter(MeterName)), reader
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				sums[m.Name] += dp.Value
			}
		}
	}
	return sums
}

func TestObserveMatchAndRationale(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ObserveMatch(ctx, 0.7, "High")
	m.ObserveMatch(ctx, 0.4, "Low")
	m.ObserveRationale(ctx, "ai", true)
	m.ObserveRationale(ctx, "fallback", true)
	m.ObserveRationale(ctx, "fallback", false)

	sums := collectSums(t, reader)
	require.Equal(t, int64(2), sums["meetmatch_matches_total"])
	require.Equal(t, int64(2), sums["meetmatch_rationale_calls_total"])
	require.Equal(t, int64(2), sums["meetmatch_rationale_fallback_total"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveMatch(context.Background(), 0.5, "Medium")
	m.ObserveRationale(context.Background(), "fallback", true)
}
