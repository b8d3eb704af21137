package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type Config struct {
	// Enabled installs an SDK meter provider for the run and adds the
	// collected totals to the result.
	Enabled bool `mapstructure:"enabled"`
}

// Provider owns the SDK meter provider installed by Init.
type Provider struct {
	mp     *sdkmetric.MeterProvider
	reader *sdkmetric.ManualReader
}

// Init installs an SDK meter provider backed by a manual reader as the
// global provider and rebinds the process-wide instruments to it. Call it
// before any component takes Default().
func Init() *Provider {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	otel.SetMeterProvider(mp)
	global = newFromMeter(mp.Meter(MeterName))

	return &Provider{mp: mp, reader: reader}
}

// Snapshot collects every instrument into name/total pairs. Counters are
// summed over their attributes, histograms yield <name>_count and <name>_sum.
func (p *Provider) Snapshot(ctx context.Context) (map[string]float64, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}

	out := make(map[string]float64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += float64(dp.Value)
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					out[m.Name+"_count"] += float64(dp.Count)
					out[m.Name+"_sum"] += dp.Sum
				}
			}
		}
	}
	return out, nil
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.mp.Shutdown(ctx)
}
