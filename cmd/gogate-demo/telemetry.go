package main

import (
	"context"
	"errors"
	"net/http"
	"sort"

	goGate "github.com/MrEthical07/goGate"
	gateotel "github.com/MrEthical07/goGate/metrics/export/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const meterName = "github.com/MrEthical07/goGate/cmd/gogate-demo"

// telemetry owns the OpenTelemetry MeterProvider the gate metrics are read
// through. Collection is pull-based: every GET /actuator/otel runs one cycle.
type telemetry struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	exporter *gateotel.Exporter
}

func newTelemetry(engine *goGate.Engine) (*telemetry, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	exporter, err := gateotel.NewExporter(provider.Meter(meterName), engine)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}
	return &telemetry{reader: reader, provider: provider, exporter: exporter}, nil
}

func (t *telemetry) Close(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return errors.Join(t.exporter.Close(), t.provider.Shutdown(ctx))
}

type otelPoint struct {
	Name  string            `json:"name"`
	Attrs map[string]string `json:"attributes,omitempty"`
	Value float64           `json:"value"`
}

// Handler collects once and writes every data point as flat JSON.
func (t *telemetry) Handler(w http.ResponseWriter, r *http.Request) {
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(r.Context(), &rm); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthBody{Status: "DOWN"})
		return
	}

	var points []otelPoint
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					points = append(points, otelPoint{Name: m.Name, Attrs: attrMap(dp.Attributes.ToSlice()), Value: float64(dp.Value)})
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					points = append(points, otelPoint{Name: m.Name, Attrs: attrMap(dp.Attributes.ToSlice()), Value: float64(dp.Value)})
				}
			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					points = append(points, otelPoint{Name: m.Name, Attrs: attrMap(dp.Attributes.ToSlice()), Value: dp.Value})
				}
			}
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Name < points[j].Name })
	writeJSON(w, http.StatusOK, points)
}

func attrMap(kvs []attribute.KeyValue) map[string]string {
	if len(kvs) == 0 {
		return nil
	}
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}
