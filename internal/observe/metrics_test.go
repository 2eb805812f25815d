package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestRecordToolCall(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordToolCall(ctx, "detect_cost_anomalies", "ok", 2*time.Millisecond)
	m.RecordToolCall(ctx, "detect_cost_anomalies", "ok", 3*time.Millisecond)
	m.RecordToolCall(ctx, "detect_cost_anomalies", "handler_fault", time.Millisecond)

	rm := collect(t, reader)

	met := findMetric(rm, "costopt.tool.calls")
	if met == nil {
		t.Fatal("costopt.tool.calls not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("costopt.tool.calls is %T, want Sum[int64]", met.Data)
	}
	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value(attribute.Key("status"))
		counts[status.AsString()] = dp.Value
	}
	if counts["ok"] != 2 || counts["handler_fault"] != 1 {
		t.Errorf("counts = %v, want ok=2 handler_fault=1", counts)
	}

	hist := findMetric(rm, "costopt.tool.duration")
	if hist == nil {
		t.Fatal("costopt.tool.duration not found")
	}
	h, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("costopt.tool.duration is %T", hist.Data)
	}
	if len(h.DataPoints) != 1 || h.DataPoints[0].Count != 3 {
		t.Errorf("histogram data points = %+v, want one point with count 3", h.DataPoints)
	}
}

func TestSessionCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRequest(ctx, "tools/list")
	m.RecordHandshakeFailure(ctx, "missing_protocol_version")
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)

	rm := collect(t, reader)
	for _, name := range []string{
		"costopt.session.requests",
		"costopt.session.handshake_failures",
		"costopt.active_sessions",
	} {
		if findMetric(rm, name) == nil {
			t.Errorf("metric %q not found", name)
		}
	}

	active := findMetric(rm, "costopt.active_sessions").Data.(metricdata.Sum[int64])
	if len(active.DataPoints) != 1 || active.DataPoints[0].Value != 0 {
		t.Errorf("active sessions = %+v, want 0", active.DataPoints)
	}
}

func TestDefaultMetricsIsSingleton(t *testing.T) {
	if DefaultMetrics() != DefaultMetrics() {
		t.Error("DefaultMetrics returned different instances")
	}
}
