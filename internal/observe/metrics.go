// Package observe provides the observability primitives of the server:
// structured logging on stderr, OpenTelemetry metrics and tracing.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via /metrics on the ops listener. Tests should use [NewMetrics]
// with a custom [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all server metrics.
const meterName = "github.com/openops/cost-optimization-server"

// Metrics holds all OpenTelemetry metric instruments for the server.
type Metrics struct {
	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// ToolDuration tracks handler latency by tool name.
	ToolDuration metric.Float64Histogram

	// SessionRequests counts JSON-RPC requests by method.
	SessionRequests metric.Int64Counter

	// HandshakeFailures counts sessions that never became ready.
	HandshakeFailures metric.Int64Counter

	// ActiveSessions tracks the number of sessions between connect and close.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Handlers
// are in-memory today so most observations land in the lowest buckets.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ToolCalls, err = m.Int64Counter("costopt.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.ToolDuration, err = m.Float64Histogram("costopt.tool.duration",
		metric.WithDescription("Latency of tool handler execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SessionRequests, err = m.Int64Counter("costopt.session.requests",
		metric.WithDescription("Total JSON-RPC requests by method."),
	); err != nil {
		return nil, err
	}
	if met.HandshakeFailures, err = m.Int64Counter("costopt.session.handshake_failures",
		metric.WithDescription("Sessions terminated by a failed initialize handshake."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("costopt.active_sessions",
		metric.WithDescription("Number of live MCP sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Call it after [InitProvider] so
// the instruments bind to the exporting provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordToolCall records one finished tool call.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, elapsed time.Duration) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
	m.ToolDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(attribute.String("tool", tool)),
	)
}

// RecordRequest records one JSON-RPC request by method.
func (m *Metrics) RecordRequest(ctx context.Context, method string) {
	m.SessionRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("method", method)),
	)
}

// RecordHandshakeFailure records a session that failed to initialize.
func (m *Metrics) RecordHandshakeFailure(ctx context.Context, reason string) {
	m.HandshakeFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}
