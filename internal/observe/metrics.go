// Package observe provides observability primitives for ttsbroker:
// OpenTelemetry metrics, tracing helpers, and HTTP middleware that ties them
// together with structured logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. [InitProvider]
// bridges them to Prometheus so they can be scraped from the ops server's
// /metrics endpoint. Tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all ttsbroker metrics.
const meterName = "github.com/nadzzz/ttsbroker"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// SynthesisDuration tracks engine run time. Use with attributes:
	//   attribute.String("engine", ...), attribute.String("status", ...)
	SynthesisDuration metric.Float64Histogram

	// TranscodeDuration tracks audio conversion time. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	TranscodeDuration metric.Float64Histogram

	// SynthesisRequests counts pipeline runs. Use with attributes:
	//   attribute.String("engine", ...), attribute.String("status", ...)
	SynthesisRequests metric.Int64Counter

	// VoiceFallbacks counts requests whose voice failed and were retried with
	// the engine default. Use with attribute:
	//   attribute.String("voice", ...)
	VoiceFallbacks metric.Int64Counter

	// AudioBytes records the size of delivered artifacts. Use with attribute:
	//   attribute.String("mime_type", ...)
	AudioBytes metric.Int64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Local
// engines run in sub-second to a few seconds; cloud synthesis can take longer.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SynthesisDuration, err = m.Float64Histogram("ttsbroker.synthesis.duration",
		metric.WithDescription("Latency of the speech engine."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscodeDuration, err = m.Float64Histogram("ttsbroker.transcode.duration",
		metric.WithDescription("Latency of audio format conversion."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisRequests, err = m.Int64Counter("ttsbroker.synthesis.requests",
		metric.WithDescription("Total synthesis pipeline runs by engine and status."),
	); err != nil {
		return nil, err
	}
	if met.VoiceFallbacks, err = m.Int64Counter("ttsbroker.voice.fallbacks",
		metric.WithDescription("Requests that fell back to the engine default voice."),
	); err != nil {
		return nil, err
	}
	if met.AudioBytes, err = m.Int64Histogram("ttsbroker.audio.bytes",
		metric.WithDescription("Size of audio returned to clients."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("ttsbroker.http.request.duration",
		metric.WithDescription("HTTP request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// DefaultMetrics returns a [Metrics] backed by the global meter provider.
// Call it after [InitProvider].
func DefaultMetrics() (*Metrics, error) {
	return NewMetrics(otel.GetMeterProvider())
}

// RecordSynthesis records one engine run.
func (m *Metrics) RecordSynthesis(ctx context.Context, engine, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("engine", engine),
		attribute.String("status", status),
	)
	m.SynthesisDuration.Record(ctx, seconds, attrs)
	m.SynthesisRequests.Add(ctx, 1, attrs)
}

// RecordTranscode records one conversion.
func (m *Metrics) RecordTranscode(ctx context.Context, tool, status string, seconds float64) {
	m.TranscodeDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
}
