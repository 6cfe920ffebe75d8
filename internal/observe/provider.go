package observe

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InitProvider installs global meter and tracer providers for ttsbroker.
// Metrics are read by a Prometheus exporter registered with the default
// Prometheus registry, which the ops server exposes on /metrics. Spans are
// recorded for correlation IDs only; nothing exports them.
//
// The returned function shuts both providers down.
func InitProvider(version string) (func(context.Context) error, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", "ttsbroker"),
		attribute.String("service.version", version),
	)

	exporter, err := promexporter.New()
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(exporter))
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))

	otel.SetMeterProvider(mp)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		return errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	}, nil
}
