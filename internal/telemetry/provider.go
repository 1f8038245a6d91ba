// Package telemetry wires optional OpenTelemetry tracing for the cmd
// tools. Tracing is opt-in: without an endpoint the global provider stays
// untouched and spans are no-ops.
package telemetry

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// #region setup

// Setup initialises tracing for the given service name. When
// TWINSAMPLER_OTEL_ENDPOINT is empty or TWINSAMPLER_OTEL_ENABLED is
// "false", Setup returns a no-op shutdown and registers nothing.
//
// The returned shutdown flushes pending spans; callers defer it.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if strings.EqualFold(os.Getenv("TWINSAMPLER_OTEL_ENABLED"), "false") {
		return noop, nil
	}
	endpoint := os.Getenv("TWINSAMPLER_OTEL_ENDPOINT")
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// #endregion setup
