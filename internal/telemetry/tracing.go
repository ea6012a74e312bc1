// Package telemetry configures OpenTelemetry tracing for both processes.
//
// Custom span attributes use the `inkwell.` prefix.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "inkwell-web/inkwell"

// Tracer returns the package-level tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// InitTraceProvider initialises the OTel trace provider with an OTLP gRPC exporter.
// If endpoint is empty, tracing is disabled (noop provider is used).
// Returns a shutdown function that must be called on application exit.
func InitTraceProvider(ctx context.Context, endpoint, service, version string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(), // TLS configurable via env (OTEL_EXPORTER_OTLP_INSECURE)
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(service),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// StartRelaySpan creates a client span for one relayed API call.
func StartRelaySpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "web.relay",
		trace.WithAttributes(
			attribute.String("inkwell.relay.method", method),
			attribute.String("inkwell.relay.path", path),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndRelaySpan enriches the relay span with the upstream outcome.
func EndRelaySpan(span trace.Span, status int, err error) {
	span.SetAttributes(attribute.Int("inkwell.relay.status", status))
	if err != nil {
		span.SetAttributes(attribute.String("inkwell.relay.error", err.Error()))
	}
	span.End()
}

// StartRequestSpan creates a server span for an inbound HTTP request.
func StartRequestSpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "http.request",
		trace.WithAttributes(
			attribute.String("inkwell.http.method", method),
			attribute.String("inkwell.http.path", path),
		),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// EndRequestSpan records the response status and ends the request span.
func EndRequestSpan(span trace.Span, status int) {
	span.SetAttributes(attribute.Int("inkwell.http.status", status))
	span.End()
}
