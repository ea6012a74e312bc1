package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span exporter for test assertions.
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestInitTraceProviderNoopWhenEmpty(t *testing.T) {
	shutdown, err := InitTraceProvider(context.Background(), "", "inkwell-test", "dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Should be a no-op shutdown
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestStartRelaySpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartRelaySpan(context.Background(), "GET", "/api/v1/articles")
	EndRelaySpan(span, 200, nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "web.relay" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "web.relay")
	}
	if spans[0].SpanKind != oteltrace.SpanKindClient {
		t.Errorf("span kind = %v, want client", spans[0].SpanKind)
	}

	foundMethod := false
	foundStatus := false
	for _, a := range spans[0].Attributes {
		if string(a.Key) == "inkwell.relay.method" && a.Value.AsString() == "GET" {
			foundMethod = true
		}
		if string(a.Key) == "inkwell.relay.status" && a.Value.AsInt64() == 200 {
			foundStatus = true
		}
	}
	if !foundMethod {
		t.Error("missing inkwell.relay.method attribute")
	}
	if !foundStatus {
		t.Error("missing inkwell.relay.status attribute")
	}
}

func TestEndRelaySpanRecordsError(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartRelaySpan(context.Background(), "POST", "/api/v1/auth/login")
	EndRelaySpan(span, 0, errors.New("connection refused"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	foundErr := false
	for _, a := range spans[0].Attributes {
		if string(a.Key) == "inkwell.relay.error" && a.Value.AsString() == "connection refused" {
			foundErr = true
		}
	}
	if !foundErr {
		t.Error("missing inkwell.relay.error attribute")
	}
}

func TestStartRequestSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartRequestSpan(context.Background(), "GET", "/api/v1/tags")
	EndRequestSpan(span, 404)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "http.request" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "http.request")
	}
	if spans[0].SpanKind != oteltrace.SpanKindServer {
		t.Errorf("span kind = %v, want server", spans[0].SpanKind)
	}

	foundStatus := false
	for _, a := range spans[0].Attributes {
		if string(a.Key) == "inkwell.http.status" && a.Value.AsInt64() == 404 {
			foundStatus = true
		}
	}
	if !foundStatus {
		t.Error("missing inkwell.http.status attribute")
	}
}

func TestNestedSpans(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx := context.Background()
	ctx, reqSpan := StartRequestSpan(ctx, "GET", "/articles")
	_, relaySpan := StartRelaySpan(ctx, "GET", "/api/v1/articles")
	EndRelaySpan(relaySpan, 200, nil)
	reqSpan.End()

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}

	relayStub := spans[0] // relay span ends first
	reqStub := spans[1]

	if relayStub.Parent.TraceID() != reqStub.SpanContext.TraceID() {
		t.Error("relay span should share trace ID with request span")
	}
	if !relayStub.Parent.SpanID().IsValid() {
		t.Error("relay span should have a valid parent span ID")
	}
}
