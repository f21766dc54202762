package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer(instrumentationName)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartAnalysisSpan starts a span covering one flow analysis.
	StartAnalysisSpan(ctx context.Context, flowName, analysisID string) (context.Context, trace.Span)

	// StartRequestSpan starts a client span for one Flowise API call.
	StartRequestSpan(ctx context.Context, operation, method, path string) (context.Context, trace.Span)

	// StartToolSpan starts a server span for one MCP tool invocation.
	StartToolSpan(ctx context.Context, tool string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager backed by the global OTel tracer provider.
func NewSpanManager() SpanManager {
	return otelSpanManager{}
}

func (otelSpanManager) StartAnalysisSpan(ctx context.Context, flowName, analysisID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "flowise.analysis",
		trace.WithAttributes(
			attribute.String("flow.name", flowName),
			attribute.String("analysis.id", analysisID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (otelSpanManager) StartRequestSpan(ctx context.Context, operation, method, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "flowise.api."+operation,
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (otelSpanManager) StartToolSpan(ctx context.Context, tool string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "mcp.tool."+tool,
		trace.WithAttributes(attribute.String("mcp.tool.name", tool)),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

func (otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
