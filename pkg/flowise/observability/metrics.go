package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/randalmurphal/flowise-mcp"

// MetricsRecorder records flowise-mcp metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordAnalysis records one flow analysis and what it produced.
	RecordAnalysis(ctx context.Context, flowType string, suggestions, bestPractices int, corrupt bool, duration time.Duration)

	// RecordAPIRequest records one Flowise API call. status is 0 when no
	// response was received.
	RecordAPIRequest(ctx context.Context, operation string, status int, duration time.Duration, err error)

	// RecordToolCall records one MCP tool invocation.
	RecordToolCall(ctx context.Context, tool string, duration time.Duration, err error)
}

type otelMetrics struct {
	analyses        metric.Int64Counter
	analysisLatency metric.Float64Histogram
	suggestions     metric.Int64Histogram
	bestPractices   metric.Int64Histogram
	parseFailures   metric.Int64Counter
	apiRequests     metric.Int64Counter
	apiLatency      metric.Float64Histogram
	apiErrors       metric.Int64Counter
	toolCalls       metric.Int64Counter
	toolLatency     metric.Float64Histogram
	toolErrors      metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &otelMetrics{}
	var err error

	if m.analyses, err = meter.Int64Counter("flowise.analysis.runs",
		metric.WithDescription("Number of flow analyses"),
	); err != nil {
		return nil, err
	}
	if m.analysisLatency, err = meter.Float64Histogram("flowise.analysis.latency_ms",
		metric.WithDescription("Flow analysis latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.suggestions, err = meter.Int64Histogram("flowise.analysis.suggestions",
		metric.WithDescription("Suggestions produced per analysis"),
	); err != nil {
		return nil, err
	}
	if m.bestPractices, err = meter.Int64Histogram("flowise.analysis.best_practices",
		metric.WithDescription("Best-practice notes produced per analysis"),
	); err != nil {
		return nil, err
	}
	if m.parseFailures, err = meter.Int64Counter("flowise.analysis.parse_failures",
		metric.WithDescription("Analyses whose flow data could not be decoded"),
	); err != nil {
		return nil, err
	}
	if m.apiRequests, err = meter.Int64Counter("flowise.api.requests",
		metric.WithDescription("Number of Flowise API requests"),
	); err != nil {
		return nil, err
	}
	if m.apiLatency, err = meter.Float64Histogram("flowise.api.latency_ms",
		metric.WithDescription("Flowise API latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.apiErrors, err = meter.Int64Counter("flowise.api.errors",
		metric.WithDescription("Number of failed Flowise API requests"),
	); err != nil {
		return nil, err
	}
	if m.toolCalls, err = meter.Int64Counter("flowise.tool.calls",
		metric.WithDescription("Number of MCP tool calls"),
	); err != nil {
		return nil, err
	}
	if m.toolLatency, err = meter.Float64Histogram("flowise.tool.latency_ms",
		metric.WithDescription("MCP tool call latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.toolErrors, err = meter.Int64Counter("flowise.tool.errors",
		metric.WithDescription("Number of MCP tool calls returning an error result"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. If initialization fails it returns NoopMetrics.
//
// Configure the provider first, e.g. with Setup or otel.SetMeterProvider.
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordAnalysis(ctx context.Context, flowType string, suggestions, bestPractices int, corrupt bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("flow_type", flowType),
		attribute.Bool("corrupt", corrupt),
	)
	m.analyses.Add(ctx, 1, attrs)
	m.analysisLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.suggestions.Record(ctx, int64(suggestions), attrs)
	m.bestPractices.Record(ctx, int64(bestPractices), attrs)
	if corrupt {
		m.parseFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("flow_type", flowType)))
	}
}

func (m *otelMetrics) RecordAPIRequest(ctx context.Context, operation string, status int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Int("status", status),
	)
	m.apiRequests.Add(ctx, 1, attrs)
	m.apiLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.apiErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordToolCall(ctx context.Context, tool string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("tool", tool))
	m.toolCalls.Add(ctx, 1, attrs)
	m.toolLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.toolErrors.Add(ctx, 1, attrs)
	}
}
