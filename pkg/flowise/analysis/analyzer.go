package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/observability"
)

// Analyzer runs the analysis pipeline with logging, metrics and tracing.
// The result is identical to Analyze; instrumentation has no effect on it.
// An Analyzer is safe for concurrent use.
type Analyzer struct {
	rules   *RuleSet
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithRules replaces the default rule battery.
func WithRules(rs *RuleSet) AnalyzerOption {
	return func(a *Analyzer) {
		if rs != nil {
			a.rules = rs
		}
	}
}

// WithLogger sets the logger. Default: no logging.
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: no-op.
func WithMetrics(m observability.MetricsRecorder) AnalyzerOption {
	return func(a *Analyzer) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithSpanManager sets the span manager. Default: no-op.
func WithSpanManager(s observability.SpanManager) AnalyzerOption {
	return func(a *Analyzer) {
		if s != nil {
			a.spans = s
		}
	}
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		rules:   DefaultRules(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze parses and evaluates rec. ctx only parents the analysis span.
func (az *Analyzer) Analyze(ctx context.Context, rec FlowRecord, goal string) Analysis {
	analysisID := uuid.NewString()
	md := rec.Metadata()

	start := time.Now()
	observability.LogAnalysisStart(az.logger, analysisID, md.Name, string(md.Type))

	ctx, span := az.spans.StartAnalysisSpan(ctx, md.Name, analysisID)
	defer az.spans.EndSpanWithError(span, nil)

	g := ParseGraph(rec.FlowData)
	az.spans.AddSpanEvent(ctx, "graph.parsed",
		attribute.Int("nodes", len(g.Nodes)),
		attribute.Int("edges", g.EdgeCount),
		attribute.Bool("corrupt", g.Corrupt()),
	)
	if g.Corrupt() {
		observability.LogParseIssue(az.logger, analysisID, g.Issue)
	}

	result := az.rules.Evaluate(g, md, goal)

	duration := time.Since(start)
	az.metrics.RecordAnalysis(ctx, string(md.Type), len(result.Suggestions), len(result.BestPractices), g.Corrupt(), duration)
	observability.LogAnalysisComplete(az.logger, analysisID, float64(duration.Microseconds())/1000,
		len(result.Suggestions), len(result.BestPractices))

	return result
}

// AnalyzeAndRender analyzes rec and renders the result in mode.
func (az *Analyzer) AnalyzeAndRender(ctx context.Context, rec FlowRecord, goal string, mode Mode) (string, error) {
	return Render(az.Analyze(ctx, rec, goal), mode)
}
