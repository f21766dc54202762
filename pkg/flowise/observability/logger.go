// Package observability provides structured logging, metrics and tracing
// for flow analysis, Flowise API calls and MCP tool invocations.
//
// Logging uses slog. Metrics and tracing use OpenTelemetry through the
// global providers, and every recorder has a no-op counterpart for when
// telemetry is disabled. All logging helpers accept a nil logger.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// NewLogger builds a logger writing to w.
//
// level is one of debug, info, warn or error. format is "text" or "json".
// Empty values select info and text.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: want text or json", format)
	}
}

// EnrichLogger returns a logger carrying the analysis and flow identifiers.
func EnrichLogger(logger *slog.Logger, analysisID, flowID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("analysis_id", analysisID),
		slog.String("flow_id", flowID),
	)
}

// LogAnalysisStart logs the start of a flow analysis.
func LogAnalysisStart(logger *slog.Logger, analysisID, flowName, flowType string) {
	if logger == nil {
		return
	}
	logger.Debug("flow analysis starting",
		slog.String("analysis_id", analysisID),
		slog.String("flow_name", flowName),
		slog.String("flow_type", flowType),
	)
}

// LogAnalysisComplete logs a finished flow analysis.
func LogAnalysisComplete(logger *slog.Logger, analysisID string, durationMs float64, suggestions, bestPractices int) {
	if logger == nil {
		return
	}
	logger.Info("flow analysis completed",
		slog.String("analysis_id", analysisID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("suggestions", suggestions),
		slog.Int("best_practices", bestPractices),
	)
}

// LogParseIssue logs a flow whose graph could not be decoded.
func LogParseIssue(logger *slog.Logger, analysisID, issue string) {
	if logger == nil {
		return
	}
	logger.Warn("flow data unreadable",
		slog.String("analysis_id", analysisID),
		slog.String("issue", issue),
	)
}

// LogRequest logs a completed Flowise API request.
func LogRequest(logger *slog.Logger, requestID, method, path string, status int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("flowise request",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogRequestError logs a failed Flowise API request.
func LogRequestError(logger *slog.Logger, requestID, method, path string, attempts int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("flowise request failed",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("attempts", attempts),
		slog.String("error", err.Error()),
	)
}

// LogToolCall logs a completed MCP tool call.
func LogToolCall(logger *slog.Logger, tool string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("tool call",
		slog.String("tool", tool),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogToolError logs an MCP tool call that returned an error result.
func LogToolError(logger *slog.Logger, tool string, err error) {
	if logger == nil {
		return
	}
	logger.Error("tool call failed",
		slog.String("tool", tool),
		slog.String("error", err.Error()),
	)
}

// TimedOperation returns a function reporting the elapsed milliseconds.
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
