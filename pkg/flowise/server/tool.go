package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	ferrors "github.com/randalmurphal/flowise-mcp/pkg/flowise/errors"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/observability"
)

// Tool is an MCP tool definition paired with its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// instruments is the shared logging, metrics and tracing of every handler.
type instruments struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

// tool binds and validates arguments into In before calling run. Any error,
// from binding or from run, becomes a tool error result rendered with
// errors.Format.
type tool[In any] struct {
	def  mcp.Tool
	run  func(ctx context.Context, in *In) (string, error)
	inst *instruments
}

func newTool[In any](inst *instruments, def mcp.Tool, run func(ctx context.Context, in *In) (string, error)) *tool[In] {
	return &tool[In]{def: def, run: run, inst: inst}
}

func (t *tool[In]) Definition() mcp.Tool {
	return t.def
}

func (t *tool[In]) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := t.def.Name
	elapsed := observability.TimedOperation()

	ctx, span := t.inst.spans.StartToolSpan(ctx, name)
	out, err := t.call(ctx, req)
	t.inst.spans.EndSpanWithError(span, err)

	durationMs := elapsed()
	t.inst.metrics.RecordToolCall(ctx, name, time.Duration(durationMs*float64(time.Millisecond)), err)

	if err != nil {
		observability.LogToolError(t.inst.logger, name, err)
		return mcp.NewToolResultError(ferrors.Format(err)), nil
	}
	observability.LogToolCall(t.inst.logger, name, durationMs)
	return mcp.NewToolResultText(out), nil
}

func (t *tool[In]) call(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	in := new(In)
	if err := bind(req.GetArguments(), in); err != nil {
		return "", err
	}
	return t.run(ctx, in)
}
