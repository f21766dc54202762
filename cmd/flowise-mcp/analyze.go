package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/analysis"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/client"
	ferrors "github.com/randalmurphal/flowise-mcp/pkg/flowise/errors"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/observability"
)

const defaultWrap = 100

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		goal     string
		asJSON   bool
		file     string
		noRender bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [flow-id]",
		Short: "Analyze a flow and suggest improvements",
		Long: "Analyze a Flowise flow fetched by ID, or a local export with --file, and print\n" +
			"prioritized suggestions and best practices.",
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case file != "" && len(args) > 0:
				return errors.New("pass either a flow ID or --file, not both")
			case file == "" && len(args) != 1:
				return errors.New("a flow ID or --file is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec analysis.FlowRecord
			if file != "" {
				var err error
				if rec, err = loadFlowFile(file); err != nil {
					return err
				}
			} else {
				flow, err := a.client().GetChatflow(cmd.Context(), args[0])
				if err != nil {
					return errors.New(ferrors.Format(err))
				}
				rec = flow.Record()
			}

			mode := analysis.ModeText
			if asJSON {
				mode = analysis.ModeStructured
			}

			analyzer := analysis.NewAnalyzer(
				analysis.WithLogger(a.logger),
				analysis.WithMetrics(metricsFor(a.settings.Telemetry)),
				analysis.WithSpanManager(spansFor(a.settings.Telemetry)),
			)
			out, err := analyzer.AnalyzeAndRender(cmd.Context(), rec, goal, mode)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if mode == analysis.ModeText && !noRender && isTerminal(w) {
				if styled, err := renderMarkdown(out, terminalWidth(w)); err == nil {
					out = styled
				} else {
					a.logger.Debug("markdown rendering failed", "error", err)
				}
			}
			_, err = fmt.Fprintln(w, strings.TrimRight(out, "\n"))
			return err
		},
	}

	cmd.Flags().StringVarP(&goal, "goal", "g", "", "improvement goal, e.g. \"faster responses\"")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the analysis as JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "analyze a local chatflow export instead of fetching by ID")
	cmd.Flags().BoolVar(&noRender, "plain", false, "print raw markdown even on a terminal")
	return cmd
}

// loadFlowFile reads a local flow. It accepts a chatflow record as returned
// by the Flowise API (with flowData) or a bare {"nodes": [...], "edges": [...]}
// graph, which is named after the file.
func loadFlowFile(path string) (analysis.FlowRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return analysis.FlowRecord{}, fmt.Errorf("read flow: %w", err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return analysis.FlowRecord{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if _, isRecord := probe["flowData"]; isRecord {
		var flow client.Chatflow
		if err := json.Unmarshal(data, &flow); err != nil {
			return analysis.FlowRecord{}, fmt.Errorf("decode %s: %w", path, err)
		}
		return flow.Record(), nil
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return analysis.FlowRecord{Name: name, FlowData: json.RawMessage(data)}, nil
}

func metricsFor(enabled bool) observability.MetricsRecorder {
	if enabled {
		return observability.NewMetricsRecorder()
	}
	return observability.NoopMetrics{}
}

func spansFor(enabled bool) observability.SpanManager {
	if enabled {
		return observability.NewSpanManager()
	}
	return observability.NoopSpanManager{}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return min(width, defaultWrap)
		}
	}
	return defaultWrap
}

func renderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
