package main

import (
	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the Flowise MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := server.New(a.client(), version,
				server.WithLogger(a.logger),
				server.WithMetrics(a.settings.Telemetry),
				server.WithTracing(a.settings.Telemetry),
			)
			if err != nil {
				return err
			}
			a.logger.Info("serving MCP over stdio",
				"base_url", a.settings.BaseURL,
				"tools", len(s.ToolNames()),
			)
			return s.ServeStdio()
		},
	}
}
