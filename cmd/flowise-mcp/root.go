package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowise-mcp/pkg/flowise/client"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/config"
	ferrors "github.com/randalmurphal/flowise-mcp/pkg/flowise/errors"
	"github.com/randalmurphal/flowise-mcp/pkg/flowise/observability"
)

// app holds state shared by every subcommand once settings are loaded.
type app struct {
	cfgPath   string
	telemetry bool

	settings config.Settings
	logger   *slog.Logger
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "flowise-mcp",
		Short:         "MCP server and flow analyzer for Flowise",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "config file (YAML or JSON); defaults to $"+config.EnvConfigFile)
	cmd.PersistentFlags().BoolVar(&a.telemetry, "telemetry", false, "export traces and metrics to stderr")

	cmd.AddCommand(
		newServeCmd(a),
		newAnalyzeCmd(a),
		newPingCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	settings, err := config.LoadSettings(a.cfgPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("telemetry") {
		settings.Telemetry = a.telemetry
	}
	a.settings = settings

	// stdout carries the MCP protocol, so logs go to stderr.
	logger, err := observability.NewLogger(os.Stderr, settings.LogLevel, settings.LogFormat)
	if err != nil {
		return err
	}
	a.logger = logger

	if settings.Telemetry {
		shutdown, err := observability.Setup(cmd.Context(), os.Stderr, "flowise-mcp", version)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		a.shutdown = shutdown
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.shutdown == nil {
		return nil
	}
	if err := a.shutdown(ctx); err != nil {
		return fmt.Errorf("telemetry shutdown: %w", err)
	}
	return nil
}

func (a *app) client() *client.Client {
	s := a.settings
	return client.New(
		client.WithBaseURL(s.BaseURL),
		client.WithAPIKey(s.APIKey),
		client.WithTimeout(s.Timeout),
		client.WithRetry(ferrors.NewRetryConfig(ferrors.WithMaxAttempts(s.RetryAttempts))),
		client.WithLogger(a.logger),
		client.WithMetrics(s.Telemetry),
		client.WithTracing(s.Telemetry),
	)
}
