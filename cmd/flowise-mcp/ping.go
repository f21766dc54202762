package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	ferrors "github.com/randalmurphal/flowise-mcp/pkg/flowise/errors"
)

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the Flowise server is responding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.client()
			if err := c.Ping(cmd.Context()); err != nil {
				return errors.New(ferrors.Format(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Flowise server at %s is responding.\n", c.BaseURL())
			return nil
		},
	}
}
