// Command flowise-mcp serves Flowise to MCP clients over stdio and analyzes
// flows from the command line.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx := context.Background()
	if err := fang.Execute(ctx, newRootCmd(),
		fang.WithVersion(version),
	); err != nil {
		os.Exit(1)
	}
}
