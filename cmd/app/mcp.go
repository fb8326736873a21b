package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/starford/pocketnotes/internal"
)

var mcpCmd = &cli.Command{
	Name:  "mcp",
	Usage: "Serve the note tools over MCP on stdin/stdout",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return internal.RunMCP(ctx, internal.WithConfig(cfg))
	},
}
