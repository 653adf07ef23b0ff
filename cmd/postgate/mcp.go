// ABOUTME: MCP server command implementation for postgate.
// ABOUTME: Starts the MCP server in stdio mode for AI agent integration.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcppkg "github.com/2389-research/postgate/internal/mcp"
	"github.com/2389-research/postgate/internal/telegram"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio mode)",
	Long: `Start the Model Context Protocol server for AI agent integration.

The MCP server communicates via stdio and lets agents look up published
posts. When a bot token is configured it can also check channel membership.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var opts []mcppkg.ServerOption
	if globalConfig.Telegram.BotToken != "" && len(globalConfig.Channels) > 0 {
		client, err := telegram.New(globalConfig.Telegram.BotToken)
		if err != nil {
			globalLogger.WithError(err).Warn("Membership checks disabled")
		} else {
			opts = append(opts, mcppkg.WithMembership(client, globalConfig.Channels))
		}
	}

	server, err := mcppkg.NewServer(globalStore, opts...)
	if err != nil {
		return err
	}

	return server.Serve(ctx)
}
