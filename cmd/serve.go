package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netadapt/fmc-mcp/fmc"
	"github.com/netadapt/fmc-mcp/fmcmcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Connect to the configured FMC, then serve MCP resources and tools over
stdio until the host disconnects or the process receives SIGINT/SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := fmc.NewClient(cfg.FMC, logger)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to FMC: %w", err)
	}
	defer client.Close()

	server := fmcmcp.New(client, logger, version)

	logger.Info().Str("version", version).Msg("FMC MCP server starting")

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("FMC MCP server stopped")
	return nil
}
