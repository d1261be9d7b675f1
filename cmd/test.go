package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netadapt/fmc-mcp/fmc"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to FMC",
	Long:  `Authenticate against the configured FMC and display its server version.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client := fmc.NewClient(cfg.FMC, logger)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to FMC: %w", err)
	}
	defer client.Close()

	version, err := client.ServerVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch server version: %w", err)
	}

	serverVersion, _ := version["serverVersion"].(string)
	if serverVersion == "" {
		serverVersion = "Unknown"
	}

	fmt.Printf("Connected to FMC: %s\n", cfg.FMC.Host)
	fmt.Printf("Server Version: %s\n", serverVersion)
	fmt.Println("Authentication: Success")
	return nil
}
