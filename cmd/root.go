package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/netadapt/fmc-mcp/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fmc-mcp",
	Short: "MCP server exposing read-only Cisco FMC data",
	Long: `fmc-mcp bridges a Cisco Secure Firewall Management Center to an MCP
(Model Context Protocol) host. It exposes managed devices, network
objects, and deployment state as MCP resources and tools over stdio.

Connection settings are read from FMC_* environment variables (FMC_HOST,
FMC_USERNAME, FMC_PASSWORD, ...) or an optional config file.`,
	PersistentPreRunE: initializeApp,
}

// SetVersion sets the version information from build flags.
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", v, bt)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (settings default to FMC_* environment variables)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(testCmd)
}

// initializeApp loads the configuration and builds the logger.
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)
	cfg.LogConfig(logger)

	return nil
}

// setupLogger configures the zerolog logger. Logs go to stderr: stdout
// carries the MCP protocol stream.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	format := cfg.Format
	if format == "auto" {
		if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			format = "console"
		} else {
			format = "json"
		}
	}

	if format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
