package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/stubd/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	logLevel  string
	logFormat string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stubd",
	Short: "stubd is an HTTP request-stub server",
	Long: `stubd answers HTTP requests with canned responses from registered stubs.

Stubs are loaded from JSON or YAML mapping files and can be managed at runtime
through the admin API mounted under /__admin. When several stubs match a
request, the one registered last wins.`,
	SilenceUsage:  true,
	SilenceErrors: true, // errors are printed by Main
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json")
}

// Main runs the root command and returns the process exit code.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// Execute runs the root command and exits with its status code.
func Execute() {
	os.Exit(Main())
}

// newLogger builds the operational logger from flag values, falling back to
// the configured level and format.
func newLogger(cmd *cobra.Command, cfgLevel, cfgFormat string) *slog.Logger {
	level, format := cfgLevel, cfgFormat
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(level),
		Format: logging.ParseFormat(format),
		Output: cmd.ErrOrStderr(),
	})
}
