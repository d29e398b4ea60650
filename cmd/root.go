// Package cmd provides the CLI commands for the strata query pipeline.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagLogLevel   string
	flagJSON       bool
)

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata - tiered natural language query resolution",
	Long: `Strata resolves natural language questions against a SQL database through
a tiered escalation pipeline: cached answers first, then a single cheap
generation attempt, then bounded retries against a more capable resource,
and finally a deterministic fallback so every request gets an answer.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output results as JSON")
}

// newLogger builds the process logger from config plus the --log-level
// override. Logs go to stderr so stdout stays clean for results.
func newLogger(level, format string) *slog.Logger {
	if flagLogLevel != "" {
		level = flagLogLevel
	}

	var leveler slog.Level
	switch level {
	case "debug":
		leveler = slog.LevelDebug
	case "warn":
		leveler = slog.LevelWarn
	case "error":
		leveler = slog.LevelError
	default:
		leveler = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: leveler}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
