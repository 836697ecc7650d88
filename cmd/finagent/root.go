package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/finagent/internal/config"
)

var (
	flagDataPath string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "finagent",
	Short: "Financial analysis agent",
	Long: `finagent answers free-text questions about a financial dataset.

A planner picks which workers to run (fetcher, analyzer, visualizer,
summarizer); the workers filter the data, compute metrics, draw charts and
write a narrative summary. Vague questions are answered with clarification
questions first.

Planning and summaries use Claude when an API key (or AWS Bedrock) is
configured and fall back to local rules otherwise.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataPath, "data", "", "Dataset path (CSV file or SQLite database)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagDataPath != "" {
		cfg.Data.Path = flagDataPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

// newLogger writes structured logs to stderr at the configured level.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}
