package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/finagent/internal/config"
	"github.com/ShayCichocki/finagent/internal/dataset"
	"github.com/ShayCichocki/finagent/internal/history"
	"github.com/ShayCichocki/finagent/internal/planner"
	"github.com/ShayCichocki/finagent/internal/version"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and data source health",
	Long: `Display what finagent will use for the next request.

Shows:
  - Reasoning service credentials and model
  - Dataset location and whether it loads
  - Planner rule table in use
  - Run history location and size`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprintf(w, "finagent %s\n\n", version.Get())

	fmt.Fprintln(w, "Reasoning service:")
	creds, err := config.ResolveCredentials(cfg)
	switch {
	case errors.Is(err, config.ErrNoAPIKey):
		printStatus(w, "⚠", "No API key; local planning rules and templated summaries", color.FgYellow)
	case err != nil:
		printStatus(w, "✗", err.Error(), color.FgRed)
	case creds.Source == config.SourceBedrock:
		printStatus(w, "✓", fmt.Sprintf("AWS Bedrock (region %s)", orNone(cfg.Anthropic.AWSRegion)), color.FgGreen)
	default:
		printStatus(w, "✓", fmt.Sprintf("API key %s (from %s)", config.MaskAPIKey(creds.APIKey), creds.Source), color.FgGreen)
		if err := config.ValidateAPIKey(creds.APIKey); err != nil {
			printStatus(w, "⚠", err.Error(), color.FgYellow)
		}
	}
	fmt.Fprintf(w, "  Model: %s\n\n", orNone(cfg.Anthropic.Model))

	fmt.Fprintln(w, "Data:")
	checkData(ctx, w, cfg)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Planner rules:")
	if _, err := planner.LoadRules(cfg.Planner.RulesFile); err != nil {
		printStatus(w, "✗", err.Error(), color.FgRed)
	} else if cfg.Planner.RulesFile == "" {
		printStatus(w, "✓", "built-in rules", color.FgGreen)
	} else {
		printStatus(w, "✓", cfg.Planner.RulesFile, color.FgGreen)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "History:")
	checkHistory(ctx, w, cfg)
	return nil
}

func checkData(ctx context.Context, w io.Writer, cfg *config.Config) {
	src := dataset.Open(cfg.Data.Path, cfg.Data.Table)
	table, err := src.Load(ctx)
	if err != nil {
		printStatus(w, "✗", fmt.Sprintf("%s: %v", src.Describe(), err), color.FgRed)
		return
	}
	msg := fmt.Sprintf("%s: %s rows, %d columns", src.Describe(), formatNumber(int64(table.Len())), len(table.Columns))
	if start, end, ok := table.DateRange(); ok {
		msg += fmt.Sprintf(", %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	printStatus(w, "✓", msg, color.FgGreen)
}

func checkHistory(ctx context.Context, w io.Writer, cfg *config.Config) {
	if !cfg.History.Enabled {
		fmt.Fprintln(w, "  disabled")
		return
	}
	if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
		fmt.Fprintf(w, "  %s (no runs yet)\n", cfg.History.Path)
		return
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		printStatus(w, "✗", err.Error(), color.FgRed)
		return
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, 0, nil)
	if err != nil {
		printStatus(w, "✗", err.Error(), color.FgRed)
		return
	}
	fmt.Fprintf(w, "  %s (%d runs)\n", cfg.History.Path, len(runs))
}

func orNone(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
