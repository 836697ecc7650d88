package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/finagent/internal/history"
	"github.com/ShayCichocki/finagent/pkg/models"
)

var (
	historyLimit  int
	historyStatus string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	Long: `List runs recorded in the history database, newest first.

Use 'finagent history show <run-id>' to print a recorded envelope.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the envelope of a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of runs to list (0 for all)")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "Only list runs with this status (completed, clarification_needed, error)")
	historyCmd.AddCommand(historyShowCmd)
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("run history is disabled (history.enabled = false)")
	}
	return history.Open(cfg.History.Path)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	var status *models.EnvelopeStatus
	if historyStatus != "" {
		s := models.EnvelopeStatus(historyStatus)
		status = &s
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runs, err := store.ListRuns(ctx, historyLimit, status)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet. Run 'finagent ask <request>' to start.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %-22s %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.ID[:min(8, len(r.ID))],
			statusLabel(r.Status),
			truncate(r.Task, 60))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	run, err := store.GetRun(ctx, args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run %s (%s ago)\n", run.ID, formatDuration(time.Since(run.CreatedAt)))
	var out bytes.Buffer
	if err := json.Indent(&out, run.Envelope, "", "  "); err != nil {
		return fmt.Errorf("format envelope: %w", err)
	}
	fmt.Fprintln(w, out.String())
	return nil
}

func statusLabel(s models.EnvelopeStatus) string {
	switch s {
	case models.EnvelopeCompleted:
		return color.GreenString(string(s))
	case models.EnvelopeClarificationNeeded:
		return color.YellowString(string(s))
	default:
		return color.RedString(string(s))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-3]) + "..."
}

// formatDuration formats a duration in human-readable form.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
