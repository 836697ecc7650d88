package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/ShayCichocki/finagent/internal/worker"
	"github.com/ShayCichocki/finagent/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Width(22)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45B7D1")).
			Padding(0, 1)
)

// renderEnvelope formats env for the terminal.
func renderEnvelope(env *models.Envelope) string {
	switch env.Status {
	case models.EnvelopeError:
		return lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render("Request failed"),
			keyValue("Task", env.Task),
			keyValue("Error", env.Error),
		)
	case models.EnvelopeClarificationNeeded:
		lines := []string{titleStyle.Render("Clarification needed"), keyValue("Task", env.Task)}
		for i, q := range env.Questions {
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, q))
		}
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	blocks := []string{
		titleStyle.Render("Analysis complete"),
		keyValue("Task", env.Task),
		keyValue("Run", env.RunID),
		keyValue("Workers", workerLine(env)),
	}
	if data, ok := env.FinancialData.(*worker.FinancialData); ok {
		blocks = append(blocks,
			keyValue("Scope", data.FiltersApplied.Describe()),
			keyValue("Data points", fmt.Sprint(data.DataPoints)),
			keyValue("Period", data.DateRange.Start+" to "+data.DateRange.End),
		)
	}
	if metrics := metricLines(env.Analysis); len(metrics) > 0 {
		blocks = append(blocks, "", titleStyle.Render("Metrics"))
		blocks = append(blocks, metrics...)
	}
	if charts, ok := env.Visualizations.(worker.Charts); ok && len(charts) > 0 {
		names := make([]string, 0, len(charts))
		for name := range charts {
			names = append(names, name)
		}
		sort.Strings(names)
		blocks = append(blocks, keyValue("Charts", strings.Join(names, ", ")))
	}
	if env.Summary != "" {
		blocks = append(blocks, "", boxStyle.Render(strings.TrimSpace(env.Summary)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func keyValue(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func workerLine(env *models.Envelope) string {
	var parts []string
	for _, id := range env.SuccessfulWorkers {
		parts = append(parts, id+" ✓")
	}
	for _, id := range env.FailedWorkers {
		parts = append(parts, id+" ✗")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "  ")
}

// metricLines lists scalar metrics sorted by name; breakdowns are skipped.
func metricLines(analysis map[string]any) []string {
	keys := make([]string, 0, len(analysis))
	for k, v := range analysis {
		switch v.(type) {
		case float64, int, string:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		value := fmt.Sprint(analysis[k])
		if f, ok := analysis[k].(float64); ok {
			value = fmt.Sprintf("%.2f", f)
		}
		lines = append(lines, keyValue(k, value))
	}
	return lines
}

// printStatus prints a status line with color
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}

// formatNumber formats an integer with thousands separators.
func formatNumber(n int64) string {
	s := fmt.Sprint(n)
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
