package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ShayCichocki/finagent/internal/config"
	"github.com/ShayCichocki/finagent/internal/dataset"
	"github.com/ShayCichocki/finagent/internal/orchestrator"
	"github.com/ShayCichocki/finagent/internal/planner"
	"github.com/ShayCichocki/finagent/internal/testutil"
	"github.com/ShayCichocki/finagent/internal/worker"
	"github.com/ShayCichocki/finagent/pkg/models"
)

func TestParseAnswers(t *testing.T) {
	got, err := parseAnswers([]string{"1=profit", " 2 = last year ", "What type?=trends"})
	if err != nil {
		t.Fatalf("parseAnswers: %v", err)
	}
	want := map[string]string{"question_1": "profit", "question_2": "last year", "What type?": "trends"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("answer[%q] = %q, want %q", k, got[k], v)
		}
	}

	for _, bad := range []string{"no-equals", "=value", "0=zero"} {
		if _, err := parseAnswers([]string{bad}); err == nil {
			t.Errorf("parseAnswers(%q) succeeded", bad)
		}
	}
}

func TestCollectAnswers(t *testing.T) {
	questions := []string{"Which data?", "Which period?", "Which output?"}
	in := strings.NewReader("last quarter\ncharts\n")
	var out bytes.Buffer

	answers, err := collectAnswers(questions, []string{"1=profit"}, in, &out)
	if err != nil {
		t.Fatalf("collectAnswers: %v", err)
	}
	if answers["question_1"] != "profit" || answers["question_2"] != "last quarter" || answers["question_3"] != "charts" {
		t.Errorf("answers = %v", answers)
	}
	if strings.Contains(out.String(), "Which data?") {
		t.Error("prompted for a question answered by flag")
	}
	if !strings.Contains(out.String(), "2. Which period?") {
		t.Errorf("prompt output = %q", out.String())
	}
}

func TestCollectAnswersEOF(t *testing.T) {
	_, err := collectAnswers([]string{"Which data?"}, nil, strings.NewReader(""), &bytes.Buffer{})
	if err == nil {
		t.Error("expected error when stdin ends before all answers")
	}
}

func TestConfigValueRoundTrip(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		key, value, want string
	}{
		{"planner.temperature", "0.2", "0.2"},
		{"summarizer.max_tokens", "1500", "1500"},
		{"data.path", "/tmp/data.csv", "/tmp/data.csv"},
		{"data.watch", "false", "false"},
		{"log.level", "debug", "debug"},
		{"timeouts.reasoning", "90s", "1m30s"},
		{"anthropic.api_key", "sk-ant-REDACTED", "sk-ant-...mnop"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := setConfigValue(cfg, tt.key, tt.value); err != nil {
				t.Fatalf("set: %v", err)
			}
			got, err := getConfigValue(cfg, tt.key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigValueErrors(t *testing.T) {
	cfg := config.Default()
	for _, tc := range []struct{ key, value string }{
		{"nope", "x"},
		{"data.watch", "maybe"},
		{"planner.max_tokens", "lots"},
		{"log.level", "loud"},
		{"timeouts.reasoning", "soon"},
	} {
		if err := setConfigValue(cfg, tc.key, tc.value); err == nil {
			t.Errorf("setConfigValue(%q, %q) succeeded", tc.key, tc.value)
		}
	}
	if _, err := getConfigValue(cfg, "nope"); err == nil {
		t.Error("getConfigValue(nope) succeeded")
	}
	for _, key := range configKeys {
		if _, err := getConfigValue(cfg, key); err != nil {
			t.Errorf("listed key %q not readable: %v", key, err)
		}
	}
}

func TestRenderEnvelope(t *testing.T) {
	completed := &models.Envelope{
		Status:            models.EnvelopeCompleted,
		Task:              "Analyze profit",
		RunID:             "run-1",
		Summary:           "Profit grew steadily.",
		Analysis:          map[string]any{"total_profit": 1234.5, "trend_direction": "upward", "quarterly_profit": map[string]float64{}},
		SuccessfulWorkers: []string{"fetcher", "analyzer"},
		FailedWorkers:     []string{"visualizer"},
	}
	out := renderEnvelope(completed)
	for _, want := range []string{"Analysis complete", "Analyze profit", "1234.50", "upward", "Profit grew steadily.", "visualizer ✗"} {
		if !strings.Contains(out, want) {
			t.Errorf("completed render missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "quarterly_profit") {
		t.Error("breakdown maps should not be listed as metrics")
	}

	clar := renderEnvelope(models.NewClarificationEnvelope("help me", []string{"Which data?"}))
	if !strings.Contains(clar, "1. Which data?") {
		t.Errorf("clarification render = %q", clar)
	}

	failed := renderEnvelope(models.NewErrorEnvelope("task", "boom"))
	if !strings.Contains(failed, "boom") {
		t.Errorf("error render = %q", failed)
	}
}

func TestWriteCharts(t *testing.T) {
	charts, err := worker.Visualize("plot profit for each quarter", testutil.FinancialTable(), nil)
	if err != nil {
		t.Fatalf("Visualize: %v", err)
	}
	env := &models.Envelope{Status: models.EnvelopeCompleted, Visualizations: charts}

	dir := filepath.Join(t.TempDir(), "charts")
	written, err := writeCharts(dir, env)
	if err != nil {
		t.Fatalf("writeCharts: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("wrote %v, want profit and quarterly charts", written)
	}
	page, err := os.ReadFile(filepath.Join(dir, worker.ChartProfit+".html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "Plotly.newPlot") {
		t.Error("chart page does not call Plotly")
	}

	none, err := writeCharts(dir, &models.Envelope{})
	if err != nil || len(none) != 0 {
		t.Errorf("writeCharts without charts = %v, %v", none, err)
	}
}

func TestFormatHelpers(t *testing.T) {
	for n, want := range map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4500: "-4,500"} {
		if got := formatNumber(n); got != want {
			t.Errorf("formatNumber(%d) = %q, want %q", n, got, want)
		}
	}
	if got := truncate(strings.Repeat("a", 70), 20); len(got) != 20 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate = %q", got)
	}
	if got := formatDuration(90 * time.Minute); got != "1h30m" {
		t.Errorf("formatDuration = %q", got)
	}
}

func TestFilterHints(t *testing.T) {
	askSegment, askCountry = "Midmarket", ""
	t.Cleanup(func() { askSegment = "" })

	hints := filterHints()
	m, ok := hints[models.ContextFilterHints].(map[string]any)
	if !ok || m["segment"] != "Midmarket" || len(m) != 1 {
		t.Errorf("hints = %v", hints)
	}

	askSegment = ""
	if filterHints() != nil {
		t.Error("expected nil hints without flags")
	}
}

// deadlineSource fails once its load context is done.
type deadlineSource struct {
	table *dataset.Table
}

func (s deadlineSource) Load(ctx context.Context) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.table.Clone(), nil
}

func (deadlineSource) Describe() string { return "deadline" }

// slowReader waits before its first read, like a user thinking.
type slowReader struct {
	delay  time.Duration
	r      io.Reader
	waited bool
}

func (s *slowReader) Read(p []byte) (int, error) {
	if !s.waited {
		time.Sleep(s.delay)
		s.waited = true
	}
	return s.r.Read(p)
}

func newConversationOrchestrator() *orchestrator.Orchestrator {
	logger := testutil.DiscardLogger()
	workers := worker.Defaults(deadlineSource{table: testutil.FinancialTable()}, nil, worker.DefaultSummarizerConfig(), logger)
	return orchestrator.New(planner.New(nil, nil, planner.DefaultConfig(), logger), workers, orchestrator.WithLogger(logger))
}

func TestConversationTimeoutExcludesAnswerWait(t *testing.T) {
	conv := conversation{
		orch:    newConversationOrchestrator(),
		timeout: 50 * time.Millisecond,
		in:      &slowReader{delay: 150 * time.Millisecond, r: strings.NewReader("profit\nlast year\ntrends\ncharts\n")},
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
	}

	env, err := conv.run(context.Background(), "help me", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if env.Status != models.EnvelopeCompleted {
		t.Fatalf("status = %s (%s), want completed", env.Status, env.Error)
	}
	if len(env.FailedWorkers) != 0 {
		t.Errorf("failed workers = %v, want none", env.FailedWorkers)
	}
	if len(env.SuccessfulWorkers) == 0 || env.SuccessfulWorkers[0] != "fetcher" {
		t.Errorf("successful workers = %v", env.SuccessfulWorkers)
	}
}

func TestConversationWithoutClarification(t *testing.T) {
	var errOut bytes.Buffer
	conv := conversation{
		orch:   newConversationOrchestrator(),
		in:     strings.NewReader(""),
		out:    &bytes.Buffer{},
		errOut: &errOut,
	}
	hints := models.SharedContext{models.ContextFilterHints: map[string]any{"segment": "Government"}}

	env, err := conv.run(context.Background(), "Analyze profit trends for the last 3 quarters", hints)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if env.Status != models.EnvelopeCompleted {
		t.Fatalf("status = %s (%s)", env.Status, env.Error)
	}
	if errOut.Len() != 0 {
		t.Errorf("unexpected warning: %q", errOut.String())
	}
}

func TestConversationWarnsWhenFiltersDropped(t *testing.T) {
	var errOut bytes.Buffer
	conv := conversation{
		orch:    newConversationOrchestrator(),
		answers: []string{"1=profit", "2=last year", "3=trends", "4=charts"},
		in:      strings.NewReader(""),
		out:     &bytes.Buffer{},
		errOut:  &errOut,
	}
	hints := models.SharedContext{models.ContextFilterHints: map[string]any{"segment": "Government"}}

	env, err := conv.run(context.Background(), "help me", hints)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if env.Status != models.EnvelopeCompleted {
		t.Fatalf("status = %s (%s)", env.Status, env.Error)
	}
	if !strings.Contains(errOut.String(), "Filter flags are not carried") {
		t.Errorf("warning output = %q", errOut.String())
	}
}
