package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/finagent/internal/orchestrator"
	"github.com/ShayCichocki/finagent/internal/worker"
	"github.com/ShayCichocki/finagent/pkg/models"
)

var (
	askAnswers   []string
	askJSON      bool
	askChartsDir string
	askSegment   string
	askCountry   string
	askProduct   string
)

var askCmd = &cobra.Command{
	Use:   "ask <request>",
	Short: "Ask a question about the financial data",
	Long: `Plan and run an analysis for a free-text request.

If the request is too vague, finagent asks clarification questions. Answers
are read from --answer flags or prompted for on stdin, and the request is
then run again with the answers.

Examples:
  finagent ask "Analyze profit trends for the last 3 quarters"
  finagent ask "Chart Government profit in Canada" --charts-dir ./charts
  finagent ask "help me" --answer 1="profit" --answer 2="last year" \
      --answer 3="trends" --answer 4="charts"
  finagent ask "Summarize performance" --segment Midmarket --json

Filter flags apply to the request as given. A request that needs
clarification is rerun with only the answers, so name any filters in the
answers instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVar(&askAnswers, "answer", nil, `Clarification answer as N=answer or "question text"=answer (repeatable)`)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the envelope as JSON")
	askCmd.Flags().StringVar(&askChartsDir, "charts-dir", "", "Write rendered charts as HTML files into this directory")
	askCmd.Flags().StringVar(&askSegment, "segment", "", "Segment filter used when the request names none")
	askCmd.Flags().StringVar(&askCountry, "country", "", "Country filter used when the request names none")
	askCmd.Flags().StringVar(&askProduct, "product", "", "Product filter used when the request names none")
}

func runAsk(cmd *cobra.Command, args []string) error {
	task := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	events := orchestrator.NewEventEmitter(64, logger)
	a, err := newApp(cfg, logger, events)
	if err != nil {
		return err
	}
	defer a.Close()

	var wg sync.WaitGroup
	if !askJSON {
		wg.Add(1)
		go func() {
			defer wg.Done()
			printEvents(cmd.ErrOrStderr(), events.Events())
		}()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	conv := conversation{
		orch:    a.orch,
		timeout: cfg.Timeouts.Reasoning,
		answers: askAnswers,
		in:      cmd.InOrStdin(),
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}
	env, err := conv.run(ctx, task, filterHints())
	events.Close()
	wg.Wait()
	if err != nil {
		return err
	}

	if askChartsDir != "" {
		written, err := writeCharts(askChartsDir, env)
		if err != nil {
			return err
		}
		for _, path := range written {
			printStatus(cmd.ErrOrStderr(), "✓", "Wrote "+path, color.FgGreen)
		}
	}

	if askJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(env); err != nil {
			return fmt.Errorf("encode envelope: %w", err)
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), renderEnvelope(env))
		if a.client != nil {
			in, out := a.client.Tracker().Total()
			fmt.Fprintf(cmd.ErrOrStderr(), "Tokens: %s in / %s out (~$%.4f)\n",
				formatNumber(in), formatNumber(out), a.client.Tracker().Cost())
		}
	}

	if env.Status == models.EnvelopeError {
		return fmt.Errorf("request failed: %s", env.Error)
	}
	return nil
}

// filterHints turns the filter flags into context hints.
func filterHints() models.SharedContext {
	hints := map[string]any{}
	for k, v := range map[string]string{"segment": askSegment, "country": askCountry, "product": askProduct} {
		if v != "" {
			hints[k] = v
		}
	}
	if len(hints) == 0 {
		return nil
	}
	return models.SharedContext{models.ContextFilterHints: hints}
}

// conversation carries one ask request through the optional clarification
// round trip.
type conversation struct {
	orch    *orchestrator.Orchestrator
	timeout time.Duration
	answers []string
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
}

// run processes task and, when clarification is needed, collects answers
// and resumes. Each orchestrator call gets its own timeout; time spent
// waiting for answers is not counted against it.
func (c conversation) run(ctx context.Context, task string, hints models.SharedContext) (*models.Envelope, error) {
	callCtx, cancel := c.withTimeout(ctx)
	env := c.orch.Process(callCtx, task, hints)
	cancel()
	if env.Status != models.EnvelopeClarificationNeeded {
		return env, nil
	}

	answers, err := collectAnswers(env.Questions, c.answers, c.in, c.out)
	if err != nil {
		return nil, err
	}
	if len(hints) > 0 {
		printStatus(c.errOut, "⚠", "Filter flags are not carried into the clarified request; name the filters in your answers", color.FgYellow)
	}

	callCtx, cancel = c.withTimeout(ctx)
	defer cancel()
	return c.orch.Resume(callCtx, answers), nil
}

func (c conversation) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// parseAnswers reads N=answer or question=answer pairs. Numeric keys are
// 1-based question positions.
func parseAnswers(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid answer %q: want N=answer", p)
		}
		if n, err := strconv.Atoi(key); err == nil {
			if n < 1 {
				return nil, fmt.Errorf("invalid answer %q: question numbers start at 1", p)
			}
			key = orchestrator.QuestionKey(n - 1)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

// collectAnswers merges flag answers with answers prompted for on in.
func collectAnswers(questions, pairs []string, in io.Reader, out io.Writer) (map[string]string, error) {
	answers, err := parseAnswers(pairs)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(in)
	header := false
	for i, q := range questions {
		if answers[q] != "" || answers[orchestrator.QuestionKey(i)] != "" {
			continue
		}
		if !header {
			fmt.Fprintln(out, color.YellowString("I need a bit more detail:"))
			header = true
		}
		fmt.Fprintf(out, "%d. %s\n> ", i+1, q)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("read answer: %w", err)
			}
			return nil, fmt.Errorf("no answer given for %q", q)
		}
		answers[orchestrator.QuestionKey(i)] = strings.TrimSpace(scanner.Text())
	}
	return answers, nil
}

// writeCharts saves every renderable chart of env as <name>.html.
func writeCharts(dir string, env *models.Envelope) ([]string, error) {
	charts, ok := env.Visualizations.(worker.Charts)
	if !ok || len(charts) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create charts directory: %w", err)
	}

	names := make([]string, 0, len(charts))
	for name := range charts {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		c := charts[name]
		if c.Insufficient {
			continue
		}
		page, err := c.HTML()
		if err != nil {
			return written, fmt.Errorf("decode %s: %w", name, err)
		}
		path := filepath.Join(dir, name+".html")
		if err := os.WriteFile(path, page, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func printEvents(w io.Writer, events <-chan orchestrator.Event) {
	for e := range events {
		switch e.Type {
		case orchestrator.EventWorkerStarted:
			fmt.Fprintf(w, "%s %s\n", color.CyanString("→"), e.WorkerID)
		case orchestrator.EventWorkerCompleted:
			printStatus(w, "✓", e.WorkerID, color.FgGreen)
		case orchestrator.EventWorkerFailed:
			printStatus(w, "✗", e.WorkerID+": "+e.Error, color.FgRed)
		case orchestrator.EventWorkerSkipped:
			printStatus(w, "⚠", e.WorkerID+" skipped ("+e.Message+")", color.FgYellow)
		}
	}
}
