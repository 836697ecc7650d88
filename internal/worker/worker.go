// Package worker implements the pipeline stages the orchestrator runs:
// data fetching, statistical analysis, chart rendering and narrative
// summarization. Every worker reports its outcome as a models.Result and
// never returns a Go error or panics out of Execute.
package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ShayCichocki/finagent/pkg/models"
)

// Worker IDs, in canonical pipeline order.
const (
	IDFetcher    = "fetcher"
	IDAnalyzer   = "analyzer"
	IDVisualizer = "visualizer"
	IDSummarizer = "summarizer"
)

// CanonicalOrder is the order workers run in when a plan selects several.
var CanonicalOrder = []string{IDFetcher, IDAnalyzer, IDVisualizer, IDSummarizer}

var aliases = map[string]string{
	"data_fetcher": IDFetcher,
	"datafetcher":  IDFetcher,
}

// NormalizeID lowercases id and maps known aliases onto worker IDs.
func NormalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if canonical, ok := aliases[id]; ok {
		return canonical
	}
	return id
}

var (
	// ErrNoFinancialData is reported when no fetcher output is in context.
	ErrNoFinancialData = errors.New("no financial data available")
	// ErrNoRows is reported when the fetched row set is empty.
	ErrNoRows = errors.New("no data rows available")
)

// Worker is one stage of the analysis pipeline.
type Worker interface {
	ID() string
	Role() string
	Description() string
	// CanHandle is a keyword hint; the planner is free to ignore it.
	CanHandle(task string) bool
	// Capabilities are fed verbatim into the planning prompt.
	Capabilities() []string
	Status() models.WorkerStatus
	// Context returns a copy of the entries the last Execute produced.
	Context() models.SharedContext
	Execute(ctx context.Context, task string, shared models.SharedContext) models.Result
}

// Base carries the identity, status and private context every worker
// shares. Concrete workers embed it.
type Base struct {
	id           string
	role         string
	description  string
	keywords     []string
	capabilities []string
	logger       *slog.Logger

	mu      sync.Mutex
	status  models.WorkerStatus
	private models.SharedContext
}

func newBase(id, role, description string, keywords, capabilities []string, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Base{
		id:           id,
		role:         role,
		description:  description,
		keywords:     keywords,
		capabilities: capabilities,
		logger:       logger.With("worker", id),
		status:       models.WorkerStatusIdle,
		private:      models.NewSharedContext(),
	}
}

// ID returns the worker ID.
func (b *Base) ID() string { return b.id }

// Role returns the human-readable role.
func (b *Base) Role() string { return b.role }

// Description returns a one-line description.
func (b *Base) Description() string { return b.description }

// CanHandle reports whether task mentions any of the worker's keywords.
// A worker without keywords handles everything.
func (b *Base) CanHandle(task string) bool {
	if len(b.keywords) == 0 {
		return true
	}
	return containsAny(strings.ToLower(task), b.keywords)
}

// Capabilities returns a copy of the capability list.
func (b *Base) Capabilities() []string {
	out := make([]string, len(b.capabilities))
	copy(out, b.capabilities)
	return out
}

// Status returns the current status.
func (b *Base) Status() models.WorkerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Context returns a copy of the private context.
func (b *Base) Context() models.SharedContext {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.private.Clone()
}

func (b *Base) String() string {
	return b.id + " (" + b.role + "): " + b.description
}

// begin starts an invocation: the private context is cleared and the
// status moves to Working.
func (b *Base) begin() {
	b.mu.Lock()
	b.private = models.NewSharedContext()
	b.mu.Unlock()
	b.setStatus(models.WorkerStatusWorking)
}

func (b *Base) setStatus(next models.WorkerStatus) {
	b.mu.Lock()
	prev := b.status
	if !prev.CanTransition(next) {
		b.logger.Warn("unexpected status transition", "from", prev, "to", next)
	}
	b.status = next
	b.mu.Unlock()
	b.logger.Info("status changed", "from", prev, "to", next)
}

// put records an output entry in the private context.
func (b *Base) put(key string, value any) {
	b.mu.Lock()
	b.private[key] = value
	b.mu.Unlock()
	b.logger.Debug("added to context", "key", key)
}

func (b *Base) complete(data any, metadata map[string]any) models.Result {
	b.setStatus(models.WorkerStatusCompleted)
	return models.NewCompletedResult(b.id, data, metadata)
}

func (b *Base) fail(err error) models.Result {
	b.logger.Error("execution failed", "error", err)
	b.setStatus(models.WorkerStatusError)
	return models.NewErrorResult(b.id, err)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
