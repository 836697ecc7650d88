package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ShayCichocki/finagent/internal/worker"
	"github.com/ShayCichocki/finagent/pkg/models"
)

// Executor runs a plan's workers one after another, threading the shared
// context between them.
type Executor struct {
	registry *Registry
	logger   *slog.Logger
	debug    *DebugLogger
	events   *EventEmitter
}

// NewExecutor creates an executor over registry. debug and events may be
// nil.
func NewExecutor(registry *Registry, logger *slog.Logger, debug *DebugLogger, events *EventEmitter) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{registry: registry, logger: logger, debug: debug, events: events}
}

// Run executes plan.ExecutionOrder against shared and returns one Result
// per worker that ran. Unregistered IDs are skipped with a warning. After
// each worker its private context is merged into shared, so later workers
// see earlier outputs. A failing worker does not stop the sequence.
func (e *Executor) Run(ctx context.Context, runID string, plan *models.TaskPlan, shared models.SharedContext) map[string]models.Result {
	results := make(map[string]models.Result, len(plan.ExecutionOrder))

	for _, id := range plan.ExecutionOrder {
		w, ok := e.registry.Get(id)
		if !ok {
			e.logger.Warn("skipping unknown worker", "worker", id)
			e.debug.Log("[%s] skip %s: not registered", runID, id)
			e.events.Emit(Event{Type: EventWorkerSkipped, RunID: runID, WorkerID: id, Message: "worker not registered"})
			continue
		}
		if _, seen := results[id]; seen {
			e.logger.Warn("skipping repeated worker", "worker", id)
			continue
		}

		e.debug.Log("[%s] run %s", runID, id)
		e.events.Emit(Event{Type: EventWorkerStarted, RunID: runID, WorkerID: id})

		result, finished := e.execute(ctx, w, plan.Task, shared)
		results[id] = result

		if finished {
			shared.Merge(w.Context())
		}

		if result.Succeeded() {
			e.logger.Info("worker completed", "worker", id)
			e.debug.Log("[%s] %s completed", runID, id)
			e.events.Emit(Event{Type: EventWorkerCompleted, RunID: runID, WorkerID: id})
		} else {
			e.logger.Warn("worker failed", "worker", id, "error", result.Error)
			e.debug.Log("[%s] %s failed: %s", runID, id, result.Error)
			e.events.Emit(Event{Type: EventWorkerFailed, RunID: runID, WorkerID: id, Error: result.Error})
		}
	}

	return results
}

// execute calls w, turning a panic into an Error result. finished is false
// when the worker did not return normally; its context is then not merged.
func (e *Executor) execute(ctx context.Context, w worker.Worker, task string, shared models.SharedContext) (result models.Result, finished bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("worker panicked", "worker", w.ID(), "panic", r)
			result = models.NewErrorResult(w.ID(), fmt.Errorf("worker %s panicked: %v", w.ID(), r))
			finished = false
		}
	}()

	result = w.Execute(ctx, task, shared)
	return sanitize(w.ID(), result), true
}

// sanitize enforces the Result pairing: completed results carry no error
// and failed results carry no data.
func sanitize(id string, r models.Result) models.Result {
	if r.WorkerID == "" {
		r.WorkerID = id
	}
	switch r.Status {
	case models.WorkerStatusCompleted:
		if r.Error != "" {
			return models.NewErrorResult(id, fmt.Errorf("%s", r.Error))
		}
	case models.WorkerStatusError:
		r.Data = nil
		if r.Error == "" {
			r.Error = "unknown error"
		}
	default:
		return models.NewErrorResult(id, fmt.Errorf("worker returned status %q", r.Status))
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	return r
}
