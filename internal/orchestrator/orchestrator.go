package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ShayCichocki/finagent/internal/planner"
	"github.com/ShayCichocki/finagent/internal/worker"
	"github.com/ShayCichocki/finagent/pkg/models"
)

// ErrNoPendingClarification is reported when Resume is called while the
// orchestrator is not waiting for answers.
var ErrNoPendingClarification = errors.New("no clarification pending")

// StatusReport describes the orchestrator and its workers.
type StatusReport struct {
	Status           models.SessionStatus           `json:"status"`
	CurrentTask      string                         `json:"current_task"`
	RunID            string                         `json:"run_id,omitempty"`
	PendingQuestions []string                       `json:"pending_questions,omitempty"`
	AvailableWorkers []string                       `json:"available_workers"`
	WorkerStatus     map[string]models.WorkerStatus `json:"worker_status"`
}

// Orchestrator takes one request at a time from planning to an envelope.
// Callers must not run Process or Resume concurrently on one instance;
// Status may be read at any time.
type Orchestrator struct {
	planner  *planner.Planner
	registry *Registry
	executor *Executor
	logger   *slog.Logger
	debug    *DebugLogger
	events   *EventEmitter
	recorder RunRecorder
	newRunID func() string

	mu          sync.Mutex
	status      models.SessionStatus
	currentTask string
	runID       string
	questions   []string
}

// New creates an orchestrator that plans with p and runs workers.
func New(p *planner.Planner, workers []worker.Worker, opts ...Option) *Orchestrator {
	o := &orchestratorOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.debug == nil {
		o.debug = NopLogger()
	}
	if o.newRunID == nil {
		o.newRunID = uuid.NewString
	}

	logger := o.logger.With("component", "orchestrator")
	registry := NewRegistry(workers...)
	return &Orchestrator{
		planner:  p,
		registry: registry,
		executor: NewExecutor(registry, logger, o.debug, o.events),
		logger:   logger,
		debug:    o.debug,
		events:   o.events,
		recorder: o.recorder,
		newRunID: o.newRunID,
		status:   models.SessionPending,
	}
}

// Registry returns the worker registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Process plans task and either asks for clarification or runs the plan.
// It never panics and never returns nil; failures come back as an error
// envelope.
func (o *Orchestrator) Process(ctx context.Context, task string, shared models.SharedContext) (env *models.Envelope) {
	runID := o.newRunID()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("request failed", "run_id", runID, "panic", r)
			o.setStatus(models.SessionError)
			env = models.NewErrorEnvelope(task, fmt.Sprintf("internal error: %v", r))
		}
		env.RunID = runID
		o.emit(Event{Type: EventRunDone, RunID: runID, Message: string(env.Status), Error: env.Error})
		o.record(ctx, runID, env)
	}()

	o.mu.Lock()
	o.currentTask = task
	o.runID = runID
	o.questions = nil
	o.mu.Unlock()
	o.setStatus(models.SessionPlanning)
	o.emit(Event{Type: EventPlanning, RunID: runID, Message: task})

	shared = shared.Clone()
	plan := o.planner.Plan(ctx, task, shared, o.registry.Capabilities())
	if err := plan.Validate(); err != nil {
		o.logger.Error("invalid plan", "run_id", runID, "error", err)
		o.setStatus(models.SessionError)
		return models.NewErrorEnvelope(task, fmt.Sprintf("invalid plan: %v", err))
	}
	o.debug.Log("[%s] plan from %s: order=%v clarification=%v", runID, plan.Source, plan.ExecutionOrder, plan.ClarificationNeeded)

	if plan.ClarificationNeeded {
		o.mu.Lock()
		o.questions = append([]string(nil), plan.ClarificationQuestions...)
		o.mu.Unlock()
		o.setStatus(models.SessionWaitingForClarification)
		o.emit(Event{Type: EventClarificationNeeded, RunID: runID, Message: strings.Join(plan.ClarificationQuestions, " | ")})
		return models.NewClarificationEnvelope(task, plan.ClarificationQuestions)
	}

	o.emit(Event{Type: EventPlanReady, RunID: runID, Message: strings.Join(plan.ExecutionOrder, ",")})
	o.setStatus(models.SessionExecuting)
	results := o.executor.Run(ctx, runID, plan, shared)
	env = Aggregate(results, plan)
	o.setStatus(models.SessionCompleted)
	return env
}

// Resume answers a pending clarification and reruns the same task with a
// fresh context holding only the answers. Every question must be answered,
// keyed by the question text or by "question_N" (1-based). On misuse an
// error envelope is returned and the state is left unchanged.
func (o *Orchestrator) Resume(ctx context.Context, answers map[string]string) *models.Envelope {
	o.mu.Lock()
	status, task := o.status, o.currentTask
	questions := append([]string(nil), o.questions...)
	o.mu.Unlock()

	if status != models.SessionWaitingForClarification {
		return models.NewErrorEnvelope(task, ErrNoPendingClarification.Error())
	}
	if missing := unanswered(questions, answers); len(missing) > 0 {
		return models.NewErrorEnvelope(task, fmt.Sprintf("missing answers for: %s", strings.Join(missing, "; ")))
	}

	given := make(map[string]string, len(answers))
	for k, v := range answers {
		given[k] = v
	}
	fresh := models.SharedContext{models.ContextClarificationAnswers: given}

	o.debug.Log("resume %q with %d answers", task, len(given))
	o.setStatus(models.SessionPlanning)
	return o.Process(ctx, task, fresh)
}

// QuestionKey is the positional key an answer to the i-th question
// (0-based) may be stored under.
func QuestionKey(i int) string {
	return fmt.Sprintf("question_%d", i+1)
}

func unanswered(questions []string, answers map[string]string) []string {
	var missing []string
	for i, q := range questions {
		a, ok := answers[q]
		if !ok || strings.TrimSpace(a) == "" {
			a, ok = answers[QuestionKey(i)]
		}
		if !ok || strings.TrimSpace(a) == "" {
			missing = append(missing, q)
		}
	}
	return missing
}

// Status reports the current state.
func (o *Orchestrator) Status() StatusReport {
	o.mu.Lock()
	report := StatusReport{
		Status:           o.status,
		CurrentTask:      o.currentTask,
		RunID:            o.runID,
		PendingQuestions: append([]string(nil), o.questions...),
	}
	o.mu.Unlock()

	report.AvailableWorkers = o.registry.IDs()
	report.WorkerStatus = o.registry.Statuses()
	return report
}

func (o *Orchestrator) setStatus(next models.SessionStatus) {
	o.mu.Lock()
	prev := o.status
	o.status = next
	runID := o.runID
	o.mu.Unlock()

	if prev != next {
		o.logger.Debug("status changed", "run_id", runID, "from", prev, "to", next)
		o.debug.Log("[%s] %s -> %s", runID, prev, next)
	}
}

func (o *Orchestrator) emit(e Event) {
	o.events.Emit(e)
}

func (o *Orchestrator) record(ctx context.Context, runID string, env *models.Envelope) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(context.WithoutCancel(ctx), runID, env); err != nil {
		o.logger.Warn("failed to record run", "run_id", runID, "error", err)
	}
}
