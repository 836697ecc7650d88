package orchestrator

import (
	"context"
	"log/slog"

	"github.com/ShayCichocki/finagent/pkg/models"
)

// RunRecorder persists every envelope the orchestrator returns.
type RunRecorder interface {
	Record(ctx context.Context, runID string, env *models.Envelope) error
}

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

type orchestratorOptions struct {
	logger   *slog.Logger
	debug    *DebugLogger
	events   *EventEmitter
	recorder RunRecorder
	newRunID func() string
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *orchestratorOptions) { o.logger = l }
}

// WithDebugLogger sets the file trace logger.
func WithDebugLogger(l *DebugLogger) Option {
	return func(o *orchestratorOptions) { o.debug = l }
}

// WithEvents sets the event emitter progress is reported to.
func WithEvents(e *EventEmitter) Option {
	return func(o *orchestratorOptions) { o.events = e }
}

// WithRecorder sets the run history recorder.
func WithRecorder(r RunRecorder) Option {
	return func(o *orchestratorOptions) { o.recorder = r }
}

// WithRunIDs sets the run ID generator (mainly for testing).
func WithRunIDs(f func() string) Option {
	return func(o *orchestratorOptions) { o.newRunID = f }
}
