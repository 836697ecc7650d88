package orchestrator

import "time"

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventPlanning indicates planning has started for a request.
	EventPlanning EventType = "planning"
	// EventPlanReady indicates a runnable plan was produced.
	EventPlanReady EventType = "plan_ready"
	// EventClarificationNeeded indicates the request is waiting on answers.
	EventClarificationNeeded EventType = "clarification_needed"
	// EventWorkerStarted indicates a worker began executing.
	EventWorkerStarted EventType = "worker_started"
	// EventWorkerCompleted indicates a worker succeeded.
	EventWorkerCompleted EventType = "worker_completed"
	// EventWorkerFailed indicates a worker returned an error result.
	EventWorkerFailed EventType = "worker_failed"
	// EventWorkerSkipped indicates a planned worker is not registered.
	EventWorkerSkipped EventType = "worker_skipped"
	// EventRunDone indicates an envelope was produced.
	EventRunDone EventType = "run_done"
)

// Event is emitted as a request moves through the orchestrator.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// RunID identifies the request.
	RunID string
	// WorkerID is set for worker events.
	WorkerID string
	// Message provides additional context.
	Message string
	// Error is set for failure events.
	Error string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
