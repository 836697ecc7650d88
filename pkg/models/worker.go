package models

// WorkerStatus represents the current state of a worker.
type WorkerStatus string

const (
	// WorkerStatusIdle indicates the worker has not been invoked yet.
	WorkerStatusIdle WorkerStatus = "idle"
	// WorkerStatusWorking indicates the worker is executing a task.
	WorkerStatusWorking WorkerStatus = "working"
	// WorkerStatusCompleted indicates the last invocation succeeded.
	WorkerStatusCompleted WorkerStatus = "completed"
	// WorkerStatusError indicates the last invocation failed.
	WorkerStatusError WorkerStatus = "error"
	// WorkerStatusWaiting indicates the worker is blocked on input.
	WorkerStatusWaiting WorkerStatus = "waiting"
)

// Valid returns true if the status is a known value.
func (s WorkerStatus) Valid() bool {
	switch s {
	case WorkerStatusIdle, WorkerStatusWorking, WorkerStatusCompleted,
		WorkerStatusError, WorkerStatusWaiting:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a worker may move from s to next.
// Completed and Error are only reachable from Working, and a new
// invocation always starts by entering Working.
func (s WorkerStatus) CanTransition(next WorkerStatus) bool {
	switch next {
	case WorkerStatusWorking:
		return s != WorkerStatusWorking
	case WorkerStatusCompleted, WorkerStatusError:
		return s == WorkerStatusWorking
	case WorkerStatusIdle, WorkerStatusWaiting:
		return s != WorkerStatusWorking
	default:
		return false
	}
}

// Result is the immutable outcome of one worker invocation.
//
// A completed result never carries an error message and a failed result
// never carries data. Use NewCompletedResult and NewErrorResult to build
// results so the pairing holds.
type Result struct {
	// WorkerID identifies the worker that produced the result.
	WorkerID string `json:"worker_id"`
	// Status is either WorkerStatusCompleted or WorkerStatusError.
	Status WorkerStatus `json:"status"`
	// Data is the worker's output payload. Nil when Status is Error.
	Data any `json:"data"`
	// Error is the failure message. Empty when Status is Completed.
	Error string `json:"error,omitempty"`
	// Metadata holds small descriptive values such as row counts.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewCompletedResult builds a successful result.
func NewCompletedResult(workerID string, data any, metadata map[string]any) Result {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Result{
		WorkerID: workerID,
		Status:   WorkerStatusCompleted,
		Data:     data,
		Metadata: metadata,
	}
}

// NewErrorResult builds a failed result from err.
func NewErrorResult(workerID string, err error) Result {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Result{
		WorkerID: workerID,
		Status:   WorkerStatusError,
		Error:    msg,
		Metadata: map[string]any{},
	}
}

// Succeeded returns true if the result has completed status.
func (r Result) Succeeded() bool {
	return r.Status == WorkerStatusCompleted
}

// Failed returns true if the result has error status.
func (r Result) Failed() bool {
	return r.Status == WorkerStatusError
}
