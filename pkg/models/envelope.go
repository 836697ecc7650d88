package models

// SessionStatus represents the orchestrator's lifecycle state for the
// request it is currently handling.
type SessionStatus string

const (
	SessionPending                 SessionStatus = "pending"
	SessionPlanning                SessionStatus = "planning"
	SessionExecuting               SessionStatus = "executing"
	SessionCompleted               SessionStatus = "completed"
	SessionError                   SessionStatus = "error"
	SessionWaitingForClarification SessionStatus = "waiting_for_clarification"
)

// Valid returns true if the status is a known value.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionPlanning, SessionExecuting, SessionCompleted,
		SessionError, SessionWaitingForClarification:
		return true
	default:
		return false
	}
}

// EnvelopeStatus tags the shape of an Envelope.
type EnvelopeStatus string

const (
	EnvelopeCompleted           EnvelopeStatus = "completed"
	EnvelopeClarificationNeeded EnvelopeStatus = "clarification_needed"
	EnvelopeError               EnvelopeStatus = "error"
)

// Envelope is the response returned by the orchestrator. Which fields are
// populated depends on Status:
//
//   - completed: Summary, Analysis, Visualizations, FinancialData,
//     SuccessfulWorkers, FailedWorkers, WorkerStatus, Metadata
//   - clarification_needed: Questions
//   - error: Error
//
// Task is always set.
type Envelope struct {
	Status EnvelopeStatus `json:"status"`
	Task   string         `json:"task"`
	RunID  string         `json:"run_id,omitempty"`

	Questions []string `json:"questions,omitempty"`

	Error string `json:"error,omitempty"`

	Summary           string                  `json:"summary,omitempty"`
	Analysis          map[string]any          `json:"analysis,omitempty"`
	Visualizations    any                     `json:"visualizations,omitempty"`
	FinancialData     any                     `json:"financial_data,omitempty"`
	SuccessfulWorkers []string                `json:"successful_workers,omitempty"`
	FailedWorkers     []string                `json:"failed_workers,omitempty"`
	WorkerStatus      map[string]WorkerStatus `json:"worker_status,omitempty"`
	Metadata          *EnvelopeMetadata       `json:"metadata,omitempty"`
}

// EnvelopeMetadata carries worker counts for a completed envelope.
type EnvelopeMetadata struct {
	Total      int `json:"total_workers"`
	Successful int `json:"successful_workers"`
	Failed     int `json:"failed_workers"`
}

// NewErrorEnvelope builds an error envelope for task.
func NewErrorEnvelope(task, msg string) *Envelope {
	return &Envelope{
		Status: EnvelopeError,
		Task:   task,
		Error:  msg,
	}
}

// NewClarificationEnvelope builds a clarification envelope for task.
func NewClarificationEnvelope(task string, questions []string) *Envelope {
	qs := make([]string, len(questions))
	copy(qs, questions)
	return &Envelope{
		Status:    EnvelopeClarificationNeeded,
		Task:      task,
		Questions: qs,
	}
}
