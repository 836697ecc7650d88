package models

import "fmt"

// TaskPlan is the planner's decision for a request: either an ordered list
// of workers to run or a request for clarification.
type TaskPlan struct {
	// Task is the original request text.
	Task string `json:"task"`
	// WorkersNeeded lists the workers the plan uses.
	WorkersNeeded []string `json:"workers_needed"`
	// ExecutionOrder is the order the executor follows. It may reorder or
	// subset WorkersNeeded.
	ExecutionOrder []string `json:"execution_order"`
	// Context is the incoming context the plan was built against.
	Context SharedContext `json:"context,omitempty"`
	// ClarificationNeeded is true when the request is too vague to plan.
	ClarificationNeeded bool `json:"clarification_needed"`
	// ClarificationQuestions are asked when ClarificationNeeded is true.
	ClarificationQuestions []string `json:"clarification_questions,omitempty"`
	// Reasoning is the planner's explanation, when available.
	Reasoning string `json:"reasoning,omitempty"`
	// Source names the strategy that produced the plan.
	Source PlanSource `json:"source"`
}

// PlanSource names the strategy that produced a plan.
type PlanSource string

const (
	// PlanSourceReasoning marks plans parsed from the reasoning service.
	PlanSourceReasoning PlanSource = "reasoning"
	// PlanSourceRules marks plans produced by the deterministic rule table.
	PlanSourceRules PlanSource = "rules"
)

// Validate checks the plan's structural invariants.
func (p *TaskPlan) Validate() error {
	if p == nil {
		return fmt.Errorf("plan is nil")
	}
	if p.ClarificationNeeded && len(p.ExecutionOrder) > 0 {
		return fmt.Errorf("plan requests clarification but has %d workers in execution order", len(p.ExecutionOrder))
	}
	if p.ClarificationNeeded && len(p.ClarificationQuestions) == 0 {
		return fmt.Errorf("plan requests clarification without questions")
	}
	return nil
}
