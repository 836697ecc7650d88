package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ShayCichocki/finagent/internal/worker"
	"github.com/ShayCichocki/finagent/pkg/models"
)

// ErrNoPlan is returned when a reply carries no JSON object.
var ErrNoPlan = errors.New("no JSON object found in response")

type planResponse struct {
	AgentsNeeded           []string `json:"agents_needed"`
	WorkersNeeded          []string `json:"workers_needed"`
	ExecutionOrder         []string `json:"execution_order"`
	ClarificationNeeded    bool     `json:"clarification_needed"`
	ClarificationQuestions []string `json:"clarification_questions"`
	Reasoning              string   `json:"reasoning"`
}

// ParseResponse extracts a plan from the reasoning service's reply. The
// JSON object may be wrapped in prose or a code fence.
func ParseResponse(task, response string, shared models.SharedContext) (*models.TaskPlan, error) {
	body := stripFence(response)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoPlan
	}

	var r planResponse
	if err := json.Unmarshal([]byte(body[start:end+1]), &r); err != nil {
		return nil, fmt.Errorf("parse plan JSON: %w (response: %s)", err, preview(response, 200))
	}

	plan := &models.TaskPlan{
		Task:      task,
		Context:   shared,
		Reasoning: r.Reasoning,
		Source:    models.PlanSourceReasoning,
	}

	if r.ClarificationNeeded {
		plan.ClarificationNeeded = true
		plan.ClarificationQuestions = nonEmpty(r.ClarificationQuestions)
		plan.WorkersNeeded = []string{}
		plan.ExecutionOrder = []string{}
		if err := plan.Validate(); err != nil {
			return nil, err
		}
		return plan, nil
	}

	needed := r.AgentsNeeded
	if len(needed) == 0 {
		needed = r.WorkersNeeded
	}
	plan.WorkersNeeded = normalizeIDs(needed)
	plan.ExecutionOrder = normalizeIDs(r.ExecutionOrder)
	if len(plan.ExecutionOrder) == 0 {
		plan.ExecutionOrder = append([]string(nil), plan.WorkersNeeded...)
	}
	if len(plan.ExecutionOrder) == 0 {
		return nil, fmt.Errorf("plan selects no workers")
	}
	if len(plan.WorkersNeeded) == 0 {
		plan.WorkersNeeded = append([]string(nil), plan.ExecutionOrder...)
	}
	return plan, plan.Validate()
}

// stripFence returns the body of the first ``` block, or s unchanged.
func stripFence(s string) string {
	open := strings.Index(s, "```")
	if open == -1 {
		return s
	}
	rest := s[open+3:]
	if nl := strings.Index(rest, "\n"); nl != -1 {
		rest = rest[nl+1:]
	}
	if close := strings.Index(rest, "```"); close != -1 {
		return rest[:close]
	}
	return rest
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		n := worker.NormalizeID(id)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func nonEmpty(qs []string) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
