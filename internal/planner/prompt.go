package planner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ShayCichocki/finagent/pkg/models"
)

const systemPrompt = "You are a task orchestrator. Always respond with valid JSON that matches the requested format exactly."

// planPrompt is filled with the worker capabilities, the request, the
// incoming context and the clarification rules.
const planPrompt = `You are a task orchestrator for a financial analysis system. Analyze the user's request and decide which workers are needed and in what order.

Available workers:
%s

User Request: %q

Context: %s

Clarification rules:
- If the request is vague or missing key details (what data, which time period, what kind of output), set clarification_needed to true and ask specific questions.
- If the context already contains clarification_answers, do not ask again; plan with the answers.
- When clarification is needed, leave agents_needed and execution_order empty.

Worker ids are: %s. Workers run in the order given; the fetcher must run before any worker that reads financial data.

Respond with JSON only, in this exact format:
{
  "agents_needed": ["fetcher", "analyzer"],
  "execution_order": ["fetcher", "analyzer"],
  "clarification_needed": false,
  "clarification_questions": [],
  "reasoning": "why these workers were chosen"
}`

// Capability describes one worker to the planner.
type Capability struct {
	ID           string
	Role         string
	Description  string
	Capabilities []string
}

// BuildPrompt renders the planning request.
func BuildPrompt(task string, shared models.SharedContext, workers []Capability) string {
	var list strings.Builder
	ids := make([]string, 0, len(workers))
	for _, w := range workers {
		ids = append(ids, w.ID)
		fmt.Fprintf(&list, "- %s (%s): %s\n", w.ID, w.Role, w.Description)
		for _, c := range w.Capabilities {
			fmt.Fprintf(&list, "    * %s\n", c)
		}
	}
	return fmt.Sprintf(planPrompt, strings.TrimRight(list.String(), "\n"), task, describeContext(shared), strings.Join(ids, ", "))
}

// describeContext renders shared as JSON. Values that cannot be encoded
// are reduced to the sorted key list.
func describeContext(shared models.SharedContext) string {
	if len(shared) == 0 {
		return "{}"
	}
	if raw, err := json.Marshal(shared); err == nil {
		return string(raw)
	}
	keys := make([]string, 0, len(shared))
	for k := range shared {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "keys: " + strings.Join(keys, ", ")
}
