package planner

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/finagent/pkg/models"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rule selects a worker when a request contains any of its keywords.
type Rule struct {
	Worker   string   `yaml:"worker"`
	Keywords []string `yaml:"keywords"`
	Requires []string `yaml:"requires,omitempty"`
}

// Matches reports whether lower, an already lower-cased request, contains
// one of the rule's keywords.
func (r Rule) Matches(lower string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Rules is the ordered rule table behind deterministic planning.
type Rules struct {
	VaguePhrases           []string `yaml:"vague_phrases"`
	MaxVagueWords          int      `yaml:"max_vague_words"`
	ClarificationQuestions []string `yaml:"clarification_questions"`
	CanonicalOrder         []string `yaml:"canonical_order"`
	Rules                  []Rule   `yaml:"rules"`
}

// DefaultRules returns the embedded rule table.
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded planner rules: %v", err))
	}
	return r
}

// LoadRules reads a rule table from path. An empty path returns the
// embedded table.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read planner rules: %w", err)
	}
	r, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ParseRules decodes and validates a YAML rule table.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse planner rules: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks that every rule names a worker from the canonical order
// and that clarification can be asked.
func (r *Rules) Validate() error {
	if len(r.CanonicalOrder) == 0 {
		return fmt.Errorf("planner rules: canonical_order is empty")
	}
	if len(r.ClarificationQuestions) == 0 {
		return fmt.Errorf("planner rules: clarification_questions is empty")
	}
	known := make(map[string]bool, len(r.CanonicalOrder))
	for _, id := range r.CanonicalOrder {
		known[id] = true
	}
	for i, rule := range r.Rules {
		if !known[rule.Worker] {
			return fmt.Errorf("planner rules: rule %d names unknown worker %q", i, rule.Worker)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("planner rules: rule %d (%s) has no keywords", i, rule.Worker)
		}
		for _, dep := range rule.Requires {
			if !known[dep] {
				return fmt.Errorf("planner rules: rule %d requires unknown worker %q", i, dep)
			}
		}
	}
	return nil
}

// IsVague reports whether task needs clarification before planning: it
// contains a vague phrase or is at most MaxVagueWords words long.
func (r *Rules) IsVague(task string) bool {
	lower := strings.ToLower(task)
	for _, phrase := range r.VaguePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return len(strings.Fields(task)) <= r.MaxVagueWords
}

// Select returns the workers whose rules match task, with their
// prerequisites, in canonical order. When nothing matches the whole
// canonical order is returned.
func (r *Rules) Select(task string) []string {
	lower := strings.ToLower(task)
	selected := make(map[string]bool)
	for _, rule := range r.Rules {
		if !rule.Matches(lower) {
			continue
		}
		selected[rule.Worker] = true
		for _, dep := range rule.Requires {
			selected[dep] = true
		}
	}

	if len(selected) == 0 {
		return append([]string(nil), r.CanonicalOrder...)
	}
	out := make([]string, 0, len(selected))
	for _, id := range r.CanonicalOrder {
		if selected[id] {
			out = append(out, id)
		}
	}
	return out
}

// Plan builds a plan without the reasoning service. Vague requests get the
// clarification questions unless shared already carries answers, in which
// case workers are selected by keyword.
func (r *Rules) Plan(task string, shared models.SharedContext) *models.TaskPlan {
	plan := &models.TaskPlan{
		Task:    task,
		Context: shared,
		Source:  models.PlanSourceRules,
	}

	if !shared.HasClarificationAnswers() && r.IsVague(task) {
		plan.ClarificationNeeded = true
		plan.ClarificationQuestions = append([]string(nil), r.ClarificationQuestions...)
		plan.WorkersNeeded = []string{}
		plan.ExecutionOrder = []string{}
		plan.Reasoning = "request is too vague to plan without clarification"
		return plan
	}

	workers := r.Select(task)
	plan.WorkersNeeded = workers
	plan.ExecutionOrder = append([]string(nil), workers...)
	plan.Reasoning = "selected by keyword rules"
	return plan
}
