package planner

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ShayCichocki/finagent/pkg/models"
)

func TestDefaultRules(t *testing.T) {
	r := DefaultRules()
	if r.MaxVagueWords != 3 {
		t.Errorf("MaxVagueWords = %d, want 3", r.MaxVagueWords)
	}
	if len(r.ClarificationQuestions) != 4 {
		t.Errorf("got %d clarification questions, want 4", len(r.ClarificationQuestions))
	}
	want := []string{"fetcher", "analyzer", "visualizer", "summarizer"}
	if !reflect.DeepEqual(r.CanonicalOrder, want) {
		t.Errorf("CanonicalOrder = %v, want %v", r.CanonicalOrder, want)
	}
}

func TestIsVague(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		task string
		want bool
	}{
		{"help me", true},
		{"Can you help with something", true},
		{"show me", true},
		{"profit", true},
		{"quarterly profit numbers", true},
		{"Analyze profit trends for the last 3 quarters", false},
		{"Fetch Government data for Canada please", false},
		{"Create a chart of profit over time", false},
	}
	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			if got := r.IsVague(tt.task); got != tt.want {
				t.Errorf("IsVague(%q) = %v, want %v", tt.task, got, tt.want)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		name string
		task string
		want []string
	}{
		{"analysis pulls in fetcher", "Analyze profit trends for the last 3 quarters", []string{"fetcher", "analyzer"}},
		{"fetch only", "Fetch Government data for Canada", []string{"fetcher"}},
		{"chart", "Create a chart of profit over time", []string{"fetcher", "visualizer"}},
		{"report", "Write a report on Midmarket results", []string{"fetcher", "summarizer"}},
		{"canonical order regardless of wording", "summarize then plot then analyze everything", []string{"fetcher", "analyzer", "visualizer", "summarizer"}},
		{"no keyword gives full order", "How did Germany perform across all products", []string{"fetcher", "analyzer", "visualizer", "summarizer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Select(tt.task); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Select(%q) = %v, want %v", tt.task, got, tt.want)
			}
		})
	}
}

func TestRulesPlanClarification(t *testing.T) {
	r := DefaultRules()

	plan := r.Plan("help me", models.NewSharedContext())
	if !plan.ClarificationNeeded {
		t.Fatal("expected clarification for vague request")
	}
	if len(plan.ExecutionOrder) != 0 {
		t.Errorf("ExecutionOrder = %v, want empty", plan.ExecutionOrder)
	}
	if !reflect.DeepEqual(plan.ClarificationQuestions, r.ClarificationQuestions) {
		t.Errorf("questions = %v", plan.ClarificationQuestions)
	}
	if plan.Source != models.PlanSourceRules {
		t.Errorf("Source = %q, want rules", plan.Source)
	}
	if err := plan.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestRulesPlanWithAnswersNeverAsksAgain(t *testing.T) {
	r := DefaultRules()
	shared := models.SharedContext{
		models.ContextClarificationAnswers: map[string]string{"question_1": "profit"},
	}

	plan := r.Plan("help me", shared)
	if plan.ClarificationNeeded {
		t.Fatal("plan asked for clarification despite answers")
	}
	want := []string{"fetcher", "analyzer", "visualizer", "summarizer"}
	if !reflect.DeepEqual(plan.ExecutionOrder, want) {
		t.Errorf("ExecutionOrder = %v, want %v", plan.ExecutionOrder, want)
	}
}

func TestRulesPlanCopiesQuestions(t *testing.T) {
	r := DefaultRules()
	plan := r.Plan("help me", nil)
	plan.ClarificationQuestions[0] = "changed"
	if r.ClarificationQuestions[0] == "changed" {
		t.Error("plan shares its question slice with the rule table")
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `
vague_phrases: [whatever]
max_vague_words: 1
clarification_questions: [Which data?]
canonical_order: [fetcher, summarizer]
rules:
  - worker: summarizer
    keywords: [brief]
    requires: [fetcher]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if got := r.Select("give me a brief"); !reflect.DeepEqual(got, []string{"fetcher", "summarizer"}) {
		t.Errorf("Select = %v", got)
	}
	if !r.IsVague("whatever you like today") {
		t.Error("custom vague phrase not honored")
	}
}

func TestLoadRulesEmptyPath(t *testing.T) {
	r, err := LoadRules("")
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(r.Rules) != 4 {
		t.Errorf("got %d rules, want 4", len(r.Rules))
	}
}

func TestParseRulesInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown worker", "canonical_order: [fetcher]\nclarification_questions: [q]\nrules:\n  - worker: painter\n    keywords: [paint]\n", "unknown worker"},
		{"no order", "clarification_questions: [q]\n", "canonical_order"},
		{"no questions", "canonical_order: [fetcher]\n", "clarification_questions"},
		{"no keywords", "canonical_order: [fetcher]\nclarification_questions: [q]\nrules:\n  - worker: fetcher\n", "no keywords"},
		{"bad yaml", "rules: [", "parse planner rules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
