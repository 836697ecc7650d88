package models

import "testing"

func TestSharedContext_CloneIsIndependent(t *testing.T) {
	orig := SharedContext{"a": 1}
	clone := orig.Clone()
	clone["b"] = 2

	if _, ok := orig["b"]; ok {
		t.Error("mutating the clone changed the original")
	}

	var nilCtx SharedContext
	if got := nilCtx.Clone(); got == nil {
		t.Error("Clone of nil context should return an empty map")
	}
}

func TestSharedContext_Merge(t *testing.T) {
	c := SharedContext{"a": 1, "b": 2}
	c.Merge(SharedContext{"b": 3, "c": 4})

	if c["a"] != 1 || c["b"] != 3 || c["c"] != 4 {
		t.Errorf("unexpected merge result: %v", c)
	}
}

func TestSharedContext_ClarificationAnswers(t *testing.T) {
	tests := []struct {
		name string
		ctx  SharedContext
		want int
		has  bool
	}{
		{"absent", SharedContext{}, 0, false},
		{"typed map", SharedContext{ContextClarificationAnswers: map[string]string{"q1": "a1"}}, 1, true},
		{"untyped map", SharedContext{ContextClarificationAnswers: map[string]any{"q1": "a1", "q2": 3}}, 1, true},
		{"empty map", SharedContext{ContextClarificationAnswers: map[string]string{}}, 0, false},
		{"wrong type", SharedContext{ContextClarificationAnswers: "yes"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.ctx.ClarificationAnswers()); got != tt.want {
				t.Errorf("len(ClarificationAnswers()) = %d, want %d", got, tt.want)
			}
			if got := tt.ctx.HasClarificationAnswers(); got != tt.has {
				t.Errorf("HasClarificationAnswers() = %v, want %v", got, tt.has)
			}
		})
	}
}

func TestTaskPlan_Validate(t *testing.T) {
	tests := []struct {
		name    string
		plan    *TaskPlan
		wantErr bool
	}{
		{"nil plan", nil, true},
		{"worker plan", &TaskPlan{ExecutionOrder: []string{"fetcher"}}, false},
		{"clarification plan", &TaskPlan{ClarificationNeeded: true, ClarificationQuestions: []string{"q"}}, false},
		{"clarification with workers", &TaskPlan{ClarificationNeeded: true, ClarificationQuestions: []string{"q"}, ExecutionOrder: []string{"fetcher"}}, true},
		{"clarification without questions", &TaskPlan{ClarificationNeeded: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
