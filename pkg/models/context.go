package models

// Well-known SharedContext keys. Each worker writes under its own key and
// downstream workers in the same plan read them.
const (
	// ContextFinancialData holds the fetcher's FinancialData payload.
	ContextFinancialData = "financial_data"
	// ContextDataFrame holds the fetcher's filtered row table.
	ContextDataFrame = "dataframe"
	// ContextAnalysisResults holds the analyzer's metrics.
	ContextAnalysisResults = "analysis_results"
	// ContextVisualizations holds the visualizer's chart set.
	ContextVisualizations = "visualizations"
	// ContextSummary holds the summarizer's report text.
	ContextSummary = "summary"
	// ContextClarificationAnswers holds answers supplied on resume.
	ContextClarificationAnswers = "clarification_answers"
	// ContextFilterHints holds caller-supplied fetch filters.
	ContextFilterHints = "filter_hints"
)

// SharedContext is the per-request mapping threaded through the workers of
// one plan. It is not safe for concurrent use; plan entries run
// sequentially.
type SharedContext map[string]any

// NewSharedContext returns an empty context.
func NewSharedContext() SharedContext {
	return SharedContext{}
}

// Clone returns a shallow copy of c. A nil context clones to an empty one.
func (c SharedContext) Clone() SharedContext {
	out := make(SharedContext, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into c, overwriting existing keys.
func (c SharedContext) Merge(other SharedContext) {
	for k, v := range other {
		c[k] = v
	}
}

// Get returns the value stored under key.
func (c SharedContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c[key]
	return v, ok
}

// ClarificationAnswers returns the answers stored under
// ContextClarificationAnswers, or nil when none are present.
func (c SharedContext) ClarificationAnswers() map[string]string {
	v, ok := c.Get(ContextClarificationAnswers)
	if !ok {
		return nil
	}
	switch answers := v.(type) {
	case map[string]string:
		return answers
	case map[string]any:
		out := make(map[string]string, len(answers))
		for k, a := range answers {
			if s, ok := a.(string); ok {
				out[k] = s
			}
		}
		return out
	default:
		return nil
	}
}

// HasClarificationAnswers reports whether non-empty clarification answers
// are present.
func (c SharedContext) HasClarificationAnswers() bool {
	return len(c.ClarificationAnswers()) > 0
}
