package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ShayCichocki/finagent/internal/api"
	"github.com/ShayCichocki/finagent/pkg/models"
)

const summarySystemPrompt = "You are a financial analyst expert. Provide clear, accurate, and professional " +
	"financial analysis summaries. Focus on key insights, trends, and actionable information."

// SummarizerConfig tunes the reasoning call.
type SummarizerConfig struct {
	Temperature float64
	MaxTokens   int64
}

// DefaultSummarizerConfig returns the report-writing defaults.
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{Temperature: 0.3, MaxTokens: 2000}
}

// Digest is the structured snapshot handed to the reasoning service.
type Digest struct {
	Title          string         `json:"title"`
	Period         string         `json:"period"`
	DataPoints     int            `json:"data_points"`
	Analysis       map[string]any `json:"analysis"`
	Visualizations []string       `json:"visualizations"`
	HasFinancials  bool           `json:"has_financials"`
}

// Summarizer writes the narrative report. It falls back to a templated
// summary when the reasoning service fails.
type Summarizer struct {
	*Base
	reasoner api.Reasoner
	cfg      SummarizerConfig
}

// NewSummarizer creates a summarizer. A nil reasoner always produces the
// templated summary.
func NewSummarizer(reasoner api.Reasoner, cfg SummarizerConfig, logger *slog.Logger) *Summarizer {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultSummarizerConfig().MaxTokens
	}
	return &Summarizer{
		Base: newBase(IDSummarizer, "Report Summarizer", "Creates comprehensive summaries and reports from financial data and analysis",
			[]string{"summarize", "summary", "report", "conclusion", "overview", "insights"},
			[]string{
				"Generate executive summaries",
				"Create financial reports",
				"Extract key insights",
				"Write trend analysis reports",
				"Provide investment recommendations",
			},
			logger),
		reasoner: reasoner,
		cfg:      cfg,
	}
}

// Execute implements Worker. Missing analysis or charts degrade to empty
// sections; only missing financial data is an error.
func (s *Summarizer) Execute(ctx context.Context, task string, shared models.SharedContext) models.Result {
	s.begin()

	data, _, err := financialInput(shared)
	if data == nil {
		return s.fail(err)
	}
	analysis, _ := shared[models.ContextAnalysisResults].(map[string]any)
	charts, _ := shared[models.ContextVisualizations].(Charts)

	digest := BuildDigest(data, analysis, charts)
	summary := s.generate(ctx, task, digest)

	s.put(models.ContextSummary, summary)
	return s.complete(summary, map[string]any{"summary_length": len(summary)})
}

func (s *Summarizer) generate(ctx context.Context, task string, d Digest) string {
	if s.reasoner == nil {
		return FallbackSummary(d)
	}
	text, err := s.reasoner.Complete(ctx, api.Request{
		SystemPrompt: summarySystemPrompt,
		UserPrompt:   SummaryPrompt(task, d),
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
	})
	if err != nil {
		s.logger.Warn("reasoning service failed, using templated summary", "error", err)
		return FallbackSummary(d)
	}
	return strings.TrimSpace(text)
}

// BuildDigest condenses the pipeline outputs. analysis and charts may be nil.
func BuildDigest(data *FinancialData, analysis map[string]any, charts Charts) Digest {
	d := Digest{
		Title:          "Unknown",
		Period:         notAvailable,
		Analysis:       analysis,
		Visualizations: []string{},
	}
	if d.Analysis == nil {
		d.Analysis = map[string]any{}
	}
	for name := range charts {
		d.Visualizations = append(d.Visualizations, name)
	}
	sort.Strings(d.Visualizations)

	if data != nil {
		d.Title = data.FiltersApplied.Describe()
		d.DataPoints = data.DataPoints
		d.HasFinancials = data.DataPoints > 0
		if data.DateRange.Known() {
			d.Period = data.DateRange.Start + " to " + data.DateRange.End
		}
	}
	return d
}

// SummaryPrompt builds the report request for task.
func SummaryPrompt(task string, d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please analyze the following financial data and provide a comprehensive summary based on the user's request: %q\n\n", task)
	b.WriteString("Financial Data Summary:\n")
	fmt.Fprintf(&b, "- Scope: %s\n", d.Title)
	fmt.Fprintf(&b, "- Period: %s\n", d.Period)
	fmt.Fprintf(&b, "- Data Points: %d\n\n", d.DataPoints)
	b.WriteString("Analysis Results:\n")
	b.WriteString(formatAnalysis(d.Analysis))
	b.WriteString("\n\n")
	visuals := "none"
	if len(d.Visualizations) > 0 {
		visuals = strings.Join(d.Visualizations, ", ")
	}
	fmt.Fprintf(&b, "Available Visualizations: %s\n\n", visuals)
	b.WriteString(`Please provide:
1. Executive Summary (2-3 sentences)
2. Key Financial Metrics and Trends
3. Performance Analysis
4. Risk Assessment (if applicable)
5. Key Insights and Recommendations
6. Conclusion

Format the response in a professional, easy-to-read manner suitable for business stakeholders.`)
	return b.String()
}

// FallbackSummary renders the digest without a reasoning call.
func FallbackSummary(d Digest) string {
	var b strings.Builder
	header := "Financial Analysis Summary for " + d.Title
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("=", len(header)) + "\n\n")
	fmt.Fprintf(&b, "Period Analyzed: %s\n", d.Period)
	fmt.Fprintf(&b, "Data Points: %d\n\n", d.DataPoints)
	b.WriteString("Analysis Results:\n")
	b.WriteString(formatAnalysis(d.Analysis))
	b.WriteString("\n\nNote: This is a basic summary. For detailed analysis, please ensure the reasoning service is available.\n")
	return b.String()
}

// formatAnalysis lists metrics as "Title Case Name: value", sorted by key.
// Nested breakdowns are reported by size.
func formatAnalysis(analysis map[string]any) string {
	if len(analysis) == 0 {
		return "No analysis results available"
	}
	keys := make([]string, 0, len(analysis))
	for k := range analysis {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		name := titleCase(strings.ReplaceAll(k, "_", " "))
		switch v := analysis[k].(type) {
		case map[string]float64:
			lines = append(lines, fmt.Sprintf("%s: %d items", name, len(v)))
		case map[string]GroupStats:
			lines = append(lines, fmt.Sprintf("%s: %d items", name, len(v)))
		case map[string]any:
			lines = append(lines, fmt.Sprintf("%s: %d items", name, len(v)))
		default:
			lines = append(lines, fmt.Sprintf("%s: %v", name, v))
		}
	}
	return strings.Join(lines, "\n")
}
