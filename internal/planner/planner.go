// Package planner turns a request into a TaskPlan. Plans come from the
// reasoning service when it is reachable and answers sensibly, and from
// the keyword rule table otherwise.
package planner

import (
	"context"
	"io"
	"log/slog"

	"github.com/ShayCichocki/finagent/internal/api"
	"github.com/ShayCichocki/finagent/pkg/models"
)

// Config tunes the planning call.
type Config struct {
	Temperature float64
	MaxTokens   int64
}

// DefaultConfig returns the planning defaults.
func DefaultConfig() Config {
	return Config{Temperature: 0.1, MaxTokens: 1000}
}

// Planner builds plans. It is safe for concurrent use.
type Planner struct {
	reasoner api.Reasoner
	rules    *Rules
	cfg      Config
	logger   *slog.Logger
}

// New creates a planner. A nil reasoner plans with rules alone; nil rules
// use the embedded table.
func New(reasoner api.Reasoner, rules *Rules, cfg Config, logger *slog.Logger) *Planner {
	if rules == nil {
		rules = DefaultRules()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Planner{reasoner: reasoner, rules: rules, cfg: cfg, logger: logger.With("component", "planner")}
}

// Rules returns the planner's rule table.
func (p *Planner) Rules() *Rules {
	return p.rules
}

// Plan never fails: any reasoning error, unparseable reply or invalid plan
// falls back to the rule table.
func (p *Planner) Plan(ctx context.Context, task string, shared models.SharedContext, workers []Capability) *models.TaskPlan {
	if shared == nil {
		shared = models.NewSharedContext()
	}
	if p.reasoner == nil {
		return p.fallback(task, shared, "no reasoning service configured")
	}

	reply, err := p.reasoner.Complete(ctx, api.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   BuildPrompt(task, shared, workers),
		Temperature:  p.cfg.Temperature,
		MaxTokens:    p.cfg.MaxTokens,
	})
	if err != nil {
		return p.fallback(task, shared, "reasoning service failed", "error", err)
	}

	plan, err := ParseResponse(task, reply, shared)
	if err != nil {
		return p.fallback(task, shared, "unusable plan from reasoning service", "error", err)
	}
	if plan.ClarificationNeeded && shared.HasClarificationAnswers() {
		return p.fallback(task, shared, "reasoning service asked again after clarification")
	}

	p.logger.Debug("plan built", "source", plan.Source, "order", plan.ExecutionOrder,
		"clarification", plan.ClarificationNeeded)
	return plan
}

func (p *Planner) fallback(task string, shared models.SharedContext, reason string, args ...any) *models.TaskPlan {
	p.logger.Warn("planning with rules: "+reason, args...)
	plan := p.rules.Plan(task, shared)
	p.logger.Debug("plan built", "source", plan.Source, "order", plan.ExecutionOrder,
		"clarification", plan.ClarificationNeeded)
	return plan
}
