package orchestrator

import (
	"sort"

	"github.com/ShayCichocki/finagent/internal/worker"
	"github.com/ShayCichocki/finagent/pkg/models"
)

// Aggregate folds worker results into a completed envelope. Payloads are
// taken only from workers that succeeded. Worker lists follow the plan's
// execution order; results for workers outside it are appended sorted.
func Aggregate(results map[string]models.Result, plan *models.TaskPlan) *models.Envelope {
	env := &models.Envelope{
		Status:            models.EnvelopeCompleted,
		Task:              plan.Task,
		SuccessfulWorkers: []string{},
		FailedWorkers:     []string{},
		WorkerStatus:      make(map[string]models.WorkerStatus, len(results)),
	}

	for _, id := range resultOrder(results, plan) {
		r := results[id]
		env.WorkerStatus[id] = r.Status
		if r.Succeeded() {
			env.SuccessfulWorkers = append(env.SuccessfulWorkers, id)
		} else {
			env.FailedWorkers = append(env.FailedWorkers, id)
		}
	}

	if r, ok := results[worker.IDSummarizer]; ok && r.Succeeded() {
		env.Summary, _ = r.Data.(string)
	}
	if r, ok := results[worker.IDVisualizer]; ok && r.Succeeded() {
		env.Visualizations = r.Data
	}
	if r, ok := results[worker.IDAnalyzer]; ok && r.Succeeded() {
		env.Analysis, _ = r.Data.(map[string]any)
	}
	if r, ok := results[worker.IDFetcher]; ok && r.Succeeded() {
		env.FinancialData = r.Data
	}

	env.Metadata = &models.EnvelopeMetadata{
		Total:      len(results),
		Successful: len(env.SuccessfulWorkers),
		Failed:     len(env.FailedWorkers),
	}
	return env
}

func resultOrder(results map[string]models.Result, plan *models.TaskPlan) []string {
	order := make([]string, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, id := range plan.ExecutionOrder {
		if _, ok := results[id]; ok && !seen[id] {
			order = append(order, id)
			seen[id] = true
		}
	}
	var rest []string
	for id := range results {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
