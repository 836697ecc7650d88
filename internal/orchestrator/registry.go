// Package orchestrator drives a request through planning, sequential
// worker execution and aggregation.
package orchestrator

import (
	"sync"

	"github.com/ShayCichocki/finagent/internal/planner"
	"github.com/ShayCichocki/finagent/internal/worker"
	"github.com/ShayCichocki/finagent/pkg/models"
)

// Registry holds the workers available to plans, keyed by ID.
// It is safe for concurrent use.
type Registry struct {
	// workers maps worker IDs to workers.
	workers map[string]worker.Worker
	// order keeps registration order for listings.
	order []string
	// mu protects all fields.
	mu sync.RWMutex
}

// NewRegistry creates a registry holding workers.
func NewRegistry(workers ...worker.Worker) *Registry {
	r := &Registry{workers: make(map[string]worker.Worker)}
	for _, w := range workers {
		r.Register(w)
	}
	return r
}

// Register adds w, replacing any worker with the same ID.
func (r *Registry) Register(w worker.Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workers[w.ID()]; !ok {
		r.order = append(r.order, w.ID())
	}
	r.workers[w.ID()] = w
}

// Get retrieves a worker by ID.
func (r *Registry) Get(id string) (worker.Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workers[id]
	return w, ok
}

// Unregister removes a worker.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workers[id]; !ok {
		return
	}
	delete(r.workers, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// IDs returns worker IDs in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns the workers in registration order.
func (r *Registry) All() []worker.Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]worker.Worker, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.workers[id])
	}
	return out
}

// Count returns the number of registered workers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// Capabilities describes every worker for the planning prompt.
func (r *Registry) Capabilities() []planner.Capability {
	workers := r.All()
	out := make([]planner.Capability, 0, len(workers))
	for _, w := range workers {
		out = append(out, planner.Capability{
			ID:           w.ID(),
			Role:         w.Role(),
			Description:  w.Description(),
			Capabilities: w.Capabilities(),
		})
	}
	return out
}

// Statuses returns the current status of every worker.
func (r *Registry) Statuses() map[string]models.WorkerStatus {
	workers := r.All()
	out := make(map[string]models.WorkerStatus, len(workers))
	for _, w := range workers {
		out[w.ID()] = w.Status()
	}
	return out
}
