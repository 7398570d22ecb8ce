package usecase

import (
	"sort"
	"sync"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/internal/domain/models"
)

// Registry tracks the runs a process currently has in flight. It is owned by
// whoever starts runs; the orchestrator never sees it.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Run)}
}

func (r *Registry) Add(run *Run) {
	r.mu.Lock()
	r.runs[run.ID] = run
	r.mu.Unlock()
}

func (r *Registry) Get(id string) (*Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	return run, ok
}

// Stop requests a stop; false when the id is unknown.
func (r *Registry) Stop(id string) bool {
	run, ok := r.Get(id)
	if ok {
		run.RequestStop()
	}
	return ok
}

// StopAll is used on shutdown.
func (r *Registry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, run := range r.runs {
		run.RequestStop()
	}
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.runs, id)
	r.mu.Unlock()
}

// List returns a snapshot of every tracked run, ordered by run id.
func (r *Registry) List() []models.ProgressSnapshot {
	r.mu.RLock()
	out := make([]models.ProgressSnapshot, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, run.Snapshot())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].RunID < out[j].RunID })
	return out
}
