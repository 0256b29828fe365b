package sync

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrAlreadyRunning is returned when a sync is requested while one is in
// flight.
var ErrAlreadyRunning = errors.New("sync already running")

// Status is the externally visible state of the sync runner.
type Status struct {
	Running     bool      `json:"running"`
	LastStarted time.Time `json:"last_started,omitempty"`
	LastSummary *Summary  `json:"last_summary,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Runner serializes sync runs. The provider's rate-limit budget is shared,
// so at most one run is in flight; a trigger while running is rejected.
type Runner struct {
	orchestrator *Orchestrator

	// OnComplete, when set, receives each finished run's summary. Set it
	// before the first trigger.
	OnComplete func(*Summary)

	mu          sync.Mutex
	running     bool
	lastStarted time.Time
	lastSummary *Summary
	lastError   error
}

// NewRunner wraps an orchestrator for background execution.
func NewRunner(orchestrator *Orchestrator) *Runner {
	return &Runner{orchestrator: orchestrator}
}

// Trigger starts a sync over [start, end] in the background. Returns false
// if a run is already in flight.
func (r *Runner) Trigger(ctx context.Context, start, end time.Time) bool {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return false
	}
	r.running = true
	r.lastStarted = time.Now().UTC()
	r.mu.Unlock()

	go func() {
		summary, err := r.orchestrator.SyncRange(ctx, start, end)

		r.mu.Lock()
		r.running = false
		r.lastSummary = summary
		r.lastError = err
		r.mu.Unlock()

		if err != nil {
			log.Printf("[sync] Run ended with error: %v", err)
		}
		if r.OnComplete != nil && summary != nil {
			r.OnComplete(summary)
		}
	}()
	return true
}

// Run executes a sync synchronously.
func (r *Runner) Run(ctx context.Context, start, end time.Time) (*Summary, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	r.running = true
	r.lastStarted = time.Now().UTC()
	r.mu.Unlock()

	summary, err := r.orchestrator.SyncRange(ctx, start, end)

	r.mu.Lock()
	r.running = false
	r.lastSummary = summary
	r.lastError = err
	r.mu.Unlock()

	if r.OnComplete != nil && summary != nil {
		r.OnComplete(summary)
	}
	return summary, err
}

// Status reports the runner's current state.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := Status{
		Running:     r.running,
		LastStarted: r.lastStarted,
		LastSummary: r.lastSummary,
	}
	if r.lastError != nil {
		status.LastError = r.lastError.Error()
	}
	return status
}
