package store

import (
	"context"
	"sync"

	"github.com/roach88/inet/internal/engine"
)

// RunRecorder is an engine.Recorder that buffers trace events in memory
// and writes them to the store in one transaction on Flush. Workers call
// RecordStep concurrently.
type RunRecorder struct {
	store *Store
	runID string

	mu     sync.Mutex
	events []engine.StepEvent
}

// NewRunRecorder returns a recorder for the run id.
func (s *Store) NewRunRecorder(runID string) *RunRecorder {
	return &RunRecorder{store: s, runID: runID}
}

// RecordStep implements engine.Recorder.
func (r *RunRecorder) RecordStep(ev engine.StepEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Len returns the number of buffered events.
func (r *RunRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Flush writes buffered events and clears the buffer. On error the buffer
// is kept so Flush can be retried.
func (r *RunRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.WriteSteps(ctx, r.runID, r.events); err != nil {
		return err
	}
	r.events = r.events[:0]
	return nil
}
