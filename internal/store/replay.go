package store

import (
	"context"
	"fmt"
)

// RunState summarizes a run for replay and recovery.
type RunState struct {
	Run          Run
	TraceSteps   int64 // rows in steps
	LastSeq      int64
	IsComplete   bool // the run recorded an outcome
	TraceIntact  bool // the trace has one row per counted step
	RuleCounts   map[string]int64
	FinalPresent bool // a final snapshot exists
}

// GetRunState retrieves a run with an analysis of how much of it was
// persisted.
func (s *Store) GetRunState(ctx context.Context, id string) (RunState, error) {
	run, err := s.ReadRun(ctx, id)
	if err != nil {
		return RunState{}, fmt.Errorf("get run state: %w", err)
	}
	state := RunState{Run: run, IsComplete: run.Status != ""}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MAX(seq), 0) FROM steps WHERE run_id = ?
	`, id).Scan(&state.TraceSteps, &state.LastSeq)
	if err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}
	state.TraceIntact = state.IsComplete && state.TraceSteps == run.Steps

	if state.RuleCounts, err = s.RuleCounts(ctx, id); err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}

	var n int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM snapshots WHERE run_id = ? AND label = ?
	`, id, SnapshotFinal).Scan(&n)
	if err != nil {
		return state, fmt.Errorf("get run state: %w", err)
	}
	state.FinalPresent = n > 0

	return state, nil
}

// FindIncompleteRuns returns runs that were started but never recorded an
// outcome, ordered by id. These are runs whose process died mid-reduction.
func (s *Store) FindIncompleteRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program, program_hash, config, status, steps, initial_hash, final_hash, elapsed_ms
		FROM runs
		WHERE status = ''
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("find incomplete runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("find incomplete runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find incomplete runs: %w", err)
	}
	return runs, nil
}
