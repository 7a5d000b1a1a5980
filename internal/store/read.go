package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/inet/internal/engine"
	"github.com/roach88/inet/internal/query"
)

// ReadRun returns the run record for id, or ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, program, program_hash, config, status, steps, initial_hash, final_hash, elapsed_ms
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns all runs ordered by id.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, program, program_hash, config, status, steps, initial_hash, final_hash, elapsed_ms
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadSteps returns the trace of a run ordered by seq.
//
// Returns an empty slice (not nil) if the run recorded no steps.
func (s *Store) ReadSteps(ctx context.Context, runID string) ([]engine.StepEvent, error) {
	return s.QuerySteps(ctx, runID, query.Select{})
}

// QuerySteps returns the steps of a run that match q, ordered by seq.
func (s *Store) QuerySteps(ctx context.Context, runID string, q query.Select) ([]engine.StepEvent, error) {
	stmt, params, err := query.Compile(runID, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	events := []engine.StepEvent{}
	for rows.Next() {
		var ev engine.StepEvent
		if err := rows.Scan(&ev.Seq, &ev.Worker, &ev.Rule, &ev.Left, &ev.Right, &ev.Created); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return events, nil
}

// RuleCounts returns how many times each rule fired in a run.
func (s *Store) RuleCounts(ctx context.Context, runID string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule, COUNT(*)
		FROM steps
		WHERE run_id = ?
		GROUP BY rule
		ORDER BY rule COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rule counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var rule string
		var n int64
		if err := rows.Scan(&rule, &n); err != nil {
			return nil, fmt.Errorf("scan rule count: %w", err)
		}
		counts[rule] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule counts: %w", err)
	}
	return counts, nil
}

// ReadSnapshot returns the stored hash and canonical JSON body for label.
func (s *Store) ReadSnapshot(ctx context.Context, runID, label string) (hash string, body []byte, err error) {
	var text string
	err = s.db.QueryRowContext(ctx, `
		SELECT hash, body FROM snapshots WHERE run_id = ? AND label = ?
	`, runID, label).Scan(&hash, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, fmt.Errorf("read snapshot %s/%s: %w", runID, label, ErrSnapshotNotFound)
	}
	if err != nil {
		return "", nil, fmt.Errorf("read snapshot %s/%s: %w", runID, label, err)
	}
	return hash, []byte(text), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var cfg string
	err := row.Scan(
		&run.ID,
		&run.Program,
		&run.ProgramHash,
		&cfg,
		&run.Status,
		&run.Steps,
		&run.InitialHash,
		&run.FinalHash,
		&run.ElapsedMS,
	)
	if err != nil {
		return Run{}, err
	}
	if run.Config, err = unmarshalConfig(cfg); err != nil {
		return Run{}, err
	}
	return run, nil
}
