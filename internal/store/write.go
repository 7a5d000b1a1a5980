package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/inet/internal/engine"
)

// Run is the persisted record of one engine run.
type Run struct {
	ID          string
	Program     string
	ProgramHash string
	Config      RunConfig
	Status      string // empty while the run has not finished
	Steps       int64
	InitialHash string
	FinalHash   string
	ElapsedMS   int64
}

// Outcome is what FinishRun records once a run stops.
type Outcome struct {
	Status    string
	Steps     int64
	FinalHash string
	ElapsedMS int64
}

// Snapshot labels.
const (
	SnapshotInitial = "initial"
	SnapshotFinal   = "final"
)

// CreateRun inserts a run record before the engine starts.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) CreateRun(ctx context.Context, run Run) error {
	cfg, err := marshalConfig(run.Config)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, program, program_hash, config, initial_hash)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Program,
		run.ProgramHash,
		cfg,
		run.InitialHash,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun records a run's outcome. It fails with ErrRunNotFound if the
// run was never created.
func (s *Store) FinishRun(ctx context.Context, id string, out Outcome) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, steps = ?, final_hash = ?, elapsed_ms = ?
		WHERE id = ?
	`,
		out.Status,
		out.Steps,
		out.FinalHash,
		out.ElapsedMS,
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// WriteSteps appends trace events for a run in a single transaction,
// in seq order. Events already recorded under the same seq are ignored.
func (s *Store) WriteSteps(ctx context.Context, runID string, events []engine.StepEvent) error {
	if len(events) == 0 {
		return nil
	}
	sorted := make([]engine.StepEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write steps: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO steps
		(run_id, seq, worker, rule, left_kind, right_kind, created)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write steps: prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range sorted {
		if _, err := stmt.ExecContext(ctx, runID, ev.Seq, ev.Worker, ev.Rule, ev.Left, ev.Right, ev.Created); err != nil {
			return fmt.Errorf("write steps: seq %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write steps: commit: %w", err)
	}
	return nil
}

// WriteSnapshot stores the canonical JSON of a net under label. A second
// write for the same label replaces the first.
func (s *Store) WriteSnapshot(ctx context.Context, runID, label, hash string, body []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, label, hash, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, label) DO UPDATE SET hash = excluded.hash, body = excluded.body
	`, runID, label, hash, string(body))
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", label, err)
	}
	return nil
}
