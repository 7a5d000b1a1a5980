package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/roach88/inet/internal/engine"
	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/library"
	"github.com/roach88/inet/internal/rule"
)

func TestRunRecorder_PersistsParallelRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	table := rule.NewTable(inet.NewKinds())
	arith, err := library.RegisterArith(table)
	if err != nil {
		t.Fatalf("RegisterArith() failed: %v", err)
	}
	n := inet.New(table.Kinds())
	x, _ := arith.Nat(n, 30)
	y, _ := arith.Nat(n, 12)
	r, err := arith.Binary(n, arith.Add, x, y)
	if err != nil {
		t.Fatalf("Binary() failed: %v", err)
	}
	out, _ := n.AddFree("out")
	n.MustConnect(r, out)

	rec := s.NewRunRecorder("run-1")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res, err := engine.New(n, table,
		engine.WithWorkers(4),
		engine.WithRecorder(rec),
		engine.WithLogger(logger),
	).Run(ctx)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if rec.Len() != int(res.Steps) {
		t.Fatalf("recorder buffered %d events for %d steps", rec.Len(), res.Steps)
	}

	if err := rec.Flush(ctx); err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	if rec.Len() != 0 {
		t.Errorf("buffer not cleared after flush: %d", rec.Len())
	}

	steps, err := s.ReadSteps(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadSteps() failed: %v", err)
	}
	if int64(len(steps)) != res.Steps {
		t.Fatalf("stored %d steps, engine took %d", len(steps), res.Steps)
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].Seq <= steps[i-1].Seq {
			t.Fatalf("steps not ordered by seq at %d: %d after %d", i, steps[i].Seq, steps[i-1].Seq)
		}
	}

	counts, err := s.RuleCounts(ctx, "run-1")
	if err != nil {
		t.Fatalf("RuleCounts() failed: %v", err)
	}
	if counts["add-s"] != 30 || counts["add-z"] != 1 {
		t.Errorf("RuleCounts() = %v, want 30 add-s and 1 add-z", counts)
	}
}

func TestRunRecorder_FlushKeepsBufferOnError(t *testing.T) {
	s := createTestStore(t)
	rec := s.NewRunRecorder("missing")
	rec.RecordStep(engine.StepEvent{Seq: 1, Rule: "r"})

	if err := rec.Flush(context.Background()); err == nil {
		t.Fatal("expected Flush() to fail for unknown run")
	}
	if rec.Len() != 1 {
		t.Errorf("buffer length after failed flush = %d, want 1", rec.Len())
	}
}
