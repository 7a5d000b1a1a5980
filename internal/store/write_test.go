package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/inet/internal/engine"
)

func TestCreateRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	want := createTestRun(t, s, "run-1")

	got, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got != want {
		t.Errorf("ReadRun() = %+v, want %+v", got, want)
	}
}

func TestCreateRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	dup := Run{ID: "run-1", Program: "other.cue", Config: RunConfig{Workers: 9}}
	if err := s.CreateRun(ctx, dup); err != nil {
		t.Fatalf("duplicate CreateRun() failed: %v", err)
	}
	got, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Program != "testdata/add.cue" {
		t.Errorf("duplicate insert overwrote program: %q", got.Program)
	}
}

func TestFinishRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	out := Outcome{Status: "normal_form", Steps: 12, FinalHash: "final-hash", ElapsedMS: 3}
	if err := s.FinishRun(ctx, "run-1", out); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}
	got, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if got.Status != out.Status || got.Steps != out.Steps || got.FinalHash != out.FinalHash || got.ElapsedMS != out.ElapsedMS {
		t.Errorf("outcome not persisted: %+v", got)
	}

	err = s.FinishRun(ctx, "missing", out)
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("FinishRun(missing) = %v, want ErrRunNotFound", err)
	}
}

func TestWriteSteps_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	events := []engine.StepEvent{
		{Seq: 3, Worker: 1, Rule: "add-z", Left: "Add", Right: "Z"},
		{Seq: 1, Worker: 0, Rule: "add-s", Left: "Add", Right: "S", Created: 2},
		{Seq: 2, Worker: 1, Rule: "add-s", Left: "Add", Right: "S", Created: 2},
	}
	if err := s.WriteSteps(ctx, "run-1", events); err != nil {
		t.Fatalf("WriteSteps() failed: %v", err)
	}
	// Rewriting the same seqs is a no-op.
	if err := s.WriteSteps(ctx, "run-1", events[:1]); err != nil {
		t.Fatalf("second WriteSteps() failed: %v", err)
	}

	got, err := s.ReadSteps(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadSteps() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadSteps() returned %d events, want 3", len(got))
	}
	for i, ev := range got {
		if ev.Seq != int64(i+1) {
			t.Errorf("event %d has seq %d", i, ev.Seq)
		}
	}
	if got[0] != events[1] {
		t.Errorf("first event = %+v, want %+v", got[0], events[1])
	}
}

func TestWriteSteps_RequiresRun(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteSteps(context.Background(), "missing", []engine.StepEvent{{Seq: 1, Rule: "r"}})
	if err == nil {
		t.Error("expected foreign key error for unknown run")
	}
}

func TestWriteSnapshot_Replaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	if err := s.WriteSnapshot(ctx, "run-1", SnapshotFinal, "h1", []byte(`{"agents":[]}`)); err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}
	if err := s.WriteSnapshot(ctx, "run-1", SnapshotFinal, "h2", []byte(`{"agents":[1]}`)); err != nil {
		t.Fatalf("second WriteSnapshot() failed: %v", err)
	}

	hash, body, err := s.ReadSnapshot(ctx, "run-1", SnapshotFinal)
	if err != nil {
		t.Fatalf("ReadSnapshot() failed: %v", err)
	}
	if hash != "h2" || string(body) != `{"agents":[1]}` {
		t.Errorf("ReadSnapshot() = %q, %s", hash, body)
	}

	_, _, err = s.ReadSnapshot(ctx, "run-1", SnapshotInitial)
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("ReadSnapshot(initial) = %v, want ErrSnapshotNotFound", err)
	}
}
