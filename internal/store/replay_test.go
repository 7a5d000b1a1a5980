package store

import (
	"context"
	"testing"

	"github.com/roach88/inet/internal/engine"
)

func TestGetRunState_Complete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	events := []engine.StepEvent{{Seq: 1, Rule: "era-s"}, {Seq: 2, Rule: "era-z"}}
	if err := s.WriteSteps(ctx, "run-1", events); err != nil {
		t.Fatalf("WriteSteps() failed: %v", err)
	}
	if err := s.WriteSnapshot(ctx, "run-1", SnapshotFinal, "h", []byte("{}")); err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}
	if err := s.FinishRun(ctx, "run-1", Outcome{Status: "normal_form", Steps: 2, FinalHash: "h"}); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}

	state, err := s.GetRunState(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRunState() failed: %v", err)
	}
	if !state.IsComplete || !state.TraceIntact || !state.FinalPresent {
		t.Errorf("state = %+v, want complete with intact trace", state)
	}
	if state.LastSeq != 2 || state.TraceSteps != 2 {
		t.Errorf("LastSeq = %d, TraceSteps = %d", state.LastSeq, state.TraceSteps)
	}
	if state.RuleCounts["era-s"] != 1 {
		t.Errorf("RuleCounts = %v", state.RuleCounts)
	}
}

func TestGetRunState_TruncatedTrace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")

	if err := s.WriteSteps(ctx, "run-1", []engine.StepEvent{{Seq: 1, Rule: "r"}}); err != nil {
		t.Fatalf("WriteSteps() failed: %v", err)
	}
	if err := s.FinishRun(ctx, "run-1", Outcome{Status: "normal_form", Steps: 5}); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}

	state, err := s.GetRunState(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRunState() failed: %v", err)
	}
	if state.TraceIntact {
		t.Error("trace with 1 of 5 steps reported intact")
	}
	if state.FinalPresent {
		t.Error("FinalPresent without a final snapshot")
	}
}

func TestFindIncompleteRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestRun(t, s, "run-1")
	createTestRun(t, s, "run-2")
	if err := s.FinishRun(ctx, "run-1", Outcome{Status: "stuck"}); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}

	runs, err := s.FindIncompleteRuns(ctx)
	if err != nil {
		t.Fatalf("FindIncompleteRuns() failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-2" {
		t.Errorf("FindIncompleteRuns() = %+v, want [run-2]", runs)
	}
}
