package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/roach88/inet/internal/compiler"
	"github.com/roach88/inet/internal/engine"
	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// ReplayResult compares a recorded run with a fresh reduction of the same
// program under the same configuration.
type ReplayResult struct {
	RunID          string `json:"run_id"`
	Program        string `json:"program"`
	RecordedStatus string `json:"recorded_status"`
	ReplayStatus   string `json:"replay_status"`
	RecordedSteps  int64  `json:"recorded_steps"`
	ReplaySteps    int64  `json:"replay_steps"`
	RecordedHash   string `json:"recorded_hash"`
	ReplayHash     string `json:"replay_hash"`
	RuleDiff       string `json:"rule_diff,omitempty"`
	Match          bool   `json:"match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Re-run a recorded run and compare the result",
		Long: `Reload a recorded run's program, reduce it again with the recorded
configuration and compare the final canonical net, the status, the step
count and the per-rule firing counts.

Runs that reached normal form or got stuck replay with any worker count.
Runs cut short by a budget only replay when they were deterministic.

Exit codes:
  0 - Replay matches the recorded run
  1 - Replay diverged
  2 - Command error (run not found, program changed, etc.)

Examples:
  inet replay --db ./runs.db <run-id>
  inet replay --db ./runs.db <run-id> --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, runID string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := opts.formatter(cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	state, err := st.GetRunState(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		return fail(formatter, ExitCommandError, ErrCodeStore, fmt.Sprintf("run %s not found", runID), nil)
	}
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "failed to read run", err)
	}
	run := state.Run
	if !state.IsComplete {
		return fail(formatter, ExitCommandError, ErrCodeStore, fmt.Sprintf("run %s never finished", runID), nil)
	}
	if run.Status == engine.BudgetExhausted.String() && !run.Config.Deterministic && run.Config.Workers > 1 {
		return fail(formatter, ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("run %s stopped on a budget with %d workers and cannot be reproduced", runID, run.Config.Workers), nil)
	}

	prog, err := compiler.Load(run.Program)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeLoad, "failed to load program", err)
	}
	if prog.Hash() != run.ProgramHash {
		return fail(formatter, ExitCommandError, ErrCodeLoad, fmt.Sprintf("program %s changed since run %s", run.Program, runID), nil)
	}

	result, err := replayRun(ctx, prog, state, logger)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeBuild, "failed to replay run", err)
	}

	if err := formatter.Success(result, func(w io.Writer) { writeReplayText(w, result) }); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	if !result.Match {
		return NewExitError(ExitFailure, fmt.Sprintf("replay of %s diverged", runID))
	}
	return nil
}

func replayRun(ctx context.Context, prog *compiler.Program, state store.RunState, logger *slog.Logger) (ReplayResult, error) {
	run := state.Run
	built, err := prog.Build()
	if err != nil {
		return ReplayResult{}, err
	}
	if h := built.Net.Hash(); h != run.InitialHash {
		return ReplayResult{}, fmt.Errorf("initial net %s does not match recorded %s", h, run.InitialHash)
	}

	res, err := engine.New(built.Net, built.Table, engineOptions(run.Config, logger)...).Run(ctx)
	if err != nil && !engine.IsFatal(err) {
		return ReplayResult{}, err
	}

	canon := inet.Canonicalize(res.Net.Snapshot())
	result := ReplayResult{
		RunID:          run.ID,
		Program:        run.Program,
		RecordedStatus: run.Status,
		ReplayStatus:   res.Status.String(),
		RecordedSteps:  run.Steps,
		ReplaySteps:    res.Steps,
		RecordedHash:   run.FinalHash,
		ReplayHash:     canon.Hash(),
	}
	if state.TraceIntact {
		result.RuleDiff = ruleDiff(state.RuleCounts, res.Stats.Rules)
	}
	result.Match = result.RecordedStatus == result.ReplayStatus &&
		result.RecordedSteps == result.ReplaySteps &&
		result.RecordedHash == result.ReplayHash &&
		result.RuleDiff == ""
	return result, nil
}

// ruleDiff returns a -recorded +replayed diff of per-rule firing counts, or
// "" when they agree.
func ruleDiff(recorded, replayed map[string]int64) string {
	return cmp.Diff(recorded, replayed, cmpRuleCounts)
}

// cmpRuleCounts treats a missing rule and a zero count as equal.
var cmpRuleCounts = cmp.Transformer("nonZero", func(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		if v != 0 {
			out[k] = v
		}
	}
	return out
})

func writeReplayText(w io.Writer, r ReplayResult) {
	mark := "✓"
	if !r.Match {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s (%s)\n", mark, r.RunID, r.Program)
	fmt.Fprintf(w, "  status: %s -> %s\n", r.RecordedStatus, r.ReplayStatus)
	fmt.Fprintf(w, "  steps:  %d -> %d\n", r.RecordedSteps, r.ReplaySteps)
	fmt.Fprintf(w, "  hash:   %s -> %s\n", short(r.RecordedHash), short(r.ReplayHash))
	if r.RuleDiff != "" {
		fmt.Fprintf(w, "  rule counts (-recorded +replay):\n%s", r.RuleDiff)
	}
}

func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
