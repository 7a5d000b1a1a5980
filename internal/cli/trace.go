package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/inet/internal/query"
	"github.com/roach88/inet/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Rule     string // optional - only steps of this rule
	Kind     string // optional - only steps with this kind on either side
	Worker   int    // -1 for all workers
	From     int64
	To       int64
	Limit    int
}

// filter converts the filter flags to a step query.
func (o *TraceOptions) filter() query.Select {
	var preds []query.Predicate
	if o.Rule != "" {
		preds = append(preds, query.Equals{Field: query.FieldRule, Value: o.Rule})
	}
	if o.Kind != "" {
		preds = append(preds, query.HasKind{Kind: o.Kind})
	}
	if o.Worker >= 0 {
		preds = append(preds, query.Equals{Field: query.FieldWorker, Value: o.Worker})
	}
	if o.From != 0 || o.To != 0 {
		preds = append(preds, query.SeqRange{From: o.From, To: o.To})
	}
	return query.Select{Filter: query.Conj(preds...), Limit: o.Limit}
}

// TraceStep is one rewrite in the trace timeline.
type TraceStep struct {
	Seq     int64  `json:"seq"`
	Worker  int    `json:"worker"`
	Rule    string `json:"rule"`
	Left    string `json:"left"`
	Right   string `json:"right"`
	Created int    `json:"created"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID       string           `json:"run_id"`
	Program     string           `json:"program"`
	Status      string           `json:"status"`
	Config      store.RunConfig  `json:"config"`
	InitialHash string           `json:"initial_hash"`
	FinalHash   string           `json:"final_hash,omitempty"`
	Steps       []TraceStep      `json:"steps"`
	Stats       TraceStats       `json:"stats"`
	Rules       map[string]int64 `json:"rules"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	RecordedSteps int64 `json:"recorded_steps"`
	CountedSteps  int64 `json:"counted_steps"`
	Workers       int   `json:"workers"` // distinct workers seen in the trace
	IsComplete    bool  `json:"is_complete"`
	TraceIntact   bool  `json:"trace_intact"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run-id>",
		Short: "Show the recorded steps of a run",
		Long: `Show a recorded run: its configuration, its rewrites in commit order and
per-rule firing counts.

The trace is intact when the run finished and every counted step has a
row; a run whose process died mid-reduction is reported as incomplete.

Examples:
  inet trace --db ./runs.db 01926f3e-8b7a-7cc2-9f3e-0c1d2e3f4a5b
  inet trace --db ./runs.db <run-id> --rule add-s
  inet trace --db ./runs.db <run-id> --kind Dup --from 100 --to 200
  inet trace --db ./runs.db <run-id> --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Rule, "rule", "", "only show steps of this rule")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only show steps with this kind on either side")
	cmd.Flags().IntVar(&opts.Worker, "worker", -1, "only show steps of this worker")
	cmd.Flags().Int64Var(&opts.From, "from", 0, "first seq to show")
	cmd.Flags().Int64Var(&opts.To, "to", 0, "last seq to show")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many steps (0 = all)")

	return cmd
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	filter := opts.filter()
	if errs := query.Validate(filter); len(errs) > 0 {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "invalid filter", errors.Join(errs...))
	}

	result, err := buildTrace(ctx, st, runID, filter)
	if errors.Is(err, store.ErrRunNotFound) {
		return fail(formatter, ExitCommandError, ErrCodeStore, fmt.Sprintf("run %s not found", runID), nil)
	}
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeStore, "failed to read trace", err)
	}

	if err := formatter.Success(result, func(w io.Writer) { writeTraceText(w, result) }); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return nil
}

func buildTrace(ctx context.Context, st *store.Store, runID string, filter query.Select) (TraceResult, error) {
	state, err := st.GetRunState(ctx, runID)
	if err != nil {
		return TraceResult{}, err
	}
	all, err := st.ReadSteps(ctx, runID)
	if err != nil {
		return TraceResult{}, err
	}
	shown, err := st.QuerySteps(ctx, runID, filter)
	if err != nil {
		return TraceResult{}, err
	}

	result := TraceResult{
		RunID:       runID,
		Program:     state.Run.Program,
		Status:      state.Run.Status,
		Config:      state.Run.Config,
		InitialHash: state.Run.InitialHash,
		FinalHash:   state.Run.FinalHash,
		Steps:       make([]TraceStep, 0, len(shown)),
		Rules:       state.RuleCounts,
		Stats: TraceStats{
			RecordedSteps: state.TraceSteps,
			CountedSteps:  state.Run.Steps,
			IsComplete:    state.IsComplete,
			TraceIntact:   state.TraceIntact,
		},
	}

	workers := make(map[int]bool)
	for _, ev := range all {
		workers[ev.Worker] = true
	}
	result.Stats.Workers = len(workers)

	for _, ev := range shown {
		result.Steps = append(result.Steps, TraceStep{
			Seq:     ev.Seq,
			Worker:  ev.Worker,
			Rule:    ev.Rule,
			Left:    ev.Left,
			Right:   ev.Right,
			Created: ev.Created,
		})
	}
	return result, nil
}

func writeTraceText(w io.Writer, r TraceResult) {
	status := r.Status
	if status == "" {
		status = "incomplete"
	}
	fmt.Fprintf(w, "Run:     %s\n", r.RunID)
	fmt.Fprintf(w, "Program: %s\n", r.Program)
	fmt.Fprintf(w, "Status:  %s\n", status)
	fmt.Fprintf(w, "Config:  workers=%d max_steps=%d seed=%d deterministic=%t\n",
		r.Config.Workers, r.Config.MaxSteps, r.Config.Seed, r.Config.Deterministic)
	fmt.Fprintf(w, "Initial: %s\n", r.InitialHash)
	if r.FinalHash != "" {
		fmt.Fprintf(w, "Final:   %s\n", r.FinalHash)
	}

	fmt.Fprintf(w, "\nSteps (%d recorded, %d counted):\n", r.Stats.RecordedSteps, r.Stats.CountedSteps)
	for _, s := range r.Steps {
		fmt.Fprintf(w, "  [%d] w%d %-10s %s >< %s  +%d\n", s.Seq, s.Worker, s.Rule, s.Left, s.Right, s.Created)
	}
	if !r.Stats.TraceIntact {
		fmt.Fprintln(w, "  (trace incomplete)")
	}

	if len(r.Rules) > 0 {
		names := make([]string, 0, len(r.Rules))
		for name := range r.Rules {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(w, "\nRules:")
		for _, name := range names {
			fmt.Fprintf(w, "  %-12s %d\n", name, r.Rules[name])
		}
	}
}
