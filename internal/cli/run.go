package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/inet/internal/compiler"
	"github.com/roach88/inet/internal/engine"
	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Workers       int
	MaxSteps      int64
	Deadline      time.Duration
	Seed          uint64
	Deterministic bool
	Database      string
	Config        string
	Show          bool

	// RunIDs overrides the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RunReport is the output of a run.
type RunReport struct {
	RunID     string           `json:"run_id,omitempty"`
	Program   string           `json:"program"`
	Status    string           `json:"status"`
	Reason    string           `json:"reason,omitempty"`
	Steps     int64            `json:"steps"`
	Agents    int              `json:"agents"`
	Hash      string           `json:"hash"`
	ElapsedMS int64            `json:"elapsed_ms"`
	Rules     map[string]int64 `json:"rules,omitempty"`
	Stuck     []string         `json:"stuck,omitempty"`
	Net       json.RawMessage  `json:"net,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Reduce a program's net",
		Long: `Build the net described by a CUE program (a file or a package directory)
and reduce it until no rule applies or a budget runs out.

With --db the run, its per-step trace and its initial and final canonical
snapshots are recorded in a SQLite database for trace and replay.

Flags can also be read from a YAML file (--config) with the keys workers,
max_steps, deadline, seed and deterministic. Flags given on the command
line win over the file.

Exit codes:
  0 - Normal form reached
  1 - Net is stuck, a budget ran out or the run aborted
  2 - Command error (bad program, database error, etc.)

Examples:
  inet run ./add.cue
  inet run --workers 8 --max-steps 100000 ./prog
  inet run --deterministic --seed 7 --db ./runs.db ./add.cue --show`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Config != "" {
				cfg, err := loadRunConfig(opts.Config)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load config", err)
				}
				if err := cfg.apply(opts, cmd.Flags().Changed); err != nil {
					return WrapExitError(ExitCommandError, "invalid config", err)
				}
			}
			return runProgram(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", 1, "number of reduction workers")
	cmd.Flags().Int64Var(&opts.MaxSteps, "max-steps", 0, "stop after this many rewrites (0 = unbounded)")
	cmd.Flags().DurationVar(&opts.Deadline, "deadline", 0, "stop after this much wall-clock time (0 = none)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed the order pairs are taken in (0 = LIFO)")
	cmd.Flags().BoolVar(&opts.Deterministic, "deterministic", false, "reduce with one worker in a reproducible order")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.Config, "config", "", "YAML file with run settings")
	cmd.Flags().BoolVar(&opts.Show, "show", false, "print the final net in canonical form")

	return cmd
}

func (o *RunOptions) runConfig() store.RunConfig {
	return store.RunConfig{
		Workers:       o.Workers,
		MaxSteps:      o.MaxSteps,
		DeadlineMS:    o.Deadline.Milliseconds(),
		Seed:          o.Seed,
		Deterministic: o.Deterministic,
	}
}

func runProgram(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Workers < 1 {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, fmt.Sprintf("--workers must be at least 1, got %d", opts.Workers), nil)
	}
	if opts.MaxSteps < 0 {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "--max-steps must be non-negative", nil)
	}

	prog, built, err := loadAndBuild(formatter, path)
	if err != nil {
		return err
	}
	formatter.VerboseLog("built %s: %d agents, %d rules", path, built.Net.Len(), built.Table.Len())

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.runConfig()
	engOpts := engineOptions(cfg, logger)

	var rec *runRecording
	if opts.Database != "" {
		gen := opts.RunIDs
		if gen == nil {
			gen = engine.UUIDv7Generator{}
		}
		rec, err = startRecording(ctx, opts.Database, gen.Generate(), prog, cfg, built.Net)
		if err != nil {
			return fail(formatter, ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
		defer rec.close(logger)
		engOpts = append(engOpts, engine.WithRecorder(rec.recorder))
	}

	res, runErr := engine.New(built.Net, built.Table, engOpts...).Run(ctx)

	canon := inet.Canonicalize(res.Net.Snapshot())
	body, err := canon.JSON()
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "failed to encode net", err)
	}

	report := RunReport{
		Program:   path,
		Status:    res.Status.String(),
		Reason:    string(res.Reason),
		Steps:     res.Steps,
		Agents:    res.Net.Len(),
		Hash:      canon.Hash(),
		ElapsedMS: res.Elapsed.Milliseconds(),
		Rules:     res.Stats.Rules,
	}
	for _, p := range res.Stuck {
		report.Stuck = append(report.Stuck, p.String())
	}
	if opts.Show {
		report.Net = body
	}

	if rec != nil {
		report.RunID = rec.id
		// The run context may be cancelled; the outcome is still recorded.
		if err := rec.finish(context.WithoutCancel(ctx), report, body); err != nil {
			return fail(formatter, ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
	}

	if err := formatter.Success(report, func(w io.Writer) { writeRunText(w, report) }); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	switch {
	case runErr != nil:
		return WrapExitError(ExitFailure, "run ended early", runErr)
	case res.Status != engine.NormalForm:
		return WrapExitError(ExitFailure, "no normal form", res.Err())
	}
	return nil
}

func writeRunText(w io.Writer, r RunReport) {
	if r.RunID != "" {
		fmt.Fprintf(w, "Run %s\n", r.RunID)
	}
	status := r.Status
	if r.Reason != "" {
		status += " (" + r.Reason + ")"
	}
	fmt.Fprintf(w, "Status:  %s\n", status)
	fmt.Fprintf(w, "Steps:   %d\n", r.Steps)
	fmt.Fprintf(w, "Agents:  %d\n", r.Agents)
	fmt.Fprintf(w, "Hash:    %s\n", r.Hash)
	fmt.Fprintf(w, "Elapsed: %dms\n", r.ElapsedMS)

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
	if len(r.Stuck) > 0 {
		fmt.Fprintln(w, "\nStuck:")
		for _, s := range r.Stuck {
			fmt.Fprintf(w, "  %s\n", s)
		}
	}
	if len(r.Net) > 0 {
		fmt.Fprintf(w, "\n%s\n", r.Net)
	}
}

// runRecording persists one run as it happens.
type runRecording struct {
	id       string
	st       *store.Store
	recorder *store.RunRecorder
}

func startRecording(ctx context.Context, dbPath, id string, prog *compiler.Program, cfg store.RunConfig, net *inet.Net) (*runRecording, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	// Replays may run from another directory.
	path, err := filepath.Abs(prog.Path)
	if err != nil {
		st.Close()
		return nil, err
	}
	canon := inet.Canonicalize(net.Snapshot())
	body, err := canon.JSON()
	if err != nil {
		st.Close()
		return nil, err
	}

	err = st.CreateRun(ctx, store.Run{
		ID:          id,
		Program:     path,
		ProgramHash: prog.Hash(),
		Config:      cfg,
		InitialHash: canon.Hash(),
	})
	if err == nil {
		err = st.WriteSnapshot(ctx, id, store.SnapshotInitial, canon.Hash(), body)
	}
	if err != nil {
		st.Close()
		return nil, err
	}
	return &runRecording{id: id, st: st, recorder: st.NewRunRecorder(id)}, nil
}

func (r *runRecording) finish(ctx context.Context, report RunReport, body []byte) error {
	if err := r.recorder.Flush(ctx); err != nil {
		return err
	}
	if err := r.st.WriteSnapshot(ctx, r.id, store.SnapshotFinal, report.Hash, body); err != nil {
		return err
	}
	return r.st.FinishRun(ctx, r.id, store.Outcome{
		Status:    report.Status,
		Steps:     report.Steps,
		FinalHash: report.Hash,
		ElapsedMS: report.ElapsedMS,
	})
}

func (r *runRecording) close(logger *slog.Logger) {
	if err := r.st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
