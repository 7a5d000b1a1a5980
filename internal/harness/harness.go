package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/inet/internal/compiler"
	"github.com/roach88/inet/internal/engine"
	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/testutil"
)

// Harness runs scenarios with a frozen clock and a silent logger.
type Harness struct {
	logger *slog.Logger
}

// New returns a harness that discards engine logs.
func New() *Harness {
	return &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Run executes a test scenario with a default harness.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return New().Run(ctx, scenario)
}

// Run executes a test scenario and returns the result.
//
// The program is compiled once and built afresh for each worker count.
// Expectation failures are reported in the result; the error return is for
// scenarios that cannot be run at all.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	prog, err := loadProgram(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, workers := range scenario.workers() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := h.runOnce(ctx, prog, scenario, workers)
		if err != nil {
			return nil, fmt.Errorf("workers=%d: %w", workers, err)
		}
		result.Runs = append(result.Runs, out.summary)

		label := fmt.Sprintf("workers=%d", workers)
		for _, msg := range checkExpect(scenario.Expect, out) {
			result.AddError(label + ": " + msg)
		}
		for _, msg := range EvaluateAssertions(scenario.Assertions, out) {
			result.AddError(label + ": " + msg)
		}

		if i == 0 {
			result.Canonical = out.canonical
			result.Rules = out.res.Stats.Rules
			continue
		}
		// A budget cuts a reduction at an order-dependent point, so only
		// terminal nets are compared.
		if first := result.Runs[0]; terminal(first.Status) && terminal(out.summary.Status) && out.summary.Hash != first.Hash {
			result.AddError(fmt.Sprintf("%s: final net %s differs from workers=%d net %s",
				label, short(out.summary.Hash), first.Workers, short(first.Hash)))
		}
	}
	return result, nil
}

func loadProgram(s *Scenario) (*compiler.Program, error) {
	if s.Program != "" {
		p, err := compiler.Load(s.Program)
		if err != nil {
			return nil, fmt.Errorf("load program: %w", err)
		}
		return p, nil
	}
	p, err := compiler.CompileSource(s.Name+".cue", []byte(s.Source))
	if err != nil {
		return nil, fmt.Errorf("compile source: %w", err)
	}
	return p, nil
}

// runOutput is everything the checks look at for one run.
type runOutput struct {
	summary   RunSummary
	res       *engine.Result
	snap      *inet.Snapshot
	canonical []byte
	built     *compiler.Built
}

func (h *Harness) runOnce(ctx context.Context, prog *compiler.Program, s *Scenario, workers int) (*runOutput, error) {
	built, err := prog.Build()
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{
		engine.WithWorkers(workers),
		engine.WithMaxSteps(s.MaxSteps),
		engine.WithLogger(h.logger),
		engine.WithNow(testutil.NewFakeTime().Now),
		engine.WithVerify(),
	}
	if s.Seed != nil {
		opts = append(opts, engine.WithSeed(*s.Seed))
	}

	res, err := engine.New(built.Net, built.Table, opts...).Run(ctx)
	if err != nil && !engine.IsFatal(err) {
		return nil, err
	}

	snap := built.Net.Snapshot()
	canon := inet.Canonicalize(snap)
	data, jerr := canon.JSON()
	if jerr != nil {
		return nil, jerr
	}

	return &runOutput{
		summary: RunSummary{
			Workers: workers,
			Status:  res.Status.String(),
			Steps:   res.Steps,
			Agents:  built.Net.Len(),
			Hash:    canon.Hash(),
		},
		res:       res,
		snap:      snap,
		canonical: data,
		built:     built,
	}, nil
}

func terminal(status string) bool {
	return status == engine.NormalForm.String() || status == engine.Stuck.String()
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
