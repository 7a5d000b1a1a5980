package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/redex"
	"github.com/roach88/inet/internal/rule"
)

// Engine reduces one net with one rule table.
//
// Thread-safety model:
//   - Run and Step: serialized by the engine; one run at a time
//   - Inside Run: workers rewrite disjoint footprints concurrently
//   - The net must not be mutated by anyone else while Run or Step is active
//
// INVARIANTS:
//   - Every active pair of the net is pending in the tracker, parked as
//     stuck, or held by exactly one worker
//   - Between steps the net is a perfect matching over live ports
type Engine struct {
	net     *inet.Net
	table   *rule.Table
	tracker *redex.Tracker
	clock   *Clock
	log     *slog.Logger
	rec     Recorder
	now     func() time.Time

	workers       int
	maxSteps      int64
	deadline      time.Duration
	seed          uint64
	seeded        bool
	deterministic bool
	verify        bool

	runMu   sync.Mutex
	owners  atomic.Int64
	stepper *worker
	total   Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the size of the worker pool. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		e.workers = n
	}
}

// WithMaxSteps bounds the number of rewrites per Run. 0 means unbounded.
func WithMaxSteps(n int64) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithDeadline bounds the wall-clock duration of each Run. 0 means none.
func WithDeadline(d time.Duration) Option {
	return func(e *Engine) {
		e.deadline = d
	}
}

// WithSeed makes the tracker hand out pairs in a pseudo-random order
// derived from seed instead of LIFO.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.seed = seed
		e.seeded = true
	}
}

// WithDeterministic forces a single worker so that, together with a fixed
// seed (or the default LIFO order), every run of the same net performs the
// same rewrites in the same order.
func WithDeterministic() Option {
	return func(e *Engine) {
		e.deterministic = true
	}
}

// WithLogger sets the engine's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRecorder sets the receiver of step events.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.rec = r
	}
}

// WithVerify makes Run check the wire invariant once workers have stopped.
func WithVerify() Option {
	return func(e *Engine) {
		e.verify = true
	}
}

// WithClock continues step numbering from an existing clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithNow overrides the time source used for deadlines and Result.Elapsed.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine for net and installs its active pair tracker as
// the net's observer. Pairs already present in the net are picked up.
func New(net *inet.Net, table *rule.Table, opts ...Option) *Engine {
	e := &Engine{
		net:     net,
		table:   table,
		clock:   NewClock(),
		log:     slog.Default(),
		rec:     nopRecorder{},
		now:     time.Now,
		workers: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.deterministic {
		e.workers = 1
	}

	var topts []redex.Option
	if e.seeded {
		topts = append(topts, redex.WithSeed(e.seed))
	}
	e.tracker = redex.New(topts...)
	net.SetObserver(e.tracker)
	for _, p := range net.ActivePairs() {
		e.tracker.Add(p)
	}
	return e
}

// Net returns the net being reduced.
func (e *Engine) Net() *inet.Net { return e.net }

// Pending returns the number of active pairs waiting to be reduced.
func (e *Engine) Pending() int { return e.tracker.Len() }

// Clock returns the step clock.
func (e *Engine) Clock() *Clock { return e.clock }

// Stats returns the counters accumulated over every Run and Step so far.
func (e *Engine) Stats() Stats {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.total.clone()
}

// Run reduces the net until it reaches normal form, gets stuck, exhausts
// its budget, or is cancelled.
//
// Stuck pairs do not stop the run: they are parked and every other pair is
// still reduced, so a stuck result carries the most-reduced net. A fatal
// rewrite error stops all workers and returns the net as it was before the
// failing rewrite together with a *RunError.
//
// Cancelling ctx stops the run between steps; the result then has status
// BudgetExhausted with reason "cancelled" and Run returns ctx.Err().
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	start := e.now()
	var deadline time.Time
	if e.deadline > 0 {
		deadline = start.Add(e.deadline)
	}
	b := newBudget(e.maxSteps, deadline, e.now)

	e.log.Info("reduction starting",
		"workers", e.workers,
		"pending", e.tracker.Len(),
		"max_steps", e.maxSteps,
		"deadline", e.deadline,
		"event", "run_start",
	)

	stats, runErr := e.schedule(ctx, b)
	e.total.merge(&stats)

	res := &Result{
		Net:     e.net,
		Steps:   b.used(),
		Pending: e.tracker.Len(),
		Limit:   e.maxSteps,
		Stats:   stats,
		Elapsed: e.now().Sub(start),
	}

	var err error
	switch {
	case runErr != nil:
		res.Status = Aborted
		err = runErr
		e.log.Error("reduction aborted",
			"steps", res.Steps,
			"error", runErr,
			"event", "run_aborted",
		)
	case ctx.Err() != nil && res.Pending > 0:
		res.Status = BudgetExhausted
		res.Reason = ReasonCancelled
		err = ctx.Err()
	default:
		if reason, ok := b.exhausted(); ok {
			res.Status = BudgetExhausted
			res.Reason = reason
		} else if parked := e.tracker.Parked(); len(parked) > 0 {
			res.Status = Stuck
			res.Stuck = e.describeStuck(parked)
		} else {
			res.Status = NormalForm
		}
	}

	if e.verify && res.Status != Aborted {
		if verr := e.net.CheckInvariants(); verr != nil {
			res.Status = Aborted
			err = &RunError{Code: ErrCodeInvariant, Err: verr}
		}
	}

	e.log.Info("reduction finished",
		"status", res.Status.String(),
		"steps", res.Steps,
		"agents", e.net.Len(),
		"pending", res.Pending,
		"elapsed", res.Elapsed,
		"event", "run_finish",
	)
	return res, err
}

func (e *Engine) describeStuck(pairs []inet.Pair) []StuckPair {
	out := make([]StuckPair, 0, len(pairs))
	kinds := e.net.Kinds()
	for _, p := range pairs {
		sp := StuckPair{Pair: p}
		if k, err := e.net.KindOf(p.A); err == nil {
			sp.Left = kinds.Name(k)
		}
		if k, err := e.net.KindOf(p.B); err == nil {
			sp.Right = kinds.Name(k)
		}
		out = append(out, sp)
	}
	return out
}

// Step performs a single dequeue-claim-rewrite cycle outside of Run.
// It ignores the step budget and deadline.
func (e *Engine) Step(ctx context.Context) (StepOutcome, error) {
	if err := ctx.Err(); err != nil {
		return StepIdle, err
	}
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.stepper == nil {
		e.stepper = e.newWorker(0)
	}
	w := e.stepper
	w.part.Enter()
	defer w.part.Exit()

	p, ok := e.tracker.Pop()
	if !ok {
		return StepIdle, nil
	}
	w.stats = Stats{}
	out, err := w.reduce(p, newBudget(0, time.Time{}, e.now))
	e.total.merge(&w.stats)
	return out, err
}

func (e *Engine) newWorker(id int) *worker {
	owner := inet.Owner(e.owners.Add(1))
	return &worker{
		e:     e,
		id:    id,
		owner: owner,
		part:  e.net.Join(),
		rw:    newRewriter(e.net, owner),
	}
}
