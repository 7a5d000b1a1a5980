package engine

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/redex"
)

// pool hands pending pairs to workers and detects termination: the run is
// over when no pair is pending and no worker is in the middle of a step
// that could create more.
type pool struct {
	tracker *redex.Tracker

	mu       sync.Mutex
	cond     *sync.Cond
	inflight int
	stopped  bool
}

func newPool(t *redex.Tracker) *pool {
	p := &pool{tracker: t}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// next blocks until a pair is available or the run is over. The
// participant is active whenever the caller may hold a pair id.
func (p *pool) next(ctx context.Context, part *inet.Participant) (inet.Pair, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.stopped || ctx.Err() != nil {
			return inet.Pair{}, false
		}
		part.Enter()
		if pair, ok := p.tracker.Pop(); ok {
			p.inflight++
			return pair, true
		}
		part.Exit()
		if p.inflight == 0 {
			p.stopped = true
			p.cond.Broadcast()
			return inet.Pair{}, false
		}
		p.cond.Wait()
	}
}

// finish marks a step complete and wakes waiting workers, since the step
// may have produced new pairs or been the last one in flight.
func (p *pool) finish(part *inet.Participant) {
	part.Exit()
	p.mu.Lock()
	p.inflight--
	p.cond.Broadcast()
	p.mu.Unlock()
}

// stop ends the run; in-flight steps complete, nothing new starts.
func (p *pool) stop() {
	p.mu.Lock()
	p.stopped = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// schedule runs the worker pool to completion and returns the merged
// statistics.
func (e *Engine) schedule(ctx context.Context, b *budget) (Stats, error) {
	p := newPool(e.tracker)
	g, gctx := errgroup.WithContext(ctx)
	stopOnCancel := context.AfterFunc(gctx, p.stop)
	defer stopOnCancel()

	workers := make([]*worker, e.workers)
	for i := range workers {
		w := e.newWorker(i)
		workers[i] = w
		g.Go(func() error {
			defer w.part.Leave()
			for {
				pair, ok := p.next(gctx, w.part)
				if !ok {
					return nil
				}
				out, err := w.reduce(pair, b)
				p.finish(w.part)
				if err != nil {
					p.stop()
					return err
				}
				switch out {
				case StepExhausted:
					p.stop()
					return nil
				case StepDeferred:
					runtime.Gosched()
				}
			}
		})
	}

	err := g.Wait()
	var stats Stats
	for _, w := range workers {
		stats.merge(&w.stats)
	}
	return stats, err
}
