package inet

import (
	"math"
	"sync"
	"sync/atomic"
)

// epochs tracks which reduction participants are active and since when.
//
// A slot retired at epoch r may be reused once every active participant
// announced an epoch >= r: any participant that entered before the
// retirement could still hold the old AgentID (for example in a pair popped
// from the tracker) and must first see the slot dead rather than reused.
// Generation checks already catch reuse; the grace period keeps a stale
// claim from landing on a freshly allocated agent.
type epochs struct {
	global atomic.Uint64

	mu    sync.Mutex
	parts map[*Participant]struct{}
}

func newEpochs() *epochs {
	e := &epochs{parts: make(map[*Participant]struct{})}
	e.global.Store(1)
	return e
}

// advance bumps the global epoch and returns the new value.
func (e *epochs) advance() uint64 {
	return e.global.Add(1)
}

// minActive returns the smallest epoch announced by an active participant,
// or MaxUint64 if none is active.
func (e *epochs) minActive() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	min := uint64(math.MaxUint64)
	for p := range e.parts {
		if a := p.announced.Load(); a != 0 && a < min {
			min = a
		}
	}
	return min
}

// Participant is a goroutine that reads agent ids outside of a claim,
// typically a reduction worker. Each participant brackets every step with
// Enter and Exit.
type Participant struct {
	ep        *epochs
	announced atomic.Uint64
}

// Join registers a new participant.
func (n *Net) Join() *Participant {
	p := &Participant{ep: n.arena.epochs}
	n.arena.epochs.mu.Lock()
	n.arena.epochs.parts[p] = struct{}{}
	n.arena.epochs.mu.Unlock()
	return p
}

// Enter announces the current epoch.
func (p *Participant) Enter() {
	for {
		e := p.ep.global.Load()
		p.announced.Store(e)
		if p.ep.global.Load() == e {
			return
		}
	}
}

// Exit marks the participant idle.
func (p *Participant) Exit() {
	p.announced.Store(0)
}

// Leave deregisters the participant.
func (p *Participant) Leave() {
	p.Exit()
	p.ep.mu.Lock()
	delete(p.ep.parts, p)
	p.ep.mu.Unlock()
}
