// Package redex tracks the active pairs (redexes) of a net.
//
// The Tracker is the net's Observer: Connect and Disconnect report every
// principal-principal wire as it forms or breaks, so the set is maintained
// incrementally and never rebuilt by scanning the graph.
package redex

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/roach88/inet/internal/inet"
)

// Tracker is a concurrent set of active pairs with O(1) add, remove and pop.
//
// Pop order is LIFO by default, which keeps the working set small on deep
// nets. With a seed, Pop draws uniformly with a deterministic PRNG, so a
// single-worker run is reproducible while still exercising arbitrary
// reduction orders.
//
// Pairs that have no rule are parked: they stay active in the net but are
// no longer handed out.
type Tracker struct {
	mu     sync.Mutex
	items  []inet.Pair
	index  map[inet.Pair]int
	parked map[inet.Pair]struct{}
	rng    *rand.Rand
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSeed makes Pop draw pairs pseudo-randomly from a generator seeded
// with seed.
func WithSeed(seed uint64) Option {
	return func(t *Tracker) {
		t.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// New returns an empty tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		index:  make(map[inet.Pair]int),
		parked: make(map[inet.Pair]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// PairFormed implements inet.Observer.
func (t *Tracker) PairFormed(p inet.Pair) { t.Add(p) }

// PairBroken implements inet.Observer.
func (t *Tracker) PairBroken(p inet.Pair) { t.Remove(p) }

// Add inserts p. It returns false if p is already pending or parked.
func (t *Tracker) Add(p inet.Pair) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.index[p]; ok {
		return false
	}
	if _, ok := t.parked[p]; ok {
		return false
	}
	t.index[p] = len(t.items)
	t.items = append(t.items, p)
	return true
}

// Remove deletes p from the pending and parked sets.
func (t *Tracker) Remove(p inet.Pair) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.parked[p]; ok {
		delete(t.parked, p)
		return true
	}
	i, ok := t.index[p]
	if !ok {
		return false
	}
	t.removeAt(i)
	return true
}

func (t *Tracker) removeAt(i int) inet.Pair {
	p := t.items[i]
	last := len(t.items) - 1
	if i != last {
		moved := t.items[last]
		t.items[i] = moved
		t.index[moved] = i
	}
	t.items = t.items[:last]
	delete(t.index, p)
	return p
}

// Pop removes and returns a pending pair.
func (t *Tracker) Pop() (inet.Pair, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.items)
	if n == 0 {
		return inet.Pair{}, false
	}
	i := n - 1
	if t.rng != nil {
		i = t.rng.IntN(n)
	}
	return t.removeAt(i), true
}

// Contains reports whether p is pending.
func (t *Tracker) Contains(p inet.Pair) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.index[p]
	return ok
}

// Len returns the number of pending pairs.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

// Park marks p as stuck. A parked pair is not returned by Pop.
func (t *Tracker) Park(p inet.Pair) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.index[p]; ok {
		t.removeAt(i)
	}
	t.parked[p] = struct{}{}
}

// Parked returns the parked pairs in id order.
func (t *Tracker) Parked() []inet.Pair {
	t.mu.Lock()
	out := make([]inet.Pair, 0, len(t.parked))
	for p := range t.parked {
		out = append(out, p)
	}
	t.mu.Unlock()
	sortPairs(out)
	return out
}

// Pending returns the pending pairs in id order.
func (t *Tracker) Pending() []inet.Pair {
	t.mu.Lock()
	out := make([]inet.Pair, len(t.items))
	copy(out, t.items)
	t.mu.Unlock()
	sortPairs(out)
	return out
}

func sortPairs(ps []inet.Pair) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].A != ps[j].A {
			return ps[i].A.Less(ps[j].A)
		}
		return ps[i].B.Less(ps[j].B)
	})
}
