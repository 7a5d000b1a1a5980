package inet

import (
	"sync"
	"sync/atomic"
)

const (
	pageBits = 10
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

type slot struct {
	gen   atomic.Uint32
	live  atomic.Bool
	kind  atomic.Uint32
	claim atomic.Int64

	// peers[i] is the port wired to port i, or the zero Port when unbound.
	// Only the claim holder (or a single-threaded builder) touches it.
	peers []Port
}

type page [pageSize]slot

type retired struct {
	slot  uint32
	epoch uint64
}

// arena stores agents in pages that never move, so a *slot obtained for a
// valid index stays valid while new pages are added.
type arena struct {
	mu    sync.Mutex
	pages atomic.Pointer[[]*page]
	high  atomic.Uint32 // slots ever handed out
	free  []uint32
	limbo []retired
	live  atomic.Int64

	epochs *epochs
}

func newArena() *arena {
	a := &arena{epochs: newEpochs()}
	pages := make([]*page, 0, 4)
	a.pages.Store(&pages)
	return a
}

func (a *arena) at(idx uint32) *slot {
	pages := *a.pages.Load()
	return &pages[idx>>pageBits][idx&pageMask]
}

// lookup returns the slot for idx, or nil if idx was never allocated.
func (a *arena) lookup(idx uint32) *slot {
	if idx >= a.high.Load() {
		return nil
	}
	return a.at(idx)
}

// resolve returns the slot of a live agent named by id.
func (a *arena) resolve(id AgentID) (*slot, bool) {
	s := a.lookup(id.Slot)
	if s == nil || !s.live.Load() || s.gen.Load() != id.Gen {
		return nil, false
	}
	return s, true
}

// alloc creates an agent of the given kind with arity unbound ports,
// already claimed by owner (0 for none).
func (a *arena) alloc(kind KindID, arity int, owner Owner) AgentID {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.free) == 0 && len(a.limbo) > 0 {
		a.reclaimLocked()
	}

	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = a.high.Load()
		pages := *a.pages.Load()
		if int(idx>>pageBits) >= len(pages) {
			grown := make([]*page, len(pages), len(pages)*2+1)
			copy(grown, pages)
			grown = append(grown, new(page))
			a.pages.Store(&grown)
		}
		a.high.Store(idx + 1)
	}

	s := a.at(idx)
	gen := s.gen.Add(1)
	if cap(s.peers) >= arity {
		s.peers = s.peers[:arity]
		clear(s.peers)
	} else {
		s.peers = make([]Port, arity)
	}
	s.kind.Store(uint32(kind))
	s.claim.Store(int64(owner))
	s.live.Store(true)
	a.live.Add(1)
	return AgentID{Slot: idx, Gen: gen}
}

// retire marks the slot dead and queues it for reuse after a grace period.
func (a *arena) retire(id AgentID, s *slot) {
	s.live.Store(false)
	a.live.Add(-1)
	epoch := a.epochs.advance()
	a.mu.Lock()
	a.limbo = append(a.limbo, retired{slot: id.Slot, epoch: epoch})
	a.mu.Unlock()
}

// reclaimLocked moves limbo slots whose grace period has passed, and that
// nobody still holds a stale claim on, to the free list.
func (a *arena) reclaimLocked() {
	min := a.epochs.minActive()
	kept := a.limbo[:0]
	for _, r := range a.limbo {
		if r.epoch <= min && a.at(r.slot).claim.Load() == 0 {
			a.free = append(a.free, r.slot)
			continue
		}
		kept = append(kept, r)
	}
	a.limbo = kept
}

// each calls fn for every live slot in slot order.
func (a *arena) each(fn func(id AgentID, s *slot) bool) {
	high := a.high.Load()
	for i := uint32(0); i < high; i++ {
		s := a.at(i)
		if !s.live.Load() {
			continue
		}
		if !fn(AgentID{Slot: i, Gen: s.gen.Load()}, s) {
			return
		}
	}
}
