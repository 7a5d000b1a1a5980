package inet

// Owner identifies the holder of agent claims, normally a reduction worker.
// The zero Owner means "unclaimed".
type Owner int64

// Claim tries to take exclusive ownership of a live agent without blocking.
// It returns false if the agent is stale or held by another owner. Claiming
// an agent already held by owner succeeds.
func (n *Net) Claim(id AgentID, owner Owner) bool {
	s := n.arena.lookup(id.Slot)
	if s == nil {
		return false
	}
	if !s.claim.CompareAndSwap(0, int64(owner)) {
		if s.claim.Load() != int64(owner) {
			return false
		}
	}
	// The slot may have been erased or reused between reading id and
	// winning the CAS.
	if !s.live.Load() || s.gen.Load() != id.Gen {
		s.claim.CompareAndSwap(int64(owner), 0)
		return false
	}
	return true
}

// Release gives up owner's claim on id. Releasing an agent erased while
// claimed is allowed and clears the slot for reuse.
func (n *Net) Release(id AgentID, owner Owner) {
	if s := n.arena.lookup(id.Slot); s != nil {
		s.claim.CompareAndSwap(int64(owner), 0)
	}
}

// ClaimedBy returns the current owner of id's slot, or 0.
func (n *Net) ClaimedBy(id AgentID) Owner {
	if s := n.arena.lookup(id.Slot); s != nil {
		return Owner(s.claim.Load())
	}
	return 0
}
