package inet

func (n *Net) port(op string, p Port) (*slot, error) {
	s, ok := n.arena.resolve(p.Agent)
	if !ok {
		return nil, portError(CodeStaleReference, op, p)
	}
	if p.Index < 0 || p.Index >= len(s.peers) {
		return nil, portError(CodePortOutOfRange, op, p)
	}
	return s, nil
}

// active reports whether a wire between p (on sp) and q (on sq) forms an
// active pair.
func active(p Port, sp *slot, q Port, sq *slot) bool {
	return p.Index == Principal && q.Index == Principal &&
		KindID(sp.kind.Load()) != KindFree && KindID(sq.kind.Load()) != KindFree
}

// Connect wires p to q. Both ports must be unbound.
func (n *Net) Connect(p, q Port) error {
	if p == q {
		return portError(CodeSelfWire, "connect", p)
	}
	sp, err := n.port("connect", p)
	if err != nil {
		return err
	}
	sq, err := n.port("connect", q)
	if err != nil {
		return err
	}
	if !sp.peers[p.Index].IsZero() {
		return portError(CodePortAlreadyBound, "connect", p)
	}
	if !sq.peers[q.Index].IsZero() {
		return portError(CodePortAlreadyBound, "connect", q)
	}

	sp.peers[p.Index] = q
	sq.peers[q.Index] = p

	if n.observer != nil && active(p, sp, q, sq) {
		n.observer.PairFormed(MakePair(p.Agent, q.Agent))
	}
	return nil
}

// MustConnect is like Connect but panics on error. Intended for building
// nets in tests and library constructors.
func (n *Net) MustConnect(p, q Port) {
	if err := n.Connect(p, q); err != nil {
		panic(err)
	}
}

// Disconnect removes the wire at p and returns the port that was at its
// other end, which is left unbound.
func (n *Net) Disconnect(p Port) (Port, error) {
	sp, err := n.port("disconnect", p)
	if err != nil {
		return Port{}, err
	}
	q := sp.peers[p.Index]
	if q.IsZero() {
		return Port{}, portError(CodePortUnbound, "disconnect", p)
	}
	sq, err := n.port("disconnect", q)
	if err != nil {
		return Port{}, err
	}

	sp.peers[p.Index] = Port{}
	sq.peers[q.Index] = Port{}

	if n.observer != nil && active(p, sp, q, sq) {
		n.observer.PairBroken(MakePair(p.Agent, q.Agent))
	}
	return q, nil
}

// Peer returns the port wired to p.
func (n *Net) Peer(p Port) (Port, error) {
	sp, err := n.port("peer", p)
	if err != nil {
		return Port{}, err
	}
	q := sp.peers[p.Index]
	if q.IsZero() {
		return Port{}, portError(CodeFreePort, "peer", p)
	}
	return q, nil
}

// Bound reports whether p currently has a wire. Stale or out-of-range
// ports report false.
func (n *Net) Bound(p Port) bool {
	sp, err := n.port("bound", p)
	return err == nil && !sp.peers[p.Index].IsZero()
}
