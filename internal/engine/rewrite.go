package engine

import (
	"fmt"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/rule"
)

// endpoint is what sits behind one auxiliary port of the active pair once
// the pair is detached: either a port outside the pair (target) or another
// auxiliary port of the pair (partner), when the two were wired together.
type endpoint struct {
	target  inet.Port
	partner int
	linked  bool
}

// rewriter implements rule.Rewriter over the claimed footprint of one pair.
//
// Links are only recorded while the rule runs. commit resolves them into
// wires by following each chain of links and boundary endpoints from one
// concrete port to the next, which is how wires between two auxiliary ports
// of the pair are spliced through and closed loops disappear.
type rewriter struct {
	net   *inet.Net
	owner inet.Owner
	j     journal

	agents [2]inet.AgentID
	kinds  [2]inet.Kind
	base   [2]int
	ends   []endpoint
	inner  []rule.Term

	created  []inet.AgentID
	arity    map[inet.AgentID]int
	portLink map[inet.Port]rule.Term
	done     map[inet.Port]bool
}

var _ rule.Rewriter = (*rewriter)(nil)

func newRewriter(n *inet.Net, owner inet.Owner) *rewriter {
	return &rewriter{
		net:      n,
		owner:    owner,
		arity:    make(map[inet.AgentID]int),
		portLink: make(map[inet.Port]rule.Term),
		done:     make(map[inet.Port]bool),
	}
}

func (rw *rewriter) reset() {
	rw.j.reset()
	rw.ends = rw.ends[:0]
	rw.inner = rw.inner[:0]
	rw.created = rw.created[:0]
	clear(rw.arity)
	clear(rw.portLink)
	clear(rw.done)
}

// capture records the boundary of the pair (left, right) without changing
// the net. The caller holds claims on both agents.
func (rw *rewriter) capture(left, right inet.AgentID, lk, rk inet.Kind) error {
	rw.reset()
	rw.agents = [2]inet.AgentID{left, right}
	rw.kinds = [2]inet.Kind{lk, rk}
	rw.base = [2]int{0, lk.Aux()}

	for side, id := range rw.agents {
		for i := 1; i < rw.kinds[side].Arity; i++ {
			q, err := rw.net.Peer(inet.P(id, i))
			if err != nil {
				return err
			}
			end := endpoint{target: q, partner: -1}
			switch q.Agent {
			case left, right:
				if q.Index == inet.Principal {
					return fmt.Errorf("auxiliary port %s wired to principal %s", inet.P(id, i), q)
				}
				s := rule.Left
				if q.Agent == right {
					s = rule.Right
				}
				end = endpoint{partner: rw.base[s] + q.Index - 1}
			}
			rw.ends = append(rw.ends, end)
			rw.inner = append(rw.inner, rule.Term{})
		}
	}
	return nil
}

// neighbors returns the distinct agents outside the pair that the boundary
// touches.
func (rw *rewriter) neighbors(dst []inet.AgentID) []inet.AgentID {
	for _, end := range rw.ends {
		if end.partner >= 0 {
			continue
		}
		dup := false
		for _, id := range dst {
			if id == end.target.Agent {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, end.target.Agent)
		}
	}
	return dst
}

// detach disconnects every port of the pair, journaling each wire removed.
func (rw *rewriter) detach() error {
	for side, id := range rw.agents {
		for i := 0; i < rw.kinds[side].Arity; i++ {
			p := inet.P(id, i)
			if !rw.net.Bound(p) {
				continue
			}
			q, err := rw.net.Disconnect(p)
			if err != nil {
				return err
			}
			rw.j.append(disconnectChange{a: p, b: q})
		}
	}
	return nil
}

func (rw *rewriter) Kind(side rule.Side) inet.KindID { return rw.kinds[side].ID }

func (rw *rewriter) Arity(side rule.Side) int { return rw.kinds[side].Arity }

func (rw *rewriter) Aux(side rule.Side, i int) rule.Term {
	if side != rule.Left && side != rule.Right {
		return rule.Term{}
	}
	if i < 1 || i >= rw.kinds[side].Arity {
		return rule.Term{}
	}
	return rule.Boundary(side, i)
}

func (rw *rewriter) New(kind inet.KindID) (inet.AgentID, error) {
	k, err := rw.net.Kinds().Get(kind)
	if err != nil {
		return inet.AgentID{}, err
	}
	id, err := rw.net.CreateOwned(kind, rw.owner)
	if err != nil {
		return inet.AgentID{}, err
	}
	rw.j.append(createChange{id: id})
	rw.created = append(rw.created, id)
	rw.arity[id] = k.Arity
	return id, nil
}

func (rw *rewriter) Port(agent inet.AgentID, i int) rule.Term {
	arity, ok := rw.arity[agent]
	if !ok || i < 0 || i >= arity {
		return rule.Term{}
	}
	return rule.PortOf(inet.P(agent, i))
}

func invalidTerm(format string, args ...any) error {
	return &rule.Error{Code: rule.CodeInvalidTerm, Detail: fmt.Sprintf(format, args...)}
}

func (rw *rewriter) endIndex(t rule.Term) int {
	return rw.base[t.Side] + t.Index - 1
}

func (rw *rewriter) used(t rule.Term) bool {
	if t.Kind == rule.TermBoundary {
		return rw.ends[rw.endIndex(t)].linked
	}
	_, ok := rw.portLink[t.Port]
	return ok
}

func (rw *rewriter) mark(t, other rule.Term) {
	if t.Kind == rule.TermBoundary {
		e := rw.endIndex(t)
		rw.ends[e].linked = true
		rw.inner[e] = other
		return
	}
	rw.portLink[t.Port] = other
}

func (rw *rewriter) Link(x, y rule.Term) error {
	if x.Kind == rule.TermInvalid || y.Kind == rule.TermInvalid {
		return invalidTerm("link %s to %s", x, y)
	}
	if x == y {
		return invalidTerm("cannot link %s to itself", x)
	}
	if rw.used(x) {
		return invalidTerm("%s linked twice", x)
	}
	if rw.used(y) {
		return invalidTerm("%s linked twice", y)
	}
	rw.mark(x, y)
	rw.mark(y, x)
	return nil
}

// follow walks from a link target to the concrete port at the end of the
// chain.
func (rw *rewriter) follow(next rule.Term) (inet.Port, error) {
	for hops := 0; hops <= len(rw.ends); hops++ {
		if next.Kind == rule.TermPort {
			return next.Port, nil
		}
		end := rw.ends[rw.endIndex(next)]
		if end.partner < 0 {
			return end.target, nil
		}
		next = rw.inner[end.partner]
	}
	return inet.Port{}, fmt.Errorf("link chain from %s does not terminate", next)
}

func (rw *rewriter) connect(from inet.Port, next rule.Term) error {
	if rw.done[from] {
		return nil
	}
	to, err := rw.follow(next)
	if err != nil {
		return err
	}
	if err := rw.net.Connect(from, to); err != nil {
		return err
	}
	rw.j.append(connectChange{a: from, b: to})
	rw.done[from] = true
	rw.done[to] = true
	return nil
}

// commit checks that the rule used every boundary endpoint and new port,
// lays the resolved wires and erases the pair.
func (rw *rewriter) commit() error {
	for e, end := range rw.ends {
		if !end.linked {
			return invalidTerm("boundary %s left dangling", rw.endTerm(e))
		}
	}
	for _, id := range rw.created {
		for i := 0; i < rw.arity[id]; i++ {
			if _, ok := rw.portLink[inet.P(id, i)]; !ok {
				return invalidTerm("new port %s left unbound", inet.P(id, i))
			}
		}
	}

	for _, id := range rw.created {
		for i := 0; i < rw.arity[id]; i++ {
			p := inet.P(id, i)
			if err := rw.connect(p, rw.portLink[p]); err != nil {
				return err
			}
		}
	}
	for e, end := range rw.ends {
		if end.partner < 0 {
			if err := rw.connect(end.target, rw.inner[e]); err != nil {
				return err
			}
		}
	}

	for _, id := range rw.agents {
		if err := rw.net.Erase(id); err != nil {
			return err
		}
	}
	return nil
}

func (rw *rewriter) endTerm(e int) rule.Term {
	if e < rw.base[rule.Right] {
		return rule.Boundary(rule.Left, e+1)
	}
	return rule.Boundary(rule.Right, e-rw.base[rule.Right]+1)
}

// rollback reverts everything since capture.
func (rw *rewriter) rollback() error {
	return rw.j.revert(rw.net)
}
