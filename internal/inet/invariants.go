package inet

import "fmt"

// CheckInvariants verifies that the wire relation is a perfect matching over
// the ports of live agents: every port is bound, peers are symmetric, and
// no wire ends on an erased agent. It returns an *InvariantError listing
// every violation found.
//
// Only meaningful between reductions.
func (n *Net) CheckInvariants() error {
	var violations []string
	n.arena.each(func(id AgentID, s *slot) bool {
		for i, q := range s.peers {
			p := P(id, i)
			if q.IsZero() {
				violations = append(violations, fmt.Sprintf("%s unbound", p))
				continue
			}
			sq, ok := n.arena.resolve(q.Agent)
			if !ok {
				violations = append(violations, fmt.Sprintf("%s wired to erased %s", p, q))
				continue
			}
			if q.Index < 0 || q.Index >= len(sq.peers) {
				violations = append(violations, fmt.Sprintf("%s wired to out-of-range %s", p, q))
				continue
			}
			if back := sq.peers[q.Index]; back != p {
				violations = append(violations, fmt.Sprintf("%s -> %s but %s -> %s", p, q, q, back))
			}
		}
		return true
	})
	if len(violations) > 0 {
		return &InvariantError{Violations: violations}
	}
	return nil
}
