package inet

import "fmt"

// AgentID identifies an agent by arena slot and allocation generation.
// The zero value never names a live agent (generations start at 1).
type AgentID struct {
	Slot uint32
	Gen  uint32
}

// IsZero reports whether id is the zero AgentID.
func (id AgentID) IsZero() bool { return id.Gen == 0 }

// Less orders ids by slot, then generation.
func (id AgentID) Less(other AgentID) bool {
	if id.Slot != other.Slot {
		return id.Slot < other.Slot
	}
	return id.Gen < other.Gen
}

func (id AgentID) String() string {
	return fmt.Sprintf("a%d#%d", id.Slot, id.Gen)
}

// Principal is the index of every agent's principal port.
const Principal = 0

// Port addresses one port of an agent. Index 0 is the principal port.
type Port struct {
	Agent AgentID
	Index int
}

// P is shorthand for Port{Agent: id, Index: index}.
func P(id AgentID, index int) Port {
	return Port{Agent: id, Index: index}
}

// IsZero reports whether p is the zero Port (used as "unbound").
func (p Port) IsZero() bool { return p.Agent.IsZero() }

// IsPrincipal reports whether p is a principal port.
func (p Port) IsPrincipal() bool { return p.Index == Principal }

func (p Port) String() string {
	return fmt.Sprintf("%s.%d", p.Agent, p.Index)
}

// Pair is an unordered pair of agents, normalized so that A < B.
// Active pairs are keyed by Pair.
type Pair struct {
	A AgentID
	B AgentID
}

// MakePair returns the normalized pair of a and b.
func MakePair(a, b AgentID) Pair {
	if b.Less(a) {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func (p Pair) String() string {
	return fmt.Sprintf("%s><%s", p.A, p.B)
}

// Observer is notified whenever a wire between two principal ports of
// non-Free agents is created or removed. The active pair tracker is the
// only production implementation.
//
// Callbacks run synchronously inside Connect/Disconnect and may be invoked
// from several goroutines at once.
type Observer interface {
	PairFormed(p Pair)
	PairBroken(p Pair)
}
