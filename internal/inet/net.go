package inet

import (
	"fmt"
	"sync"
)

// FreePort is one named port of a net's external interface.
type FreePort struct {
	Name  string
	Agent AgentID
}

// Port returns the Free agent's single port.
func (f FreePort) Port() Port { return P(f.Agent, 0) }

// Net is an interaction net: an agent store plus the wire relation.
//
// Building a net (Create, Connect, AddFree) is single-threaded. During
// reduction, concurrent mutation is only safe on agents the caller has
// claimed.
type Net struct {
	kinds    *Kinds
	arena    *arena
	observer Observer

	mu    sync.Mutex
	iface []FreePort
}

// New creates an empty net over the given kind registry.
func New(kinds *Kinds) *Net {
	if kinds == nil {
		kinds = NewKinds()
	}
	return &Net{
		kinds: kinds,
		arena: newArena(),
	}
}

// Kinds returns the net's kind registry.
func (n *Net) Kinds() *Kinds { return n.kinds }

// SetObserver installs the active-pair observer. It must be called before
// the net is shared between goroutines.
func (n *Net) SetObserver(o Observer) { n.observer = o }

// Create allocates an agent of the given kind with every port unbound.
func (n *Net) Create(kind KindID) (AgentID, error) {
	return n.CreateOwned(kind, 0)
}

// CreateOwned is Create for agents born inside a rewrite: the new agent is
// already claimed by owner and must be released like any footprint agent.
func (n *Net) CreateOwned(kind KindID, owner Owner) (AgentID, error) {
	if kind == KindFree {
		return AgentID{}, &Error{Code: CodeInvalidKind, Op: "create", Detail: "free agents are created with AddFree"}
	}
	k, err := n.kinds.Get(kind)
	if err != nil {
		return AgentID{}, err
	}
	return n.arena.alloc(kind, k.Arity, owner), nil
}

// MustCreate is like Create but panics on error.
func (n *Net) MustCreate(kind KindID) AgentID {
	id, err := n.Create(kind)
	if err != nil {
		panic(err)
	}
	return id
}

// Erase removes an agent whose ports are all unbound and queues its slot
// for reuse.
func (n *Net) Erase(id AgentID) error {
	s, ok := n.arena.resolve(id)
	if !ok {
		return agentError(CodeStaleReference, "erase", id)
	}
	for i, p := range s.peers {
		if !p.IsZero() {
			return &Error{Code: CodePortsStillBound, Op: "erase", Port: P(id, i)}
		}
	}
	if KindID(s.kind.Load()) == KindFree {
		n.mu.Lock()
		for i, f := range n.iface {
			if f.Agent == id {
				n.iface = append(n.iface[:i], n.iface[i+1:]...)
				break
			}
		}
		n.mu.Unlock()
	}
	n.arena.retire(id, s)
	return nil
}

// Live reports whether id names a live agent.
func (n *Net) Live(id AgentID) bool {
	_, ok := n.arena.resolve(id)
	return ok
}

// KindOf returns the kind of a live agent.
func (n *Net) KindOf(id AgentID) (KindID, error) {
	s, ok := n.arena.resolve(id)
	if !ok {
		return 0, agentError(CodeStaleReference, "kind_of", id)
	}
	return KindID(s.kind.Load()), nil
}

// ArityOf returns the total number of ports of a live agent.
func (n *Net) ArityOf(id AgentID) (int, error) {
	s, ok := n.arena.resolve(id)
	if !ok {
		return 0, agentError(CodeStaleReference, "arity_of", id)
	}
	return len(s.peers), nil
}

// AddFree adds a named port to the net's interface and returns it.
func (n *Net) AddFree(name string) (Port, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, f := range n.iface {
		if f.Name == name {
			return Port{}, &Error{Code: CodeDuplicateName, Op: "add_free", Detail: fmt.Sprintf("interface port %q", name)}
		}
	}
	id := n.arena.alloc(KindFree, 1, 0)
	n.iface = append(n.iface, FreePort{Name: name, Agent: id})
	return P(id, 0), nil
}

// Interface returns the net's interface ports in creation order.
func (n *Net) Interface() []FreePort {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]FreePort, len(n.iface))
	copy(out, n.iface)
	return out
}

// Free returns the interface port registered under name.
func (n *Net) Free(name string) (Port, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, f := range n.iface {
		if f.Name == name {
			return f.Port(), true
		}
	}
	return Port{}, false
}

// Agents returns the ids of all live non-Free agents in slot order.
// Not safe to call while a reduction is mutating the net.
func (n *Net) Agents() []AgentID {
	var out []AgentID
	n.arena.each(func(id AgentID, s *slot) bool {
		if KindID(s.kind.Load()) != KindFree {
			out = append(out, id)
		}
		return true
	})
	return out
}

// Len returns the number of live non-Free agents.
func (n *Net) Len() int {
	n.mu.Lock()
	free := len(n.iface)
	n.mu.Unlock()
	return int(n.arena.live.Load()) - free
}

// ActivePairs scans the net for principal-principal wires. It is the
// reference the incremental tracker is checked against and is only safe
// between reductions.
func (n *Net) ActivePairs() []Pair {
	var out []Pair
	n.arena.each(func(id AgentID, s *slot) bool {
		if KindID(s.kind.Load()) == KindFree {
			return true
		}
		peer := s.peers[Principal]
		if peer.IsZero() || peer.Index != Principal || !id.Less(peer.Agent) {
			return true
		}
		if ps, ok := n.arena.resolve(peer.Agent); ok && KindID(ps.kind.Load()) != KindFree {
			out = append(out, MakePair(id, peer.Agent))
		}
		return true
	})
	return out
}
