package inet

// AgentView is a read-only copy of one agent.
type AgentView struct {
	ID    AgentID
	Kind  string
	Ports []Port
}

// InterfaceView is a read-only copy of one interface port.
type InterfaceView struct {
	Name  string
	Agent AgentID
	Peer  Port
}

// Snapshot is a point-in-time copy of a net's structure, for debugging,
// serialization and tests. It shares nothing with the live net.
type Snapshot struct {
	Agents    []AgentView
	Interface []InterfaceView
	Active    []Pair

	index map[AgentID]int
	free  map[AgentID]int
}

// Snapshot copies the net. Not safe to call while a reduction is mutating
// the net.
func (n *Net) Snapshot() *Snapshot {
	kinds := n.kinds
	snap := &Snapshot{
		index: make(map[AgentID]int),
		free:  make(map[AgentID]int),
	}
	for i, f := range n.Interface() {
		view := InterfaceView{Name: f.Name, Agent: f.Agent}
		if s, ok := n.arena.resolve(f.Agent); ok {
			view.Peer = s.peers[0]
		}
		snap.free[f.Agent] = i
		snap.Interface = append(snap.Interface, view)
	}
	n.arena.each(func(id AgentID, s *slot) bool {
		kind := KindID(s.kind.Load())
		if kind == KindFree {
			return true
		}
		ports := make([]Port, len(s.peers))
		copy(ports, s.peers)
		snap.index[id] = len(snap.Agents)
		snap.Agents = append(snap.Agents, AgentView{ID: id, Kind: kinds.Name(kind), Ports: ports})
		return true
	})
	snap.Active = n.ActivePairs()
	return snap
}

// Agent returns the view of id.
func (s *Snapshot) Agent(id AgentID) (AgentView, bool) {
	i, ok := s.index[id]
	if !ok {
		return AgentView{}, false
	}
	return s.Agents[i], true
}

// Peer returns the port wired to p in the snapshot, or the zero Port.
func (s *Snapshot) Peer(p Port) Port {
	if i, ok := s.free[p.Agent]; ok {
		return s.Interface[i].Peer
	}
	a, ok := s.Agent(p.Agent)
	if !ok || p.Index < 0 || p.Index >= len(a.Ports) {
		return Port{}
	}
	return a.Ports[p.Index]
}

// Count returns the number of agents of the named kind.
func (s *Snapshot) Count(kind string) int {
	c := 0
	for _, a := range s.Agents {
		if a.Kind == kind {
			c++
		}
	}
	return c
}

// KindCounts returns agent counts by kind name.
func (s *Snapshot) KindCounts() map[string]int {
	out := make(map[string]int)
	for _, a := range s.Agents {
		out[a.Kind]++
	}
	return out
}
