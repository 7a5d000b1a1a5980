package inet

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/roach88/inet/internal/ir"
)

// Canonical is a labelling-independent encoding of a net. Two nets are
// isomorphic (same shape, kinds, port order and interface names) iff their
// canonical forms are equal.
//
// Agents are numbered breadth-first from the interface ports in interface
// order, visiting ports in index order. Components unreachable from the
// interface are appended one at a time, always choosing the root whose
// component encoding is smallest.
//
// Port references are encoded as "n<agent>.<port>" for agent ports, "f<i>"
// for interface port i and "-" for an unbound port.
type Canonical struct {
	Interface []CanonicalFree  `json:"interface"`
	Agents    []CanonicalAgent `json:"agents"`
}

// CanonicalFree is one interface port in canonical form.
type CanonicalFree struct {
	Name string `json:"name"`
	Peer string `json:"peer"`
}

// CanonicalAgent is one agent in canonical form.
type CanonicalAgent struct {
	Kind  string   `json:"kind"`
	Ports []string `json:"ports"`
}

type numbering struct {
	snap  *Snapshot
	num   map[AgentID]int
	order []AgentID
}

func (nb *numbering) visit(root AgentID) {
	if _, ok := nb.num[root]; ok {
		return
	}
	nb.num[root] = len(nb.order)
	nb.order = append(nb.order, root)
	for head := len(nb.order) - 1; head < len(nb.order); head++ {
		a, _ := nb.snap.Agent(nb.order[head])
		for _, p := range a.Ports {
			if _, isAgent := nb.snap.index[p.Agent]; !isAgent {
				continue
			}
			if _, seen := nb.num[p.Agent]; !seen {
				nb.num[p.Agent] = len(nb.order)
				nb.order = append(nb.order, p.Agent)
			}
		}
	}
}

func (nb *numbering) ref(p Port) string {
	if p.IsZero() {
		return "-"
	}
	if i, ok := nb.snap.free[p.Agent]; ok {
		return "f" + strconv.Itoa(i)
	}
	if k, ok := nb.num[p.Agent]; ok {
		return "n" + strconv.Itoa(k) + "." + strconv.Itoa(p.Index)
	}
	return "-"
}

// islandKey encodes the component reachable from root with a fresh local
// numbering.
func (s *Snapshot) islandKey(root AgentID) string {
	local := &numbering{snap: s, num: make(map[AgentID]int)}
	local.visit(root)
	var b strings.Builder
	for _, id := range local.order {
		a, _ := s.Agent(id)
		b.WriteString(a.Kind)
		b.WriteByte('(')
		for i, p := range a.Ports {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(local.ref(p))
		}
		b.WriteString(")|")
	}
	return b.String()
}

// Canonicalize computes the canonical form of a snapshot.
func Canonicalize(s *Snapshot) *Canonical {
	nb := &numbering{snap: s, num: make(map[AgentID]int, len(s.Agents))}
	for _, f := range s.Interface {
		if _, ok := s.index[f.Peer.Agent]; ok {
			nb.visit(f.Peer.Agent)
		}
	}

	for len(nb.order) < len(s.Agents) {
		var best AgentID
		bestKey := ""
		found := false
		for _, a := range s.Agents {
			if _, seen := nb.num[a.ID]; seen {
				continue
			}
			key := s.islandKey(a.ID)
			if !found || key < bestKey {
				best, bestKey, found = a.ID, key, true
			}
		}
		nb.visit(best)
	}

	c := &Canonical{
		Interface: make([]CanonicalFree, 0, len(s.Interface)),
		Agents:    make([]CanonicalAgent, 0, len(nb.order)),
	}
	for _, f := range s.Interface {
		c.Interface = append(c.Interface, CanonicalFree{Name: f.Name, Peer: nb.ref(f.Peer)})
	}
	for _, id := range nb.order {
		a, _ := s.Agent(id)
		ports := make([]string, len(a.Ports))
		for i, p := range a.Ports {
			ports[i] = nb.ref(p)
		}
		c.Agents = append(c.Agents, CanonicalAgent{Kind: a.Kind, Ports: ports})
	}
	return c
}

// Value returns the canonical form as plain values accepted by
// ir.MarshalCanonical.
func (c *Canonical) Value() map[string]any {
	iface := make([]any, len(c.Interface))
	for i, f := range c.Interface {
		iface[i] = map[string]any{"name": f.Name, "peer": f.Peer}
	}
	agents := make([]any, len(c.Agents))
	for i, a := range c.Agents {
		agents[i] = map[string]any{"kind": a.Kind, "ports": a.Ports}
	}
	return map[string]any{"interface": iface, "agents": agents}
}

// Hash returns the domain-separated hash of the canonical form.
func (c *Canonical) Hash() string {
	return ir.MustNetHash(c.Value())
}

// JSON returns the canonical form as indented JSON, for golden files and
// persisted snapshots.
func (c *Canonical) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Hash returns the canonical hash of the net's current structure.
func (n *Net) Hash() string {
	return Canonicalize(n.Snapshot()).Hash()
}
