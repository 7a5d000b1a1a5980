package library

import (
	"fmt"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/rule"
)

// Arith holds the kinds of unary natural-number arithmetic.
//
// Numbers are chains S(S(...Z)) with the principal port facing the
// consumer. Operators take their first operand on the principal port:
//
//	Add(0: x, 1: y, 2: x+y)
//	Sub(0: x, 1: y, 2: |x-y|)
//	Sub0(0: y, 1: x-1, 2: result)  helper state of Sub
//
// Dup copies a number and Era discards one.
type Arith struct {
	Z    inet.KindID
	S    inet.KindID
	Add  inet.KindID
	Sub  inet.KindID
	Sub0 inet.KindID
	Dup  inet.KindID
	Era  inet.KindID
}

type tmpl struct {
	name, left, right string
	agents            []rule.AgentSpec
	links             []rule.Link
}

var arithRules = []tmpl{
	// Add(Z, y) = y
	{name: "add-z", left: KindAdd, right: KindZ,
		links: []rule.Link{{"left.1", "left.2"}}},
	// Add(S x, y) = S(Add(x, y))
	{name: "add-s", left: KindAdd, right: KindS,
		agents: []rule.AgentSpec{{Name: "a", Kind: KindAdd}, {Name: "s", Kind: KindS}},
		links: []rule.Link{
			{"a.0", "right.1"}, {"a.1", "left.1"}, {"a.2", "s.1"}, {"s.0", "left.2"},
		}},
	// Sub(Z, y) = y
	{name: "sub-z", left: KindSub, right: KindZ,
		links: []rule.Link{{"left.1", "left.2"}}},
	// Sub(S x, y) = Sub0(y, x)
	{name: "sub-s", left: KindSub, right: KindS,
		agents: []rule.AgentSpec{{Name: "h", Kind: KindSub0}},
		links: []rule.Link{
			{"h.0", "left.1"}, {"h.1", "right.1"}, {"h.2", "left.2"},
		}},
	// Sub0(Z, x) = S x
	{name: "sub0-z", left: KindSub0, right: KindZ,
		agents: []rule.AgentSpec{{Name: "s", Kind: KindS}},
		links: []rule.Link{
			{"s.0", "left.2"}, {"s.1", "left.1"},
		}},
	// Sub0(S y, x) = Sub(x, y)
	{name: "sub0-s", left: KindSub0, right: KindS,
		agents: []rule.AgentSpec{{Name: "u", Kind: KindSub}},
		links: []rule.Link{
			{"u.0", "left.1"}, {"u.1", "right.1"}, {"u.2", "left.2"},
		}},
	{name: "dup-z", left: KindDup, right: KindZ,
		agents: []rule.AgentSpec{{Name: "z1", Kind: KindZ}, {Name: "z2", Kind: KindZ}},
		links:  []rule.Link{{"z1.0", "left.1"}, {"z2.0", "left.2"}}},
	{name: "dup-s", left: KindDup, right: KindS,
		agents: []rule.AgentSpec{
			{Name: "d", Kind: KindDup}, {Name: "s1", Kind: KindS}, {Name: "s2", Kind: KindS},
		},
		links: []rule.Link{
			{"d.0", "right.1"}, {"d.1", "s1.1"}, {"d.2", "s2.1"},
			{"s1.0", "left.1"}, {"s2.0", "left.2"},
		}},
	{name: "era-z", left: KindEra, right: KindZ},
	{name: "era-s", left: KindEra, right: KindS,
		agents: []rule.AgentSpec{{Name: "e", Kind: KindEra}},
		links:  []rule.Link{{"e.0", "right.1"}}},
}

// RegisterArith registers the arithmetic kinds and rules.
func RegisterArith(table *rule.Table) (*Arith, error) {
	kinds := table.Kinds()
	var a Arith
	var err error
	for _, k := range []struct {
		dst   *inet.KindID
		name  string
		arity int
		pol   inet.Polarity
	}{
		{&a.Z, KindZ, 1, inet.Positive},
		{&a.S, KindS, 2, inet.Positive},
		{&a.Add, KindAdd, 3, inet.Negative},
		{&a.Sub, KindSub, 3, inet.Negative},
		{&a.Sub0, KindSub0, 3, inet.Negative},
		{&a.Dup, KindDup, 3, inet.Neutral},
		{&a.Era, KindEra, 1, inet.Neutral},
	} {
		if *k.dst, err = ensureKind(kinds, k.name, k.arity, k.pol); err != nil {
			return nil, err
		}
	}
	for _, t := range arithRules {
		if err := registerTemplate(table, t.name, t.left, t.right, t.agents, t.links); err != nil {
			return nil, err
		}
	}
	return &a, nil
}

// ArithKinds looks up arithmetic kinds registered earlier (for example by
// a compiled program) without registering rules.
func ArithKinds(kinds *inet.Kinds) (*Arith, error) {
	var a Arith
	for _, k := range []struct {
		dst  *inet.KindID
		name string
	}{
		{&a.Z, KindZ}, {&a.S, KindS}, {&a.Add, KindAdd}, {&a.Sub, KindSub},
		{&a.Sub0, KindSub0}, {&a.Dup, KindDup}, {&a.Era, KindEra},
	} {
		kind, ok := kinds.Lookup(k.name)
		if !ok {
			return nil, fmt.Errorf("kind %s not registered", k.name)
		}
		*k.dst = kind.ID
	}
	return &a, nil
}

// Nat builds the numeral v in n and returns its principal port.
func (a *Arith) Nat(n *inet.Net, v int) (inet.Port, error) {
	if v < 0 {
		return inet.Port{}, fmt.Errorf("negative numeral %d", v)
	}
	z, err := n.Create(a.Z)
	if err != nil {
		return inet.Port{}, err
	}
	top := inet.P(z, inet.Principal)
	for i := 0; i < v; i++ {
		s, err := n.Create(a.S)
		if err != nil {
			return inet.Port{}, err
		}
		if err := n.Connect(inet.P(s, 1), top); err != nil {
			return inet.Port{}, err
		}
		top = inet.P(s, inet.Principal)
	}
	return top, nil
}

// Binary creates an operator agent of kind op (Add or Sub) applied to x and
// y and returns its result port.
func (a *Arith) Binary(n *inet.Net, op inet.KindID, x, y inet.Port) (inet.Port, error) {
	id, err := n.Create(op)
	if err != nil {
		return inet.Port{}, err
	}
	if err := n.Connect(inet.P(id, 0), x); err != nil {
		return inet.Port{}, err
	}
	if err := n.Connect(inet.P(id, 1), y); err != nil {
		return inet.Port{}, err
	}
	return inet.P(id, 2), nil
}

// ReadNat decodes the numeral wired to p, typically an interface port.
func (a *Arith) ReadNat(n *inet.Net, p inet.Port) (int, error) {
	q, err := n.Peer(p)
	if err != nil {
		return 0, err
	}
	for v := 0; ; v++ {
		if q.Index != inet.Principal {
			return 0, fmt.Errorf("not a numeral: reached auxiliary port %s", q)
		}
		kind, err := n.KindOf(q.Agent)
		if err != nil {
			return 0, err
		}
		switch kind {
		case a.Z:
			return v, nil
		case a.S:
			if q, err = n.Peer(inet.P(q.Agent, 1)); err != nil {
				return 0, err
			}
		default:
			return 0, fmt.Errorf("not a numeral: found %s", n.Kinds().Name(kind))
		}
	}
}
