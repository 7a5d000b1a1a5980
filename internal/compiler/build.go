package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/library"
	"github.com/roach88/inet/internal/rule"
)

// Built is a program instantiated into a rule table and a net.
type Built struct {
	Table  *rule.Table
	Net    *inet.Net
	Agents map[string]inet.AgentID
}

// Build registers the program's kinds and rules and constructs its initial
// net. Library rule sets named in Use are loaded first; a declared kind that
// a library already registered must agree on arity and polarity.
//
// The returned net satisfies the wire invariant: every port of every agent
// is bound exactly once.
func (p *Program) Build() (*Built, error) {
	table := rule.NewTable(inet.NewKinds())
	if err := library.Load(table, p.Use...); err != nil {
		return nil, &CompileError{Field: "use", Message: err.Error()}
	}
	if err := p.registerKinds(table.Kinds()); err != nil {
		return nil, err
	}
	for _, r := range p.Rules {
		t, err := rule.NewTemplate(table.Kinds(), r.Name, r.Left, r.Right, r.Agents, r.Links)
		if err != nil {
			return nil, &CompileError{Field: "rule." + r.Name, Message: err.Error(), Pos: r.Pos}
		}
		if err := t.Register(table); err != nil {
			return nil, &CompileError{Field: "rule." + r.Name, Message: err.Error(), Pos: r.Pos}
		}
	}

	b := &Built{Table: table, Net: inet.New(table.Kinds()), Agents: make(map[string]inet.AgentID)}
	if err := p.buildNet(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (p *Program) registerKinds(kinds *inet.Kinds) error {
	for _, k := range p.Kinds {
		if have, ok := kinds.Lookup(k.Name); ok {
			if have.Arity != k.Arity || have.Polarity != k.Polarity {
				return &CompileError{
					Field: "kind." + k.Name,
					Message: fmt.Sprintf("conflicts with library kind (arity %d, polarity %s)",
						have.Arity, have.Polarity),
					Pos: k.Pos,
				}
			}
			continue
		}
		if _, err := kinds.Register(k.Name, k.Arity, inet.WithPolarity(k.Polarity)); err != nil {
			return &CompileError{Field: "kind." + k.Name, Message: err.Error(), Pos: k.Pos}
		}
	}
	return nil
}

func (p *Program) buildNet(b *Built) error {
	decl := p.Net
	n := b.Net
	kinds := n.Kinds()
	fail := func(field, format string, args ...any) error {
		return &CompileError{Field: field, Message: fmt.Sprintf(format, args...), Pos: decl.Pos}
	}

	for _, a := range decl.Agents {
		k, ok := kinds.Lookup(a.Kind)
		if !ok || k.ID == inet.KindFree {
			return fail("net.agents."+a.Name, "unknown kind %q", a.Kind)
		}
		if _, dup := b.Agents[a.Name]; dup {
			return fail("net.agents."+a.Name, "duplicate agent name")
		}
		b.Agents[a.Name] = n.MustCreate(k.ID)
	}

	if len(decl.Nats) > 0 {
		arith, err := library.ArithKinds(kinds)
		if err != nil {
			return fail("net.nat", "numerals need the arith library: %v", err)
		}
		for _, nd := range decl.Nats {
			if _, dup := b.Agents[nd.Name]; dup {
				return fail("net.nat."+nd.Name, "duplicate agent name")
			}
			top, err := arith.Nat(n, nd.Value)
			if err != nil {
				return fail("net.nat."+nd.Name, "%v", err)
			}
			b.Agents[nd.Name] = top.Agent
		}
	}

	free := make(map[string]inet.Port, len(decl.Free))
	for _, name := range decl.Free {
		if _, clash := b.Agents[name]; clash {
			return fail("net.free", "interface port %q shadows an agent", name)
		}
		port, err := n.AddFree(name)
		if err != nil {
			return fail("net.free", "%v", err)
		}
		free[name] = port
	}

	resolve := func(ref string) (inet.Port, error) {
		if port, ok := free[ref]; ok {
			return port, nil
		}
		name, idx, ok := strings.Cut(ref, ".")
		if !ok {
			return inet.Port{}, fmt.Errorf("unknown interface port %q", ref)
		}
		id, known := b.Agents[name]
		if !known {
			return inet.Port{}, fmt.Errorf("unknown agent %q in %q", name, ref)
		}
		i, err := strconv.Atoi(idx)
		if err != nil {
			return inet.Port{}, fmt.Errorf("bad port index in %q", ref)
		}
		return inet.P(id, i), nil
	}

	for i, l := range decl.Links {
		field := fmt.Sprintf("net.links[%d]", i)
		x, err := resolve(l[0])
		if err != nil {
			return fail(field, "%v", err)
		}
		y, err := resolve(l[1])
		if err != nil {
			return fail(field, "%v", err)
		}
		if err := n.Connect(x, y); err != nil {
			return fail(field, "%s -- %s: %v", l[0], l[1], err)
		}
	}

	if err := n.CheckInvariants(); err != nil {
		return fail("net", "%v", err)
	}
	return nil
}

// MissingRules lists the active pairs of the built net for which the table
// has no rule, as "Left >< Right" kind names. Such pairs will be reported
// stuck by a run.
func (b *Built) MissingRules() []string {
	kinds := b.Net.Kinds()
	seen := make(map[string]bool)
	var out []string
	for _, pair := range b.Net.ActivePairs() {
		ka, err := b.Net.KindOf(pair.A)
		if err != nil {
			continue
		}
		kb, err := b.Net.KindOf(pair.B)
		if err != nil {
			continue
		}
		if _, ok := b.Table.Lookup(ka, kb); ok {
			continue
		}
		na, nb := kinds.Name(ka), kinds.Name(kb)
		if nb < na {
			na, nb = nb, na
		}
		key := na + " >< " + nb
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}
