package rule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/inet/internal/inet"
)

// AgentSpec declares one agent a template creates.
type AgentSpec struct {
	Name string
	Kind string
}

// Link is a pair of port references, each "left.N", "right.N" or
// "<agent>.<port>".
type Link [2]string

type ref struct {
	boundary bool
	side     Side
	agent    int
	port     int
}

type templateAgent struct {
	name string
	kind inet.Kind
}

// Template is a declarative rule: the agents to create and the wires to
// lay between them and the boundary. It is checked once at construction,
// so Rewrite can only fail if the engine rejects a created agent.
type Template struct {
	name   string
	left   inet.Kind
	right  inet.Kind
	agents []templateAgent
	links  [][2]ref
}

// NewTemplate compiles a template rule for left >< right.
func NewTemplate(kinds *inet.Kinds, name, left, right string, agents []AgentSpec, links []Link) (*Template, error) {
	fail := func(format string, args ...any) (*Template, error) {
		return nil, &Error{Code: CodeInvalidTemplate, Rule: name, Detail: fmt.Sprintf(format, args...)}
	}

	lk, ok := kinds.Lookup(left)
	if !ok || lk.ID == inet.KindFree {
		return fail("unknown kind %q", left)
	}
	rk, ok := kinds.Lookup(right)
	if !ok || rk.ID == inet.KindFree {
		return fail("unknown kind %q", right)
	}

	t := &Template{name: name, left: lk, right: rk}
	byName := make(map[string]int, len(agents))
	for _, a := range agents {
		if a.Name == "" || a.Name == "left" || a.Name == "right" || strings.Contains(a.Name, ".") {
			return fail("invalid agent name %q", a.Name)
		}
		if _, dup := byName[a.Name]; dup {
			return fail("agent %q declared twice", a.Name)
		}
		k, ok := kinds.Lookup(a.Kind)
		if !ok || k.ID == inet.KindFree {
			return fail("agent %q: unknown kind %q", a.Name, a.Kind)
		}
		byName[a.Name] = len(t.agents)
		t.agents = append(t.agents, templateAgent{name: a.Name, kind: k})
	}

	used := make(map[ref]int)
	for _, l := range links {
		var pair [2]ref
		for i, s := range l {
			r, err := t.parseRef(s, byName)
			if err != nil {
				return fail("%v", err)
			}
			used[r]++
			pair[i] = r
		}
		t.links = append(t.links, pair)
	}

	check := func(r ref, label string) error {
		switch used[r] {
		case 1:
			return nil
		case 0:
			return fmt.Errorf("%s is never linked", label)
		default:
			return fmt.Errorf("%s is linked %d times", label, used[r])
		}
	}
	for i := 1; i < lk.Arity; i++ {
		if err := check(ref{boundary: true, side: Left, port: i}, fmt.Sprintf("left.%d", i)); err != nil {
			return fail("%v", err)
		}
	}
	for i := 1; i < rk.Arity; i++ {
		if err := check(ref{boundary: true, side: Right, port: i}, fmt.Sprintf("right.%d", i)); err != nil {
			return fail("%v", err)
		}
	}
	for ai, a := range t.agents {
		for p := 0; p < a.kind.Arity; p++ {
			if err := check(ref{agent: ai, port: p}, fmt.Sprintf("%s.%d", a.name, p)); err != nil {
				return fail("%v", err)
			}
		}
	}
	return t, nil
}

func (t *Template) parseRef(s string, byName map[string]int) (ref, error) {
	dot := strings.LastIndexByte(s, '.')
	if dot <= 0 || dot == len(s)-1 {
		return ref{}, fmt.Errorf("malformed port reference %q", s)
	}
	name := s[:dot]
	port, err := strconv.Atoi(s[dot+1:])
	if err != nil || port < 0 {
		return ref{}, fmt.Errorf("malformed port index in %q", s)
	}

	switch name {
	case "left", "right":
		side, kind := Left, t.left
		if name == "right" {
			side, kind = Right, t.right
		}
		if port == 0 || port >= kind.Arity {
			return ref{}, fmt.Errorf("%q: %s has auxiliary ports 1..%d", s, kind.Name, kind.Arity-1)
		}
		return ref{boundary: true, side: side, port: port}, nil
	}

	ai, ok := byName[name]
	if !ok {
		return ref{}, fmt.Errorf("%q: undeclared agent %q", s, name)
	}
	if port >= t.agents[ai].kind.Arity {
		return ref{}, fmt.Errorf("%q: %s has ports 0..%d", s, t.agents[ai].kind.Name, t.agents[ai].kind.Arity-1)
	}
	return ref{agent: ai, port: port}, nil
}

// Name returns the rule's name.
func (t *Template) Name() string { return t.name }

// Left returns the kind the template calls left.
func (t *Template) Left() inet.KindID { return t.left.ID }

// Right returns the kind the template calls right.
func (t *Template) Right() inet.KindID { return t.right.ID }

// Rewrite creates the template's agents and lays its links.
func (t *Template) Rewrite(rw Rewriter) error {
	ids := make([]inet.AgentID, len(t.agents))
	for i, a := range t.agents {
		id, err := rw.New(a.kind.ID)
		if err != nil {
			return err
		}
		ids[i] = id
	}
	term := func(r ref) Term {
		if r.boundary {
			return rw.Aux(r.side, r.port)
		}
		return rw.Port(ids[r.agent], r.port)
	}
	for _, l := range t.links {
		if err := rw.Link(term(l[0]), term(l[1])); err != nil {
			return err
		}
	}
	return nil
}

// Register adds the template to table under its own orientation.
func (t *Template) Register(table *Table) error {
	return table.Register(t.left.ID, t.right.ID, t)
}
