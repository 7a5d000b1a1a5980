package rule

import (
	"fmt"

	"github.com/roach88/inet/internal/inet"
)

// Side selects one agent of the active pair, in the orientation the rule
// was registered with.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// TermKind says what a Term refers to.
type TermKind uint8

const (
	TermInvalid TermKind = iota
	// TermBoundary is the far end of a wire that was attached to an
	// auxiliary port of the active pair.
	TermBoundary
	// TermPort is a port of an agent created by the rule.
	TermPort
)

// Term is something a rule can link: a boundary endpoint or a new port.
type Term struct {
	Kind  TermKind
	Side  Side
	Index int
	Port  inet.Port
}

// Boundary returns the endpoint behind auxiliary port index of side.
func Boundary(side Side, index int) Term {
	return Term{Kind: TermBoundary, Side: side, Index: index}
}

// PortOf returns the term for port p of a new agent.
func PortOf(p inet.Port) Term {
	return Term{Kind: TermPort, Port: p}
}

func (t Term) String() string {
	switch t.Kind {
	case TermBoundary:
		return fmt.Sprintf("%s.%d", t.Side, t.Index)
	case TermPort:
		return t.Port.String()
	default:
		return "<invalid>"
	}
}

// Rewriter is the view a rule has of one reduction.
//
// Every boundary endpoint must be linked exactly once, and every port of
// every agent created through New must be linked exactly once, before the
// rule returns. Violations abort the rewrite.
type Rewriter interface {
	// Kind returns the kind of the agent on side.
	Kind(side Side) inet.KindID
	// Arity returns the total arity of the agent on side.
	Arity(side Side) int
	// Aux returns the boundary endpoint behind auxiliary port i (1-based,
	// matching the port index) of side.
	Aux(side Side, i int) Term
	// New creates a replacement agent.
	New(kind inet.KindID) (inet.AgentID, error)
	// Port returns the term for port i of an agent created by New.
	Port(agent inet.AgentID, i int) Term
	// Link joins two terms with a wire.
	Link(x, y Term) error
}

// Rule rewrites one active pair.
type Rule interface {
	Name() string
	Rewrite(rw Rewriter) error
}

// Func adapts an ordinary function to the Rule interface.
type Func struct {
	name string
	fn   func(rw Rewriter) error
}

// New returns a Rule backed by fn.
func New(name string, fn func(rw Rewriter) error) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the rule's name.
func (f *Func) Name() string { return f.name }

// Rewrite calls the wrapped function.
func (f *Func) Rewrite(rw Rewriter) error { return f.fn(rw) }

// Annihilate returns the rule for two agents of equal arity that cancel,
// joining their auxiliary ports pairwise: left.i with right.i.
func Annihilate(name string) *Func {
	return New(name, func(rw Rewriter) error {
		if rw.Arity(Left) != rw.Arity(Right) {
			return &Error{Code: CodeInvalidTerm, Rule: name, Detail: "annihilation needs equal arities"}
		}
		for i := 1; i < rw.Arity(Left); i++ {
			if err := rw.Link(rw.Aux(Left, i), rw.Aux(Right, i)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Erase returns the rule where the eraser on side absorbs the other agent
// and propagates one fresh eraser to each of its auxiliary ports.
func Erase(name string, eraser inet.KindID, side Side) *Func {
	other := Right
	if side == Right {
		other = Left
	}
	return New(name, func(rw Rewriter) error {
		for i := 1; i < rw.Arity(other); i++ {
			e, err := rw.New(eraser)
			if err != nil {
				return err
			}
			if err := rw.Link(rw.Port(e, 0), rw.Aux(other, i)); err != nil {
				return err
			}
		}
		return nil
	})
}
