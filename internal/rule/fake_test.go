package rule

import (
	"fmt"

	"github.com/roach88/inet/internal/inet"
)

// fakeRewriter records what a rule asks for without touching a net.
type fakeRewriter struct {
	kinds  [2]inet.Kind
	next   uint32
	made   []inet.KindID
	links  []string
	failOn inet.KindID
}

func (f *fakeRewriter) Kind(side Side) inet.KindID { return f.kinds[side].ID }
func (f *fakeRewriter) Arity(side Side) int        { return f.kinds[side].Arity }

func (f *fakeRewriter) Aux(side Side, i int) Term { return Boundary(side, i) }

func (f *fakeRewriter) New(kind inet.KindID) (inet.AgentID, error) {
	if f.failOn != 0 && kind == f.failOn {
		return inet.AgentID{}, fmt.Errorf("refused kind %d", kind)
	}
	f.next++
	f.made = append(f.made, kind)
	return inet.AgentID{Slot: f.next, Gen: 1}, nil
}

func (f *fakeRewriter) Port(agent inet.AgentID, i int) Term { return PortOf(inet.P(agent, i)) }

func (f *fakeRewriter) Link(x, y Term) error {
	f.links = append(f.links, x.String()+"~"+y.String())
	return nil
}
