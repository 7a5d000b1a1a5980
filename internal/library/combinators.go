package library

import (
	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/rule"
)

// Combinators holds the kinds of Lafont's interaction combinators:
// constructor and duplicator (arity 3) and eraser (arity 1).
type Combinators struct {
	Con inet.KindID
	Dup inet.KindID
	Era inet.KindID
}

// RegisterCombinators registers the kinds and the six combinator rules:
// annihilation of equal kinds, commutation of Con with Dup, and erasure.
func RegisterCombinators(table *rule.Table) (*Combinators, error) {
	kinds := table.Kinds()
	var c Combinators
	var err error
	if c.Con, err = ensureKind(kinds, KindCon, 3, inet.Neutral); err != nil {
		return nil, err
	}
	if c.Dup, err = ensureKind(kinds, KindDup, 3, inet.Neutral); err != nil {
		return nil, err
	}
	if c.Era, err = ensureKind(kinds, KindEra, 1, inet.Neutral); err != nil {
		return nil, err
	}

	regs := []struct {
		left, right inet.KindID
		r           rule.Rule
	}{
		{c.Con, c.Con, rule.Annihilate("con-con")},
		{c.Dup, c.Dup, rule.Annihilate("dup-dup")},
		{c.Era, c.Era, rule.Annihilate("era-era")},
		{c.Con, c.Era, rule.Erase("con-era", c.Era, rule.Right)},
		{c.Dup, c.Era, rule.Erase("dup-era", c.Era, rule.Right)},
	}
	for _, reg := range regs {
		if err := table.Register(reg.left, reg.right, reg.r); err != nil {
			return nil, err
		}
	}

	err = registerTemplate(table, "con-dup", KindCon, KindDup,
		[]rule.AgentSpec{
			{Name: "d1", Kind: KindDup}, {Name: "d2", Kind: KindDup},
			{Name: "c1", Kind: KindCon}, {Name: "c2", Kind: KindCon},
		},
		[]rule.Link{
			{"d1.0", "left.1"}, {"d2.0", "left.2"},
			{"c1.0", "right.1"}, {"c2.0", "right.2"},
			{"d1.1", "c1.1"}, {"d1.2", "c2.1"},
			{"d2.1", "c1.2"}, {"d2.2", "c2.2"},
		})
	if err != nil {
		return nil, err
	}
	return &c, nil
}
