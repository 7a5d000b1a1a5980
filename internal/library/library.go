// Package library provides ready-made rule sets: the interaction
// combinators and unary natural-number arithmetic.
//
// Rule sets share kinds by name. Loading both registers Dup and Era once
// and each set adds only the rules for pairs it owns, so the union never
// holds two rules for one pair.
package library

import (
	"fmt"
	"sort"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/rule"
)

// Kind names shared between rule sets.
const (
	KindCon  = "Con"
	KindDup  = "Dup"
	KindEra  = "Era"
	KindZ    = "Z"
	KindS    = "S"
	KindAdd  = "Add"
	KindSub  = "Sub"
	KindSub0 = "Sub0"
)

// ensureKind returns the kind registered under name, registering it if
// needed. An existing kind with a different arity is an error.
func ensureKind(kinds *inet.Kinds, name string, arity int, pol inet.Polarity) (inet.KindID, error) {
	if k, ok := kinds.Lookup(name); ok {
		if k.Arity != arity {
			return 0, fmt.Errorf("kind %s already registered with arity %d, need %d", name, k.Arity, arity)
		}
		return k.ID, nil
	}
	return kinds.Register(name, arity, inet.WithPolarity(pol))
}

func registerTemplate(table *rule.Table, name, left, right string, agents []rule.AgentSpec, links []rule.Link) error {
	t, err := rule.NewTemplate(table.Kinds(), name, left, right, agents, links)
	if err != nil {
		return err
	}
	return t.Register(table)
}

var loaders = map[string]func(*rule.Table) error{
	"combinators": func(t *rule.Table) error {
		_, err := RegisterCombinators(t)
		return err
	},
	"arith": func(t *rule.Table) error {
		_, err := RegisterArith(t)
		return err
	},
}

// Names returns the names accepted by Load.
func Names() []string {
	out := make([]string, 0, len(loaders))
	for name := range loaders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load registers the named rule sets into table.
func Load(table *rule.Table, names ...string) error {
	for _, name := range names {
		load, ok := loaders[name]
		if !ok {
			return fmt.Errorf("unknown rule library %q (have %v)", name, Names())
		}
		if err := load(table); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}
