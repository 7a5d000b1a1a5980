package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/ir"
	"github.com/roach88/inet/internal/rule"
)

// Program is a compiled net program: the kinds and template rules it
// declares, the rule libraries it pulls in, and the initial net.
type Program struct {
	Path   string
	Source []byte
	Use    []string
	Kinds  []KindDecl
	Rules  []RuleDecl
	Net    NetDecl
}

// KindDecl declares an agent kind.
type KindDecl struct {
	Name     string
	Arity    int
	Polarity inet.Polarity
	Pos      token.Pos
}

// RuleDecl declares a template rule for Left >< Right.
type RuleDecl struct {
	Name   string
	Left   string
	Right  string
	Agents []rule.AgentSpec
	Links  []rule.Link
	Pos    token.Pos
}

// NatDecl declares a unary numeral whose principal port is referenced as
// "<name>.0".
type NatDecl struct {
	Name  string
	Value int
}

// NetDecl is the initial net. Links reference agent ports as
// "<agent>.<port>" and interface ports by bare name.
type NetDecl struct {
	Agents []rule.AgentSpec
	Nats   []NatDecl
	Free   []string
	Links  []rule.Link
	Pos    token.Pos
}

// Hash identifies the program source. Empty when the program was compiled
// from a value without source.
func (p *Program) Hash() string {
	if p.Source == nil {
		return ""
	}
	return ir.ProgramHash(p.Source)
}

// Compile parses a CUE value into a Program. The value is the top-level
// struct of a program file:
//
//	use: ["arith"]
//	kind: Pair: {arity: 3, polarity: "+"}
//	rule: "pair-era": {left: "Pair", right: "Era", agents: {...}, links: [...]}
//	net: {agents: {...}, nat: {x: 2}, free: ["out"], links: [["x.0", "out"]]}
func Compile(v cue.Value) (*Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Program{}
	var err error
	if p.Use, err = stringList(v, "use"); err != nil {
		return nil, err
	}
	if p.Kinds, err = parseKinds(v); err != nil {
		return nil, err
	}
	if p.Rules, err = parseRules(v); err != nil {
		return nil, err
	}
	if p.Net, err = parseNet(v); err != nil {
		return nil, err
	}
	return p, nil
}

// parseKinds accepts either `Name: arity` or `Name: {arity, polarity}`.
func parseKinds(v cue.Value) ([]KindDecl, error) {
	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, nil
	}
	iter, err := kindVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var kinds []KindDecl
	for iter.Next() {
		name := iter.Label()
		kv := iter.Value()
		decl := KindDecl{Name: name, Pos: kv.Pos()}

		if n, err := kv.Int64(); err == nil {
			decl.Arity = int(n)
		} else {
			arityVal := kv.LookupPath(cue.ParsePath("arity"))
			if !arityVal.Exists() {
				return nil, &CompileError{
					Field:   "kind." + name,
					Message: "arity is required",
					Pos:     kv.Pos(),
				}
			}
			n, err := arityVal.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			decl.Arity = int(n)

			if polVal := kv.LookupPath(cue.ParsePath("polarity")); polVal.Exists() {
				s, err := polVal.String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				if decl.Polarity, err = inet.ParsePolarity(s); err != nil {
					return nil, &CompileError{Field: "kind." + name + ".polarity", Message: err.Error(), Pos: polVal.Pos()}
				}
			}
		}

		if decl.Arity < 1 {
			return nil, &CompileError{
				Field:   "kind." + name,
				Message: fmt.Sprintf("arity must be at least 1, got %d", decl.Arity),
				Pos:     kv.Pos(),
			}
		}
		kinds = append(kinds, decl)
	}
	return kinds, nil
}

func parseRules(v cue.Value) ([]RuleDecl, error) {
	ruleVal := v.LookupPath(cue.ParsePath("rule"))
	if !ruleVal.Exists() {
		return nil, nil
	}
	iter, err := ruleVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []RuleDecl
	for iter.Next() {
		name := iter.Label()
		rv := iter.Value()
		decl := RuleDecl{Name: name, Pos: rv.Pos()}

		for _, f := range []struct {
			field string
			dst   *string
		}{{"left", &decl.Left}, {"right", &decl.Right}} {
			fv := rv.LookupPath(cue.ParsePath(f.field))
			if !fv.Exists() {
				return nil, &CompileError{
					Field:   fmt.Sprintf("rule.%s.%s", name, f.field),
					Message: f.field + " kind is required",
					Pos:     rv.Pos(),
				}
			}
			if *f.dst, err = fv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}

		if decl.Agents, err = agentMap(rv, "agents"); err != nil {
			return nil, err
		}
		if decl.Links, err = linkList(rv, "links"); err != nil {
			return nil, err
		}
		rules = append(rules, decl)
	}
	return rules, nil
}

func parseNet(v cue.Value) (NetDecl, error) {
	var decl NetDecl
	netVal := v.LookupPath(cue.ParsePath("net"))
	if !netVal.Exists() {
		return decl, nil
	}
	decl.Pos = netVal.Pos()

	var err error
	if decl.Agents, err = agentMap(netVal, "agents"); err != nil {
		return decl, err
	}
	if decl.Free, err = stringList(netVal, "free"); err != nil {
		return decl, err
	}
	if decl.Links, err = linkList(netVal, "links"); err != nil {
		return decl, err
	}

	natVal := netVal.LookupPath(cue.ParsePath("nat"))
	if natVal.Exists() {
		iter, err := natVal.Fields()
		if err != nil {
			return decl, formatCUEError(err)
		}
		for iter.Next() {
			n, err := iter.Value().Int64()
			if err != nil {
				return decl, formatCUEError(err)
			}
			if n < 0 {
				return decl, &CompileError{
					Field:   "net.nat." + iter.Label(),
					Message: fmt.Sprintf("numeral must be non-negative, got %d", n),
					Pos:     iter.Value().Pos(),
				}
			}
			decl.Nats = append(decl.Nats, NatDecl{Name: iter.Label(), Value: int(n)})
		}
	}
	return decl, nil
}

// agentMap reads a struct of local agent name to kind name.
func agentMap(v cue.Value, field string) ([]rule.AgentSpec, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []rule.AgentSpec
	for iter.Next() {
		kind, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, rule.AgentSpec{Name: iter.Label(), Kind: kind})
	}
	return out, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// linkList reads a list of two-element string lists.
func linkList(v cue.Value, field string) ([]rule.Link, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []rule.Link
	for i := 0; iter.Next(); i++ {
		var pair []string
		if err := iter.Value().Decode(&pair); err != nil {
			return nil, formatCUEError(err)
		}
		if len(pair) != 2 {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: fmt.Sprintf("link must have two ends, got %d", len(pair)),
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, rule.Link{pair[0], pair[1]})
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
