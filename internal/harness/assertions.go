package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/library"
)

// AssertionError is returned when an assertion fails.
// It includes the rule firings to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Rules    map[string]int64
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Rules) > 0 {
		names := make([]string, 0, len(e.Rules))
		for name := range e.Rules {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(&buf, "\nRule firings:\n")
		for _, name := range names {
			fmt.Fprintf(&buf, "  %s: %d\n", name, e.Rules[name])
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against one run and returns
// the failure messages.
func EvaluateAssertions(assertions []Assertion, out *runOutput) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(a, out); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(a Assertion, out *runOutput) error {
	rules := out.res.Stats.Rules
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Rules: rules}
	}

	switch a.Type {
	case AssertRuleFired:
		if rules[a.Rule] == 0 {
			return fail(fmt.Sprintf("rule %s fired", a.Rule), "never fired")
		}
	case AssertRuleCount:
		if got := rules[a.Rule]; got != int64(a.Count) {
			return fail(fmt.Sprintf("rule %s fired %d times", a.Rule, a.Count), fmt.Sprintf("%d times", got))
		}
	case AssertKindCount:
		if got := out.snap.Count(a.Kind); got != a.Count {
			return fail(fmt.Sprintf("%d %s agents", a.Count, a.Kind), fmt.Sprintf("%d", got))
		}
	case AssertStuckCount:
		if got := len(out.res.Stuck); got != a.Count {
			return fail(fmt.Sprintf("%d stuck pairs", a.Count), fmt.Sprintf("%d", got))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// checkExpect compares one run against the scenario's expectations.
func checkExpect(exp Expect, out *runOutput) []string {
	var errs []string
	if got := out.summary.Status; got != exp.Status {
		msg := fmt.Sprintf("status: expected %s, got %s", exp.Status, got)
		if err := out.res.Err(); err != nil {
			msg += " (" + err.Error() + ")"
		}
		errs = append(errs, msg)
	}
	if exp.Steps != nil && out.summary.Steps != *exp.Steps {
		errs = append(errs, fmt.Sprintf("steps: expected %d, got %d", *exp.Steps, out.summary.Steps))
	}
	if exp.Agents != nil && out.summary.Agents != *exp.Agents {
		errs = append(errs, fmt.Sprintf("agents: expected %d, got %d", *exp.Agents, out.summary.Agents))
	}

	for _, name := range sortedKeys(exp.Interface) {
		want := exp.Interface[name]
		got, ok := describePeer(out.snap, name)
		if !ok {
			errs = append(errs, fmt.Sprintf("interface %s: no such port", name))
			continue
		}
		if got != want {
			errs = append(errs, fmt.Sprintf("interface %s: expected %s, got %s", name, want, got))
		}
	}

	if len(exp.Nat) > 0 {
		arith, err := library.ArithKinds(out.built.Net.Kinds())
		if err != nil {
			return append(errs, fmt.Sprintf("nat: %v", err))
		}
		for _, name := range sortedKeys(exp.Nat) {
			port, ok := out.built.Net.Free(name)
			if !ok {
				errs = append(errs, fmt.Sprintf("nat %s: no such port", name))
				continue
			}
			got, err := arith.ReadNat(out.built.Net, port)
			if err != nil {
				errs = append(errs, fmt.Sprintf("nat %s: %v", name, err))
				continue
			}
			if want := exp.Nat[name]; got != want {
				errs = append(errs, fmt.Sprintf("nat %s: expected %d, got %d", name, want, got))
			}
		}
	}
	return errs
}

// describePeer renders what interface port name is wired to: "<Kind>.<port>"
// for an agent port or "free:<name>" for another interface port.
func describePeer(snap *inet.Snapshot, name string) (string, bool) {
	for _, iv := range snap.Interface {
		if iv.Name != name {
			continue
		}
		if a, ok := snap.Agent(iv.Peer.Agent); ok {
			return fmt.Sprintf("%s.%d", a.Kind, iv.Peer.Index), true
		}
		for _, other := range snap.Interface {
			if other.Agent == iv.Peer.Agent {
				return "free:" + other.Name, true
			}
		}
		return "-", true
	}
	return "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
