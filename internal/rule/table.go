package rule

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/inet/internal/inet"
)

// Entry is one registered rule with the orientation it was registered in.
type Entry struct {
	Left  inet.KindID
	Right inet.KindID
	Rule  Rule
}

// Flipped reports whether an active pair (a, b) must be presented to the
// rule with its sides swapped.
func (e Entry) Flipped(a inet.KindID) bool {
	return a != e.Left
}

type key uint32

func pairKey(a, b inet.KindID) key {
	if b < a {
		a, b = b, a
	}
	return key(uint32(a)<<16 | uint32(b))
}

// Table maps unordered kind pairs to rules.
type Table struct {
	kinds *inet.Kinds

	mu    sync.RWMutex
	rules map[key]Entry
}

// NewTable creates an empty table over kinds.
func NewTable(kinds *inet.Kinds) *Table {
	return &Table{
		kinds: kinds,
		rules: make(map[key]Entry),
	}
}

// Kinds returns the registry the table validates against.
func (t *Table) Kinds() *inet.Kinds { return t.kinds }

// Register adds the rule for the unordered pair {left, right}. The rule
// sees the agent of kind left as Left.
func (t *Table) Register(left, right inet.KindID, r Rule) error {
	lk, err := t.kinds.Get(left)
	if err != nil {
		return err
	}
	rk, err := t.kinds.Get(right)
	if err != nil {
		return err
	}
	if left == inet.KindFree || right == inet.KindFree {
		return &Error{Code: CodeInvalidTemplate, Rule: r.Name(), Detail: "free agents never interact"}
	}
	if lk.Polarity != inet.Neutral && lk.Polarity == rk.Polarity {
		return &Error{
			Code:   CodePolarityMismatch,
			Rule:   r.Name(),
			Detail: fmt.Sprintf("%s and %s are both %s", lk.Name, rk.Name, lk.Polarity),
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	k := pairKey(left, right)
	if existing, ok := t.rules[k]; ok {
		return &Error{
			Code:   CodeDuplicateRule,
			Rule:   r.Name(),
			Detail: fmt.Sprintf("%s >< %s already handled by %s", lk.Name, rk.Name, existing.Rule.Name()),
		}
	}
	t.rules[k] = Entry{Left: left, Right: right, Rule: r}
	return nil
}

// MustRegister is like Register but panics on error.
func (t *Table) MustRegister(left, right inet.KindID, r Rule) {
	if err := t.Register(left, right, r); err != nil {
		panic(err)
	}
}

// Lookup returns the rule for the unordered pair {a, b}. A missing rule is
// not an error here; the engine reports the pair as stuck.
func (t *Table) Lookup(a, b inet.KindID) (Entry, bool) {
	t.mu.RLock()
	e, ok := t.rules[pairKey(a, b)]
	t.mu.RUnlock()
	return e, ok
}

// Len returns the number of registered rules.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rules)
}

// Entries returns all rules ordered by (left, right) kind name.
func (t *Table) Entries() []Entry {
	t.mu.RLock()
	out := make([]Entry, 0, len(t.rules))
	for _, e := range t.rules {
		out = append(out, e)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		li, lj := t.kinds.Name(out[i].Left), t.kinds.Name(out[j].Left)
		if li != lj {
			return li < lj
		}
		return t.kinds.Name(out[i].Right) < t.kinds.Name(out[j].Right)
	})
	return out
}
