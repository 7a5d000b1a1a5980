package inet

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// KindID is a dense identifier for an agent kind within one Kinds registry.
type KindID uint16

// KindFree is the reserved kind of Free pseudo-agents. A Free agent has a
// single port; the wire attached to it is a free wire of the net, and the
// agent itself is never part of an active pair.
const KindFree KindID = 0

// FreeName is the registered name of KindFree.
const FreeName = "$free"

// Polarity is an optional typing discipline on kinds. Rules may only be
// declared between kinds of opposite polarity unless one side is Neutral.
type Polarity int8

const (
	Neutral Polarity = iota
	Positive
	Negative
)

func (p Polarity) String() string {
	switch p {
	case Positive:
		return "+"
	case Negative:
		return "-"
	default:
		return "0"
	}
}

// ParsePolarity parses the String form of a polarity. The words
// "positive", "negative" and "neutral" are accepted as well.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "", "0", "neutral":
		return Neutral, nil
	case "+", "positive":
		return Positive, nil
	case "-", "negative":
		return Negative, nil
	}
	return Neutral, fmt.Errorf("invalid polarity %q", s)
}

// Kind describes an agent kind. Arity counts the principal port, so an
// agent of arity n has ports 0 (principal) through n-1.
type Kind struct {
	ID       KindID
	Name     string
	Arity    int
	Polarity Polarity
}

// Aux returns the number of auxiliary ports.
func (k Kind) Aux() int { return k.Arity - 1 }

// KindOption customizes a kind at registration.
type KindOption func(*Kind)

// WithPolarity sets the kind's polarity.
func WithPolarity(p Polarity) KindOption {
	return func(k *Kind) { k.Polarity = p }
}

// Kinds is the registry of agent kinds: name -> (id, arity).
//
// Registration normally completes before reduction starts, but lookups are
// safe to run concurrently with late registration.
type Kinds struct {
	mu     sync.RWMutex
	byID   []Kind
	byName map[string]KindID
}

// NewKinds returns a registry holding only the Free kind.
func NewKinds() *Kinds {
	k := &Kinds{byName: make(map[string]KindID)}
	k.byID = append(k.byID, Kind{ID: KindFree, Name: FreeName, Arity: 1})
	k.byName[FreeName] = KindFree
	return k
}

// Register adds a kind with the given total arity (principal included).
// Names are NFC-normalized; registering an existing name fails with
// ErrDuplicateKind.
func (k *Kinds) Register(name string, arity int, opts ...KindOption) (KindID, error) {
	name = norm.NFC.String(name)
	if name == "" || name[0] == '$' {
		return 0, &Error{Code: CodeInvalidKind, Op: "register", Detail: fmt.Sprintf("invalid kind name %q", name)}
	}
	if arity < 1 {
		return 0, &Error{Code: CodeInvalidKind, Op: "register", Detail: fmt.Sprintf("kind %q: arity must be >= 1, got %d", name, arity)}
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.byName[name]; ok {
		return 0, &Error{Code: CodeDuplicateKind, Op: "register", Detail: name}
	}
	if len(k.byID) > int(^KindID(0)) {
		return 0, &Error{Code: CodeInvalidKind, Op: "register", Detail: "too many kinds"}
	}
	kind := Kind{ID: KindID(len(k.byID)), Name: name, Arity: arity}
	for _, opt := range opts {
		opt(&kind)
	}
	k.byID = append(k.byID, kind)
	k.byName[name] = kind.ID
	return kind.ID, nil
}

// MustRegister is like Register but panics on error.
// Intended for package-level kind tables.
func (k *Kinds) MustRegister(name string, arity int, opts ...KindOption) KindID {
	id, err := k.Register(name, arity, opts...)
	if err != nil {
		panic(err)
	}
	return id
}

// Get returns the kind with the given id.
func (k *Kinds) Get(id KindID) (Kind, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if int(id) >= len(k.byID) {
		return Kind{}, &Error{Code: CodeUnknownKind, Op: "kind", Detail: fmt.Sprintf("id %d", id)}
	}
	return k.byID[id], nil
}

// Lookup returns the kind registered under name.
func (k *Kinds) Lookup(name string) (Kind, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	id, ok := k.byName[norm.NFC.String(name)]
	if !ok {
		return Kind{}, false
	}
	return k.byID[id], true
}

// Name returns the name of id, or a placeholder for unknown ids.
func (k *Kinds) Name(id KindID) string {
	kind, err := k.Get(id)
	if err != nil {
		return fmt.Sprintf("?%d", id)
	}
	return kind.Name
}

// All returns the user-registered kinds (Free excluded) sorted by name.
func (k *Kinds) All() []Kind {
	k.mu.RLock()
	out := make([]Kind, 0, len(k.byID)-1)
	out = append(out, k.byID[1:]...)
	k.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
