package query

// Step fields a predicate can compare.
const (
	FieldRule   = "rule"
	FieldLeft   = "left_kind"
	FieldRight  = "right_kind"
	FieldWorker = "worker"
)

// Predicate is a filter on step rows.
type Predicate interface {
	predicateNode()
}

// Select is a query over one run's steps.
type Select struct {
	Filter Predicate // nil matches every step
	Limit  int       // 0 means no limit
}

// Equals matches steps whose field equals Value. Value is a string for
// rule and kind fields and an int for worker.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// HasKind matches steps where either side of the redex has the kind.
type HasKind struct {
	Kind string
}

func (HasKind) predicateNode() {}

// SeqRange matches steps with From <= seq <= To. A zero bound is open.
type SeqRange struct {
	From int64
	To   int64
}

func (SeqRange) predicateNode() {}

// And matches steps that satisfy every predicate. An empty And matches
// everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Conj returns the conjunction of the non-nil predicates, or nil when there
// are none.
func Conj(preds ...Predicate) Predicate {
	var out []Predicate
	for _, p := range preds {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return And{Predicates: out}
	}
}
