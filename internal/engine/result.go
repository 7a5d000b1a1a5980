package engine

import (
	"maps"
	"time"

	"github.com/roach88/inet/internal/inet"
)

// Status is the terminal state of a run.
type Status int

const (
	NormalForm Status = iota
	Stuck
	BudgetExhausted
	Aborted
)

func (s Status) String() string {
	switch s {
	case NormalForm:
		return "normal_form"
	case Stuck:
		return "stuck"
	case BudgetExhausted:
		return "budget_exhausted"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, bool) {
	for st := NormalForm; st <= Aborted; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

// Stats counts what a run did.
type Stats struct {
	Rules    map[string]int64
	Created  int64
	Erased   int64
	Deferred int64
	Stale    int64
	Stuck    int64
}

func (s *Stats) fired(name string, created int) {
	if s.Rules == nil {
		s.Rules = make(map[string]int64)
	}
	s.Rules[name]++
	s.Created += int64(created)
	s.Erased += 2
}

func (s *Stats) merge(o *Stats) {
	if len(o.Rules) > 0 && s.Rules == nil {
		s.Rules = make(map[string]int64, len(o.Rules))
	}
	for k, v := range o.Rules {
		s.Rules[k] += v
	}
	s.Created += o.Created
	s.Erased += o.Erased
	s.Deferred += o.Deferred
	s.Stale += o.Stale
	s.Stuck += o.Stuck
}

func (s Stats) clone() Stats {
	s.Rules = maps.Clone(s.Rules)
	return s
}

// Result is the outcome of a run. Net is always a valid net: the normal
// form, the stuck net, the partially reduced net, or the last known-good
// net before an abort.
type Result struct {
	Status  Status
	Net     *inet.Net
	Steps   int64
	Stuck   []StuckPair
	Pending int
	Limit   int64
	Reason  ExhaustReason
	Elapsed time.Duration
	Stats   Stats
}

// Err describes a non-normal-form result as an error, or returns nil.
// Aborted runs report their error from Run itself.
func (r *Result) Err() error {
	switch r.Status {
	case Stuck:
		return &StuckError{Pairs: r.Stuck}
	case BudgetExhausted:
		return &BudgetError{Reason: r.Reason, Steps: r.Steps, Limit: r.Limit, Pending: r.Pending}
	default:
		return nil
	}
}
