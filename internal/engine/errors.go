package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/inet/internal/inet"
)

// RunErrorCode categorizes fatal run errors.
type RunErrorCode string

const (
	// ErrCodeFatalRewrite indicates a rule failed or misused the rewriter.
	// The footprint was rolled back before the run stopped.
	ErrCodeFatalRewrite RunErrorCode = "FATAL_REWRITE"

	// ErrCodeInvariant indicates the net failed its post-run invariant check.
	ErrCodeInvariant RunErrorCode = "INVARIANT_VIOLATED"

	// ErrCodeRollback indicates a rollback itself failed; the net must be
	// treated as corrupt.
	ErrCodeRollback RunErrorCode = "ROLLBACK_FAILED"
)

// RunError aborts a run. The net is left in its last known-good state
// except for ErrCodeRollback.
type RunError struct {
	Code  RunErrorCode
	Rule  string
	Pair  inet.Pair
	Kinds [2]string
	Err   error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Rule != "" {
		fmt.Fprintf(&b, " (rule=%s", e.Rule)
		if e.Kinds[0] != "" {
			fmt.Fprintf(&b, ", pair=%s><%s", e.Kinds[0], e.Kinds[1])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *RunError) Unwrap() error { return e.Err }

// IsFatal returns true if err is (or wraps) a RunError.
func IsFatal(err error) bool {
	var re *RunError
	return errors.As(err, &re)
}

// StuckPair is an active pair with no rule, reported by kind name.
type StuckPair struct {
	Pair  inet.Pair
	Left  string
	Right string
}

func (p StuckPair) String() string {
	return fmt.Sprintf("%s><%s (%s)", p.Left, p.Right, p.Pair)
}

// StuckError reports active pairs no rule matches.
type StuckError struct {
	Pairs []StuckPair
}

// Error implements the error interface.
func (e *StuckError) Error() string {
	names := make([]string, len(e.Pairs))
	for i, p := range e.Pairs {
		names[i] = p.Left + "><" + p.Right
	}
	return fmt.Sprintf("net is stuck: %d active pair(s) without a rule: %s", len(e.Pairs), strings.Join(names, ", "))
}

// IsStuck returns true if err is (or wraps) a StuckError.
func IsStuck(err error) bool {
	var se *StuckError
	return errors.As(err, &se)
}

// IsBudgetExhausted returns true if err is (or wraps) a BudgetError.
func IsBudgetExhausted(err error) bool {
	var be *BudgetError
	return errors.As(err, &be)
}
