package engine

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ExhaustReason says which limit ended a run early.
type ExhaustReason string

const (
	ReasonMaxSteps  ExhaustReason = "max_steps"
	ReasonDeadline  ExhaustReason = "deadline"
	ReasonCancelled ExhaustReason = "cancelled"
)

// budget enforces a run's step count and wall-clock deadline.
//
// A step reserves its slot before surgery starts, so a run with
// WithMaxSteps(n) performs exactly n rewrites (or fewer if it reaches normal
// form first) no matter how many workers race for the last slot.
type budget struct {
	maxSteps int64
	deadline time.Time
	now      func() time.Time

	steps  atomic.Int64
	reason atomic.Pointer[ExhaustReason]
}

func newBudget(maxSteps int64, deadline time.Time, now func() time.Time) *budget {
	if now == nil {
		now = time.Now
	}
	return &budget{maxSteps: maxSteps, deadline: deadline, now: now}
}

// reserve claims one step. It returns false once the budget is spent.
func (b *budget) reserve() bool {
	if b.reason.Load() != nil {
		return false
	}
	if !b.deadline.IsZero() && !b.now().Before(b.deadline) {
		b.exhaust(ReasonDeadline)
		return false
	}
	n := b.steps.Add(1)
	if b.maxSteps > 0 && n > b.maxSteps {
		b.steps.Add(-1)
		b.exhaust(ReasonMaxSteps)
		return false
	}
	return true
}

// refund returns a reserved step that did not complete.
func (b *budget) refund() {
	b.steps.Add(-1)
}

func (b *budget) exhaust(r ExhaustReason) {
	b.reason.CompareAndSwap(nil, &r)
}

// exhausted returns the reason the budget ran out, if it did.
func (b *budget) exhausted() (ExhaustReason, bool) {
	r := b.reason.Load()
	if r == nil {
		return "", false
	}
	return *r, true
}

func (b *budget) used() int64 {
	return b.steps.Load()
}

// BudgetError reports that a run stopped before reaching normal form.
type BudgetError struct {
	Reason  ExhaustReason
	Steps   int64
	Limit   int64
	Pending int
}

// Error implements the error interface.
func (e *BudgetError) Error() string {
	switch e.Reason {
	case ReasonMaxSteps:
		return fmt.Sprintf("step budget exhausted: %d steps (limit %d), %d active pairs pending", e.Steps, e.Limit, e.Pending)
	default:
		return fmt.Sprintf("run stopped (%s) after %d steps, %d active pairs pending", e.Reason, e.Steps, e.Pending)
	}
}
