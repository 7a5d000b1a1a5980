package engine

import "sync/atomic"

// Clock hands out step sequence numbers.
//
// Every committed rewrite is stamped with a strictly increasing seq, which
// orders the trace even when several workers commit concurrently. A replay
// of a deterministic run produces the same seq for the same rewrite.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
// Used to continue numbering across Step calls and resumed runs.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
