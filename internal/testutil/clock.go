package testutil

import (
	"sync"
	"time"
)

// FakeTime is a manually advanced wall clock for tests. Pass its Now method
// to engine.WithNow to make deadlines and elapsed times reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeTime struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// Epoch is the instant a FakeTime starts at unless told otherwise.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewFakeTime returns a clock frozen at Epoch.
func NewFakeTime() *FakeTime {
	return &FakeTime{now: Epoch}
}

// NewTickingTime returns a clock that advances by step after every reading.
// A deadline of d then expires after d/step readings regardless of load.
func NewTickingTime(step time.Duration) *FakeTime {
	return &FakeTime{now: Epoch, step: step}
}

// Now returns the current fake time.
func (c *FakeTime) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Advance moves the clock forward by d.
func (c *FakeTime) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
