package engine

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/library"
	"github.com/roach88/inet/internal/rule"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture is a fresh net over the combinator and arithmetic rule sets.
type fixture struct {
	kinds *inet.Kinds
	table *rule.Table
	net   *inet.Net
	comb  *library.Combinators
	arith *library.Arith
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kinds := inet.NewKinds()
	table := rule.NewTable(kinds)
	comb, err := library.RegisterCombinators(table)
	require.NoError(t, err)
	arith, err := library.RegisterArith(table)
	require.NoError(t, err)
	return &fixture{
		kinds: kinds,
		table: table,
		net:   inet.New(kinds),
		comb:  comb,
		arith: arith,
	}
}

func (f *fixture) engine(opts ...Option) *Engine {
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	return New(f.net, f.table, opts...)
}

func (f *fixture) free(t *testing.T, name string) inet.Port {
	t.Helper()
	p, err := f.net.AddFree(name)
	require.NoError(t, err)
	return p
}

func (f *fixture) nat(t *testing.T, v int) inet.Port {
	t.Helper()
	p, err := f.arith.Nat(f.net, v)
	require.NoError(t, err)
	return p
}

func (f *fixture) readNat(t *testing.T, name string) int {
	t.Helper()
	p, ok := f.net.Free(name)
	require.True(t, ok)
	v, err := f.arith.ReadNat(f.net, p)
	require.NoError(t, err)
	return v
}

// buildDoubleMinus builds out = |(x + x) - y| with x duplicated by Dup.
func (f *fixture) buildDoubleMinus(t *testing.T, x, y int) {
	t.Helper()
	n := f.net
	dup := n.MustCreate(f.arith.Dup)
	n.MustConnect(inet.P(dup, 0), f.nat(t, x))

	add := n.MustCreate(f.arith.Add)
	n.MustConnect(inet.P(add, 0), inet.P(dup, 1))
	n.MustConnect(inet.P(add, 1), inet.P(dup, 2))

	sum := inet.P(add, 2)
	out, err := f.arith.Binary(n, f.arith.Sub, sum, f.nat(t, y))
	require.NoError(t, err)
	n.MustConnect(out, f.free(t, "out"))
}

// buildConRing builds n Con-Con pairs whose auxiliary ports form two rings
// through neighbouring pairs. Reducing it splices and finally dissolves
// both rings, leaving an empty net.
func (f *fixture) buildConRing(t *testing.T, n int) {
	t.Helper()
	left := make([]inet.AgentID, n)
	right := make([]inet.AgentID, n)
	for i := 0; i < n; i++ {
		left[i] = f.net.MustCreate(f.comb.Con)
		right[i] = f.net.MustCreate(f.comb.Con)
		f.net.MustConnect(inet.P(left[i], 0), inet.P(right[i], 0))
	}
	for i := 0; i < n; i++ {
		prev := right[(i+n-1)%n]
		f.net.MustConnect(inet.P(left[i], 1), inet.P(prev, 1))
		f.net.MustConnect(inet.P(left[i], 2), inet.P(prev, 2))
	}
	require.NoError(t, f.net.CheckInvariants())
}

// stepLog collects step events from concurrent workers.
type stepLog struct {
	mu     sync.Mutex
	events []StepEvent
}

func (l *stepLog) RecordStep(ev StepEvent) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}
