package library

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inet/internal/engine"
	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/rule"
)

func newTable(t *testing.T, names ...string) *rule.Table {
	t.Helper()
	table := rule.NewTable(inet.NewKinds())
	require.NoError(t, Load(table, names...))
	return table
}

func reduce(t *testing.T, n *inet.Net, table *rule.Table) *engine.Result {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res, err := engine.New(n, table, engine.WithLogger(logger), engine.WithWorkers(4), engine.WithVerify()).Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestLoad(t *testing.T) {
	table := newTable(t, "combinators", "arith")
	assert.Equal(t, 16, table.Len())

	err := Load(rule.NewTable(inet.NewKinds()), "nope")
	assert.ErrorContains(t, err, "unknown rule library")
	assert.Equal(t, []string{"arith", "combinators"}, Names())
}

func TestLoadOrderIndependent(t *testing.T) {
	a := newTable(t, "arith", "combinators")
	b := newTable(t, "combinators", "arith")
	assert.Equal(t, a.Len(), b.Len())
}

func TestEnsureKindArityConflict(t *testing.T) {
	kinds := inet.NewKinds()
	kinds.MustRegister(KindDup, 2)
	_, err := RegisterCombinators(rule.NewTable(kinds))
	assert.ErrorContains(t, err, "arity 2")
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   string
		x, y int
		want int
	}{
		{"add zero", KindAdd, 0, 4, 4},
		{"add", KindAdd, 7, 5, 12},
		{"sub", KindSub, 9, 4, 5},
		{"sub reversed", KindSub, 4, 9, 5},
		{"sub equal", KindSub, 6, 6, 0},
		{"sub zero", KindSub, 0, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newTable(t, "arith")
			arith, err := ArithKinds(table.Kinds())
			require.NoError(t, err)
			n := inet.New(table.Kinds())

			x, err := arith.Nat(n, tt.x)
			require.NoError(t, err)
			y, err := arith.Nat(n, tt.y)
			require.NoError(t, err)
			op := arith.Add
			if tt.op == KindSub {
				op = arith.Sub
			}
			r, err := arith.Binary(n, op, x, y)
			require.NoError(t, err)
			out, err := n.AddFree("out")
			require.NoError(t, err)
			n.MustConnect(r, out)

			res := reduce(t, n, table)
			assert.Equal(t, engine.NormalForm, res.Status)

			got, err := arith.ReadNat(n, out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want+1, n.Len(), "only the result numeral remains")
		})
	}
}

func TestDupAndEraseNumerals(t *testing.T) {
	table := newTable(t, "arith")
	arith, err := ArithKinds(table.Kinds())
	require.NoError(t, err)
	n := inet.New(table.Kinds())

	x, err := arith.Nat(n, 8)
	require.NoError(t, err)
	dup := n.MustCreate(arith.Dup)
	n.MustConnect(inet.P(dup, 0), x)
	a, err := n.AddFree("a")
	require.NoError(t, err)
	n.MustConnect(inet.P(dup, 1), a)

	era := n.MustCreate(arith.Era)
	n.MustConnect(inet.P(dup, 2), inet.P(era, 0))

	res := reduce(t, n, table)
	require.Equal(t, engine.NormalForm, res.Status)
	got, err := arith.ReadNat(n, a)
	require.NoError(t, err)
	assert.Equal(t, 8, got)
	assert.Equal(t, 9, n.Len())
}

func TestReadNatErrors(t *testing.T) {
	table := newTable(t, "arith", "combinators")
	arith, err := ArithKinds(table.Kinds())
	require.NoError(t, err)
	n := inet.New(table.Kinds())

	box := n.MustCreate(n.Kinds().MustRegister("Box", 1))
	out, err := n.AddFree("out")
	require.NoError(t, err)
	n.MustConnect(inet.P(box, 0), out)
	_, err = arith.ReadNat(n, out)
	assert.ErrorContains(t, err, "Box")

	_, err = arith.Nat(n, -1)
	assert.Error(t, err)
}

func TestCombinatorsEraseTree(t *testing.T) {
	table := newTable(t, "combinators")
	kinds := table.Kinds()
	con, _ := kinds.Lookup(KindCon)
	era, _ := kinds.Lookup(KindEra)
	n := inet.New(kinds)

	// A binary tree of Con agents of depth 4 erased from its root.
	var build func(depth int) inet.Port
	build = func(depth int) inet.Port {
		if depth == 0 {
			return inet.P(n.MustCreate(era.ID), 0)
		}
		c := n.MustCreate(con.ID)
		n.MustConnect(inet.P(c, 1), build(depth-1))
		n.MustConnect(inet.P(c, 2), build(depth-1))
		return inet.P(c, 0)
	}
	root := build(4)
	e := n.MustCreate(era.ID)
	n.MustConnect(inet.P(e, 0), root)

	res := reduce(t, n, table)
	assert.Equal(t, engine.NormalForm, res.Status)
	assert.Equal(t, 0, n.Len())
}
