package compiler

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inet/internal/engine"
	"github.com/roach88/inet/internal/library"
)

func mustBuild(t *testing.T, path string) *Built {
	t.Helper()
	p, err := Load(path)
	require.NoError(t, err)
	b, err := p.Build()
	require.NoError(t, err)
	return b
}

func runBuilt(t *testing.T, b *Built) *engine.Result {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res, err := engine.New(b.Net, b.Table, engine.WithLogger(logger), engine.WithVerify()).Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestBuild_TemplateRules(t *testing.T) {
	b := mustBuild(t, "testdata/pairs.cue")
	assert.Equal(t, 4, b.Net.Len())
	assert.Len(t, b.Net.ActivePairs(), 1)
	assert.Empty(t, b.MissingRules())

	res := runBuilt(t, b)
	assert.Equal(t, engine.NormalForm, res.Status)
	assert.Equal(t, int64(2), res.Steps)
	assert.Equal(t, 1, b.Net.Len())

	out, ok := b.Net.Free("out")
	require.True(t, ok)
	peer, err := b.Net.Peer(out)
	require.NoError(t, err)
	kind, err := b.Net.KindOf(peer.Agent)
	require.NoError(t, err)
	assert.Equal(t, "Unit", b.Net.Kinds().Name(kind))
}

func TestBuild_Numerals(t *testing.T) {
	for _, tt := range []struct {
		path string
		want int
	}{
		{"testdata/add.cue", 5},
		{"testdata/split", 4},
	} {
		t.Run(tt.path, func(t *testing.T) {
			b := mustBuild(t, tt.path)
			runBuilt(t, b)

			arith, err := library.ArithKinds(b.Net.Kinds())
			require.NoError(t, err)
			out, _ := b.Net.Free("out")
			got, err := arith.ReadNat(b.Net, out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"unknown library", `use: ["nope"]`, "use"},
		{"library conflict", `use: ["arith"], kind: S: 3`, "kind.S"},
		{"polarity conflict", `use: ["arith"], kind: S: {arity: 2, polarity: "-"}`, "kind.S"},
		{"bad template", `kind: A: 1, rule: r: {left: "A", right: "A", links: [["left.1", "right.1"]]}`, "rule.r"},
		{"duplicate rule", `kind: A: 1, rule: r1: {left: "A", right: "A"}, rule: r2: {left: "A", right: "A"}`, "rule.r2"},
		{"unknown kind", `net: agents: a: "Nope"`, "net.agents.a"},
		{"unknown ref", `kind: A: 1, net: {agents: a: "A", free: ["o"], links: [["a.0", "b.0"]]}`, "net.links[0]"},
		{"free without link", `kind: A: 1, net: {agents: a: "A", free: ["o"], links: [["a.0", "o"], ["o", "a.0"]]}`, "net.links[1]"},
		{"port out of range", `kind: A: 1, net: {agents: a: "A", free: ["o"], links: [["a.1", "o"]]}`, "net.links[0]"},
		{"unbound port", `kind: A: 2, net: {agents: a: "A", free: ["o"], links: [["a.0", "o"]]}`, "net"},
		{"nat without arith", `net: {nat: x: 1, free: ["o"], links: [["x.0", "o"]]}`, "net.nat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompileSource("bad.cue", []byte(tt.src))
			require.NoError(t, err)
			_, err = p.Build()
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field, ce.Error())
		})
	}
}

func TestBuilt_MissingRules(t *testing.T) {
	src := `
kind: {A: 1, B: 1}
net: {
	agents: {a: "A", b: "B", c: "A", d: "B"}
	links: [["a.0", "b.0"], ["d.0", "c.0"]]
}
`
	p, err := CompileSource("stuck.cue", []byte(src))
	require.NoError(t, err)
	b, err := p.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"A >< B"}, b.MissingRules())

	res := runBuilt(t, b)
	assert.Equal(t, engine.Stuck, res.Status)
	assert.Len(t, res.Stuck, 2)
}
