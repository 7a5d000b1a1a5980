package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inet/internal/inet"
	"github.com/roach88/inet/internal/rule"
)

func TestLoad_File(t *testing.T) {
	p, err := Load("testdata/pairs.cue")
	require.NoError(t, err)

	assert.Equal(t, "testdata/pairs.cue", p.Path)
	assert.Equal(t, []string{"combinators"}, p.Use)

	require.Len(t, p.Kinds, 3)
	assert.Equal(t, "Pair", p.Kinds[0].Name)
	assert.Equal(t, 3, p.Kinds[0].Arity)
	assert.Equal(t, inet.Positive, p.Kinds[0].Polarity)
	assert.Equal(t, inet.Negative, p.Kinds[1].Polarity)
	assert.Equal(t, "Unit", p.Kinds[2].Name)
	assert.Equal(t, 1, p.Kinds[2].Arity)

	require.Len(t, p.Rules, 2)
	r := p.Rules[0]
	assert.Equal(t, "fst-pair", r.Name)
	assert.Equal(t, "Fst", r.Left)
	assert.Equal(t, "Pair", r.Right)
	assert.Equal(t, []rule.AgentSpec{{Name: "e", Kind: "Era"}}, r.Agents)
	assert.Equal(t, []rule.Link{{"left.1", "right.1"}, {"e.0", "right.2"}}, r.Links)
	assert.Empty(t, p.Rules[1].Links)

	assert.Equal(t, []string{"f", "p", "u1", "u2"}, agentNames(p.Net.Agents))
	assert.Equal(t, []string{"out"}, p.Net.Free)
	assert.Len(t, p.Net.Links, 4)
}

func TestLoad_Dir(t *testing.T) {
	p, err := Load("testdata/split")
	require.NoError(t, err)
	assert.Equal(t, []string{"arith"}, p.Use)
	assert.Equal(t, []NatDecl{{Name: "x", Value: 7}, {Name: "y", Value: 3}}, p.Net.Nats)
	assert.NotEmpty(t, p.Hash())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("testdata/nope.cue")
	assert.Error(t, err)
}

func TestProgramHash(t *testing.T) {
	src := []byte(`net: free: ["a", "b"], net: links: [["a", "b"]]`)
	a, err := CompileSource("a.cue", src)
	require.NoError(t, err)
	b, err := CompileSource("b.cue", src)
	require.NoError(t, err)
	c, err := CompileSource("c.cue", []byte(`net: free: ["a", "c"], net: links: [["a", "c"]]`))
	require.NoError(t, err)

	assert.Equal(t, a.Hash(), b.Hash(), "hash depends on content only")
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.Empty(t, (&Program{}).Hash())
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing arity", `kind: K: {polarity: "+"}`, "kind.K"},
		{"zero arity", `kind: K: 0`, "kind.K"},
		{"bad polarity", `kind: K: {arity: 2, polarity: "x"}`, "kind.K.polarity"},
		{"missing right", `rule: r: {left: "A"}`, "rule.r.right"},
		{"short link", `net: links: [["a.0"]]`, "links[0]"},
		{"negative nat", `net: nat: x: -1`, "net.nat.x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileSource("bad.cue", []byte(tt.src))
			require.Error(t, err)
			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompile_CUEError(t *testing.T) {
	_, err := CompileSource("broken.cue", []byte("net: {\n\tfree: [\"a\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "kind.K", Message: "arity is required"}
	assert.Equal(t, "kind.K: arity is required", err.Error())
}

func agentNames(specs []rule.AgentSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}
