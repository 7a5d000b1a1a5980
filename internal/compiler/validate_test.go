package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	for _, path := range []string{"testdata/pairs.cue", "testdata/add.cue", "testdata/split"} {
		p, err := Load(path)
		require.NoError(t, err)
		assert.Empty(t, Validate(p), path)
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	src := `
use: ["arith", "nope"]
kind: "$x": 1
rule: r: {
	left:  "Add"
	right: "Missing"
	agents: {q: "Ghost"}
	links: [["left.1", "q"], ["q.0", "up.1"]]
}
net: {
	agents: {a: "Z", b: "Unknown"}
	nat: {a: 1}
	free: ["o"]
	links: [["a.0", "o"], ["c.0", "a.x"]]
}
`
	p, err := CompileSource("bad.cue", []byte(src))
	require.NoError(t, err)

	errs := Validate(p)
	assert.Equal(t, []string{
		ErrUnknownLibrary,
		ErrInvalidKind,
		ErrUndeclaredKind, // Missing
		ErrUndeclaredKind, // Ghost
		ErrInvalidRef,     // q
		ErrInvalidRef,     // up.1
		ErrUndeclaredKind, // Unknown
		ErrDuplicateName,  // nat a
		ErrInvalidRef,     // c.0
		ErrInvalidRef,     // a.x
	}, codes(errs))
	assert.Positive(t, errs[2].Line)
}

func TestValidate_EmptyNet(t *testing.T) {
	p, err := CompileSource("empty.cue", []byte(`use: ["arith"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{ErrEmptyNet}, codes(Validate(p)))
}

func TestValidationError_Format(t *testing.T) {
	e := ValidationError{Field: "net", Message: "net declares no agents", Code: ErrEmptyNet}
	assert.Equal(t, "[E120] net: net declares no agents", e.Error())
	e.Line = 4
	assert.Equal(t, "[E120] line 4: net: net declares no agents", e.Error())
}
