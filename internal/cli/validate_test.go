package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inet/internal/compiler"
)

func TestValidateValid(t *testing.T) {
	out, err := execute(t, "validate", "testdata/programs/add.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ testdata/programs/add.cue: 8 agents, 10 rules, 1 active pairs")
}

func TestValidateMissingRuleIsWarning(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/programs/stuck.cue")
	require.NoError(t, err)

	var result ValidationResult
	decodeData(t, out, &result)
	assert.True(t, result.Valid)
	assert.Equal(t, []string{"A >< B"}, result.MissingRules)
	assert.Equal(t, 1, result.ActivePairs)
}

func TestValidateErrors(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/programs/bad.cue")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	decodeData(t, out, &result)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, compiler.ErrUndeclaredKind, result.Errors[0].Code)
}

func TestValidateLoadError(t *testing.T) {
	out, err := execute(t, "validate", "testdata/programs/missing.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestBuildError(t *testing.T) {
	verr := buildError(&compiler.CompileError{Field: "net.links[2]", Message: "port bound twice"})
	assert.Equal(t, "net.links[2]", verr.Field)
	assert.Equal(t, compiler.ErrWiring, verr.Code)
	assert.Zero(t, verr.Line)
}
