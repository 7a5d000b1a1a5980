package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommandRunsScenarios(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", "testdata/scenarios")
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 0, result.Failed)

	require.Len(t, result.Scenarios, 2)
	assert.Equal(t, "add", result.Scenarios[0].Name)
	assert.True(t, result.Scenarios[0].Pass, "errors: %v", result.Scenarios[0].Errors)
	assert.Len(t, result.Scenarios[0].Runs, 2)
	assert.Equal(t, "stuck", result.Scenarios[1].Name)
	assert.Len(t, result.Scenarios[1].Runs, 3)
}

func TestTestCommandReportsFailures(t *testing.T) {
	dir := t.TempDir()
	program, err := filepath.Abs("testdata/programs/stuck.cue")
	require.NoError(t, err)
	scenario := "name: wrong\ndescription: expects the wrong status\nprogram: " + program +
		"\nworkers: [1]\nexpect:\n  status: normal_form\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0o644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "workers=1: status: expected normal_form, got stuck")
	assert.Contains(t, out, "failed to parse YAML")
	assert.Contains(t, out, "0 passed, 2 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, "test", "testdata/scenarios", "--filter", "add")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ add")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandGolden(t *testing.T) {
	dir := t.TempDir()
	program, err := filepath.Abs("testdata/programs/add.cue")
	require.NoError(t, err)

	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0o755))
	scenario := "name: add_golden\ndescription: golden add\nprogram: " + program +
		"\nworkers: [1, 2]\nexpect:\n  status: normal_form\ngolden: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "add.yaml"), []byte(scenario), 0o644))

	_, err = execute(t, "test", scenarios)
	require.Error(t, err, "golden file is missing")

	_, err = execute(t, "test", scenarios, "--update")
	require.NoError(t, err)
	golden := filepath.Join(dir, "golden", "add_golden.golden")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind": "Z"`)

	out, err := execute(t, "test", scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ add_golden")

	require.NoError(t, os.WriteFile(golden, []byte("{}"), 0o644))
	out, err = execute(t, "test", scenarios)
	require.Error(t, err)
	assert.Contains(t, out, "differs from golden file")
}

func TestTestCommandMissingDir(t *testing.T) {
	_, err := execute(t, "test", "testdata/nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmpty(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}
