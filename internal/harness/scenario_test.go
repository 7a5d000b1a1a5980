package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_File(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/double_minus.yaml")
	require.NoError(t, err)

	assert.Equal(t, "double_minus", s.Name)
	assert.Equal(t, filepath.Join("testdata", "programs", "double_minus.cue"), s.Program)
	assert.Equal(t, []int{1, 2, 8}, s.Workers)
	assert.Equal(t, int64(1000), s.MaxSteps)
	require.NotNil(t, s.Expect.Steps)
	assert.Equal(t, int64(18), *s.Expect.Steps)
	assert.Equal(t, map[string]int{"out": 2}, s.Expect.Nat)
	assert.Equal(t, map[string]string{"out": "S.0"}, s.Expect.Interface)
	assert.Len(t, s.Assertions, 6)
	assert.True(t, s.Golden)
	assert.Nil(t, s.Seed)
}

func TestLoadScenario_DefaultWorkers(t *testing.T) {
	path := writeScenario(t, `
name: inline
description: inline program
source: 'net: free: ["a", "b"], net: links: [["a", "b"]]'
seed: 3
expect:
  status: normal_form
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkers, s.workers())
	require.NotNil(t, s.Seed)
	assert.Equal(t, uint64(3), *s.Seed)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"unknown field", "name: x\ndescription: y\nsource: z\nexpected: {}\n", "field expected not found"},
		{"missing name", "description: y\nsource: z\nexpect: {status: stuck}\n", "name is required"},
		{"missing description", "name: x\nsource: z\nexpect: {status: stuck}\n", "description is required"},
		{"no program", "name: x\ndescription: y\nexpect: {status: stuck}\n", "program or source is required"},
		{"both", "name: x\ndescription: y\nsource: z\nprogram: p.cue\nexpect: {status: stuck}\n", "mutually exclusive"},
		{"missing program", "name: x\ndescription: y\nprogram: nope.cue\nexpect: {status: stuck}\n", "program not found"},
		{"bad workers", "name: x\ndescription: y\nsource: z\nworkers: [0]\nexpect: {status: stuck}\n", "workers[0]"},
		{"no status", "name: x\ndescription: y\nsource: z\n", "expect.status is required"},
		{"bad status", "name: x\ndescription: y\nsource: z\nexpect: {status: done}\n", "unknown status"},
		{"bad assertion", "name: x\ndescription: y\nsource: z\nexpect: {status: stuck}\nassertions: [{type: nope}]\n", "unknown assertion type"},
		{"rule missing", "name: x\ndescription: y\nsource: z\nexpect: {status: stuck}\nassertions: [{type: rule_count}]\n", "rule is required"},
		{"kind missing", "name: x\ndescription: y\nsource: z\nexpect: {status: stuck}\nassertions: [{type: kind_count}]\n", "kind is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "double_minus.yaml"),
		filepath.Join("testdata", "scenarios", "extra", "budget.yaml"),
		filepath.Join("testdata", "scenarios", "stuck.yaml"),
	}, files)

	files, err = FindScenarios("testdata/scenarios", "stuck")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	files, err = FindScenarios("testdata/scenarios/stuck.yaml", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/scenarios/stuck.yaml"}, files)

	_, err = FindScenarios("testdata/nope", "")
	assert.Error(t, err)
}
