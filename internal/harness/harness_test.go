package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Scenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)

	for _, path := range files {
		t.Run(path, func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			var result *Result
			if s.Golden {
				result, err = RunWithGolden(t, s)
			} else {
				result, err = Run(context.Background(), s)
			}
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Runs, len(s.workers()))
		})
	}
}

func TestRun_Confluence(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/double_minus.yaml")
	require.NoError(t, err)
	s.Workers = []int{1, 2, 4, 8, 16}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	for _, r := range result.Runs[1:] {
		assert.Equal(t, result.Runs[0].Hash, r.Hash, "workers=%d", r.Workers)
		assert.Equal(t, result.Runs[0].Steps, r.Steps, "workers=%d", r.Workers)
	}
	assert.Equal(t, int64(1), result.Rules["dup-z"])
}

func TestRun_ReportsFailures(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/double_minus.yaml")
	require.NoError(t, err)
	s.Workers = []int{2}
	wrongSteps := int64(17)
	wrongAgents := 4
	s.Expect.Steps = &wrongSteps
	s.Expect.Agents = &wrongAgents
	s.Expect.Nat = map[string]int{"out": 3, "nope": 1}
	s.Expect.Interface = map[string]string{"out": "Z.0"}
	s.Assertions = []Assertion{
		{Type: AssertRuleFired, Rule: "era-s"},
		{Type: AssertRuleCount, Rule: "add-z", Count: 2},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"workers=2: steps: expected 17, got 18",
		"workers=2: agents: expected 4, got 3",
		"workers=2: interface out: expected Z.0, got S.0",
		"workers=2: nat nope: no such port",
		"workers=2: nat out: expected 3, got 2",
	}, result.Errors[:5])
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[5], "Assertion failed: rule_fired")
	assert.Contains(t, result.Errors[6], "Expected: rule add-z fired 2 times")
	assert.Contains(t, result.Errors[6], "add-s: 3")
}

func TestRun_StatusMismatchExplains(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/extra/budget.yaml")
	require.NoError(t, err)
	s.Workers = []int{1}
	s.Expect.Status = "normal_form"

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "status: expected normal_form, got budget_exhausted")
}

func TestRun_CompileFailure(t *testing.T) {
	s := &Scenario{Name: "broken", Source: "net: {", Expect: Expect{Status: "normal_form"}}
	_, err := Run(context.Background(), s)
	assert.ErrorContains(t, err, "compile source")
}

func TestRun_Cancelled(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/stuck.yaml")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, s)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckGolden(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/double_minus.yaml")
	require.NoError(t, err)
	s.Workers = []int{1}
	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	require.NoError(t, CheckGolden("testdata/golden", "double_minus", result, false))

	dir := t.TempDir()
	assert.Error(t, CheckGolden(dir, "double_minus", result, false))
	require.NoError(t, CheckGolden(dir, "double_minus", result, true))
	require.NoError(t, CheckGolden(dir, "double_minus", result, false))

	result.Canonical = []byte("{}")
	assert.ErrorIs(t, CheckGolden(dir, "double_minus", result, false), ErrGoldenMismatch)
}
