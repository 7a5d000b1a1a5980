package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/inet/internal/engine"
)

// DefaultWorkers are the worker counts a scenario runs with unless it
// names its own.
var DefaultWorkers = []int{1, 2, 8}

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the path to a CUE program file or package directory.
	// Relative paths are resolved against the scenario file's directory.
	Program string `yaml:"program,omitempty"`

	// Source is an inline CUE program, used when Program is empty.
	Source string `yaml:"source,omitempty"`

	// Workers lists the worker counts to reduce with. Defaults to
	// DefaultWorkers.
	Workers []int `yaml:"workers,omitempty"`

	// MaxSteps bounds each run. Zero means unbounded.
	MaxSteps int64 `yaml:"max_steps,omitempty"`

	// Seed, when set, seeds the pop order of every run.
	Seed *uint64 `yaml:"seed,omitempty"`

	// Expect describes the final net.
	Expect Expect `yaml:"expect"`

	// Assertions are additional checks on rule firings and the final net.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Golden compares the canonical normal form against
	// testdata/golden/<name>.golden.
	Golden bool `yaml:"golden,omitempty"`
}

// Expect lists expectations on every run's outcome. Nil fields are not
// checked.
type Expect struct {
	Status    string            `yaml:"status"`
	Steps     *int64            `yaml:"steps,omitempty"`
	Agents    *int              `yaml:"agents,omitempty"`
	Interface map[string]string `yaml:"interface,omitempty"`
	Nat       map[string]int    `yaml:"nat,omitempty"`
}

// Assertion validates rule firings or the final net.
type Assertion struct {
	// Type is one of rule_fired, rule_count, kind_count, stuck_count.
	Type string `yaml:"type"`

	// Rule is the rule name (rule_fired, rule_count).
	Rule string `yaml:"rule,omitempty"`

	// Kind is the kind name (kind_count).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number (rule_count, kind_count, stuck_count).
	Count int `yaml:"count"`
}

// Assertion type constants.
const (
	AssertRuleFired  = "rule_fired"
	AssertRuleCount  = "rule_count"
	AssertKindCount  = "kind_count"
	AssertStuckCount = "stuck_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) {
		scenario.Program = filepath.Join(filepath.Dir(path), scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Program == "" && s.Source == "":
		return fmt.Errorf("program or source is required")
	case s.Program != "" && s.Source != "":
		return fmt.Errorf("program and source are mutually exclusive")
	case s.Program != "":
		if _, err := os.Stat(s.Program); os.IsNotExist(err) {
			return fmt.Errorf("program not found: %s", s.Program)
		}
	}

	for i, w := range s.Workers {
		if w < 1 {
			return fmt.Errorf("workers[%d]: must be at least 1, got %d", i, w)
		}
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	if s.Expect.Status == "" {
		return fmt.Errorf("expect.status is required")
	}
	if _, ok := engine.ParseStatus(s.Expect.Status); !ok {
		return fmt.Errorf("expect.status: unknown status %q", s.Expect.Status)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRuleFired, AssertRuleCount:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for %s", index, a.Type)
		}
	case AssertKindCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for kind_count", index)
		}
	case AssertStuckCount:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	return nil
}

// workers returns the worker counts to run with.
func (s *Scenario) workers() []int {
	if len(s.Workers) == 0 {
		return DefaultWorkers
	}
	return s.Workers
}
