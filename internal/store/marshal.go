package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/inet/internal/ir"
)

// RunConfig is the engine configuration a run was started with. It is
// stored as canonical JSON so replays can reconstruct the options.
type RunConfig struct {
	Workers       int    `json:"workers"`
	MaxSteps      int64  `json:"max_steps"`
	DeadlineMS    int64  `json:"deadline_ms"`
	Seed          uint64 `json:"seed"`
	Deterministic bool   `json:"deterministic"`
}

// marshalConfig converts a RunConfig to canonical JSON TEXT. The seed is
// encoded as a decimal string since canonical JSON numbers are int64.
func marshalConfig(c RunConfig) (string, error) {
	data, err := ir.MarshalCanonical(map[string]any{
		"deterministic": c.Deterministic,
		"deadline_ms":   c.DeadlineMS,
		"max_steps":     c.MaxSteps,
		"seed":          strconv.FormatUint(c.Seed, 10),
		"workers":       c.Workers,
	})
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

func unmarshalConfig(s string) (RunConfig, error) {
	var raw struct {
		Workers       int    `json:"workers"`
		MaxSteps      int64  `json:"max_steps"`
		DeadlineMS    int64  `json:"deadline_ms"`
		Seed          string `json:"seed"`
		Deterministic bool   `json:"deterministic"`
	}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return RunConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	seed, err := strconv.ParseUint(raw.Seed, 10, 64)
	if err != nil {
		return RunConfig{}, fmt.Errorf("unmarshal config: seed: %w", err)
	}
	return RunConfig{
		Workers:       raw.Workers,
		MaxSteps:      raw.MaxSteps,
		DeadlineMS:    raw.DeadlineMS,
		Seed:          seed,
		Deterministic: raw.Deterministic,
	}, nil
}
