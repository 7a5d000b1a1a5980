package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/inet/internal/engine"
	"github.com/roach88/inet/internal/store"
)

// runConfigFile is the YAML form of the run flags. Absent keys leave the
// flag value alone.
type runConfigFile struct {
	Workers       *int    `yaml:"workers"`
	MaxSteps      *int64  `yaml:"max_steps"`
	Deadline      *string `yaml:"deadline"`
	Seed          *uint64 `yaml:"seed"`
	Deterministic *bool   `yaml:"deterministic"`
}

// loadRunConfig reads a run config file. Unknown keys are errors.
func loadRunConfig(path string) (*runConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg runConfigFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// apply copies the file's values into opts for every flag the user did
// not set explicitly.
func (c *runConfigFile) apply(opts *RunOptions, changed func(flag string) bool) error {
	if c.Workers != nil && !changed("workers") {
		opts.Workers = *c.Workers
	}
	if c.MaxSteps != nil && !changed("max-steps") {
		opts.MaxSteps = *c.MaxSteps
	}
	if c.Deadline != nil && !changed("deadline") {
		d, err := time.ParseDuration(*c.Deadline)
		if err != nil {
			return fmt.Errorf("config deadline: %w", err)
		}
		opts.Deadline = d
	}
	if c.Seed != nil && !changed("seed") {
		opts.Seed = *c.Seed
	}
	if c.Deterministic != nil && !changed("deterministic") {
		opts.Deterministic = *c.Deterministic
	}
	return nil
}

// engineOptions turns a stored run configuration into engine options. A
// zero seed keeps the tracker's LIFO order.
func engineOptions(cfg store.RunConfig, logger *slog.Logger) []engine.Option {
	opts := []engine.Option{
		engine.WithWorkers(cfg.Workers),
		engine.WithMaxSteps(cfg.MaxSteps),
		engine.WithLogger(logger),
	}
	if cfg.DeadlineMS > 0 {
		opts = append(opts, engine.WithDeadline(time.Duration(cfg.DeadlineMS)*time.Millisecond))
	}
	if cfg.Seed != 0 {
		opts = append(opts, engine.WithSeed(cfg.Seed))
	}
	if cfg.Deterministic {
		opts = append(opts, engine.WithDeterministic())
	}
	return opts
}
