// Package harness provides conformance testing for net programs.
//
// A scenario names a CUE program, the worker counts to reduce it with, and
// what the normal form must look like. Every worker count must reach the
// same canonical net: interaction nets are strongly confluent, so any
// difference is a bug in the parallel engine.
//
// # Scenario Format
//
//	name: double_minus
//	description: "|2x - y| with shared x"
//	program: ../programs/double_minus.cue
//	workers: [1, 2, 8]
//	max_steps: 10000
//	expect:
//	  status: normal_form
//	  steps: 422
//	  agents: 196
//	  interface: { out: "S.0" }
//	  nat: { out: 195 }
//	assertions:
//	  - type: rule_count
//	    rule: add-s
//	    count: 120
//	  - type: kind_count
//	    kind: Add
//	    count: 0
//	golden: true
//
// A scenario may give the program inline under source instead of program.
// Paths are relative to the scenario file.
//
// # Assertion Types
//
//   - rule_fired: the rule fired at least once
//   - rule_count: the rule fired exactly count times
//   - kind_count: the final net holds exactly count agents of the kind
//   - stuck_count: the run ended with exactly count stuck pairs
//
// # Deterministic Testing
//
// Runs use a frozen fake clock and a discard logger, so results and golden
// snapshots are reproducible. Golden files hold the canonical JSON of the
// final net and live in testdata/golden; regenerate them with
//
//	go test ./internal/harness -update
package harness
