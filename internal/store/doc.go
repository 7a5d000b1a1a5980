// Package store provides SQLite-backed durable storage for reduction runs.
//
// The store is an append-only log with:
//   - Runs: one record per engine run (program, config, outcome)
//   - Steps: the trace of committed rewrites, keyed by (run_id, seq)
//   - Snapshots: canonical JSON of the initial and final nets
//
// # Ordering
//
// Steps are ordered by their logical sequence number, never by wall time:
// every query over steps uses ORDER BY seq ASC. Runs are listed by id,
// which for UUIDv7 run ids is creation order.
//
// Workers commit rewrites concurrently, so the seq order of a parallel run
// is one valid serialization, not the only one. Replays compare final
// canonical hashes rather than traces.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
