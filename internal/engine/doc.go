// Package engine reduces interaction nets in parallel.
//
// The engine owns the reduction loop: it pulls active pairs from the
// tracker, claims their footprint, looks up the rule for their kinds and
// rewrites the pair in place.
//
// ARCHITECTURE:
//
// Worker Pool:
// A fixed number of workers (WithWorkers) run under one errgroup. Each
// worker repeatedly takes a pair, reduces it and reports back to the pool.
// The run ends when nothing is pending and nothing is in flight, when the
// budget runs out, when the context is cancelled, or on the first fatal
// rewrite error.
//
// Step Flow (one pair):
// 1. Dequeue a pair from the tracker
// 2. Claim both agents (non-blocking CAS); a dead agent drops the pair
// 3. Validate that the principal ports are still wired to each other
// 4. Look up the rule; no rule parks the pair as stuck
// 5. Claim every boundary neighbor; any failure re-queues the pair
// 6. Reserve a step from the budget
// 7. Detach the pair, run the rule, lay the resolved wires, erase the pair
// 8. Release the footprint, including agents the rule created
//
// Only step 7 mutates the net, and only ports of claimed agents. Every
// mutation is journaled; a rule error or a misused boundary rolls the
// footprint back and aborts the run with a RunError.
//
// CRITICAL PATTERNS:
//
// Confluence:
// The final net does not depend on worker count or interleaving as long as
// the rules are well-formed. The engine adds no ordering of its own beyond
// the tracker's pop order.
//
// Determinism:
// WithDeterministic runs a single worker; with WithSeed the pop order is a
// seeded PRNG, otherwise LIFO. Same net, same options, same trace.
//
// Budget:
// Steps are reserved before surgery, so WithMaxSteps(n) stops after exactly
// n rewrites. Workers never abandon a rewrite midway.
package engine
