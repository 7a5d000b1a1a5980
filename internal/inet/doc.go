// Package inet implements the interaction-net graph: agents stored in a
// generation-checked arena, ports addressed as (agent, index) pairs, and the
// symmetric wire relation between them.
//
// ARCHITECTURE:
//
// Arena + Generations:
// Agents live in fixed-size pages of slots. An AgentID is (slot, generation);
// every allocation bumps the slot's generation, so an id that outlives its
// agent is rejected with ErrStaleReference instead of aliasing whatever agent
// reuses the slot. Erased slots pass through an epoch-based limbo list and are
// only recycled once no participant that could still hold the old id is
// inside a reduction.
//
// Wires:
// A wire is recorded at both of its ports: peers[i] of an agent holds the
// port at the other end. Connect, Disconnect and Peer are O(1) and never
// traverse the graph. A free wire is a wire to the single port of a Free
// pseudo-agent; Free agents form the net's external interface and never take
// part in active pairs.
//
// Claims:
// Each slot carries an owner word. A reduction claims every agent in its
// footprint with a non-blocking CAS before touching any of their ports, and
// releases them when the rewrite commits or rolls back. All mutation of a
// port requires holding the claim on its agent; this is what makes concurrent
// in-place rewriting safe without a global lock.
//
// INVARIANTS (between rewrites):
//   - Every port of every live agent is bound to exactly one other port
//   - peers are symmetric: peer(peer(p)) == p
//   - No live port refers to an erased agent
//
// CheckInvariants verifies all three.
package inet
