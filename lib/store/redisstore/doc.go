// Package redisstore implements the coordination store on a Redis backend.
// This is the engine used for real multi-host coordination: Redis is the
// sole arbiter of sequence assignment, which is the only operation in the
// lock protocol that has to be atomic.
//
// Data Layout:
//
//	node:<path>        hash holding "ctime" (unix millis) and "data"
//	children:<parent>  set of child names under a parent path
//	seq:<parent>       per-parent sequence counter
//
// Implementation Details:
//
//   - Atomicity: Create and delete each run as a single server-side Lua
//     script, so the sequence counter increment, the node hash, and the
//     membership in the parent's children set can never be observed half
//     applied. The sequential script zero-pads the assigned number to
//     store.SequenceWidth digits and rejects numbers that no longer fit,
//     preserving the lexicographic-equals-numeric ordering contract.
//
//   - Timeouts: Every call runs under a bounded context deadline. A call
//     that exceeds it is reported as a connection error, which the lock
//     protocol treats as an immediate, final loss.
//
//   - Creation Time: Timestamps are stamped from the caller's injected
//     clock rather than the Redis server clock, so the TTL-based
//     reclamation carries the same synchronized-clocks assumption across
//     all participating hosts.
//
// The engine is exercised in tests against a miniredis instance, which
// runs the same scripts without a live server.
package redisstore
