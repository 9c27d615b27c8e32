// Package lock implements a best-effort, single-shot mutual exclusion
// primitive over a hierarchical coordination store that implements the
// store.IStore interface. It ensures that, among several independent
// processes invoked around the same time (the same scheduled job firing on
// multiple hosts), at most one proceeds.
//
// The locker only ever stores in the provided IStore and has no other
// internal state. Therefore it is safe to be created multiple times on the
// same store, even a new locker per acquisition; as long as the same store
// backs every participant, the protocol works as expected.
//
// Core Functionality:
//   - Idempotent initialization of the shared lock root
//   - TTL-based reclamation of abandoned attempt nodes
//   - Sequenced attempt creation with an explicitly validated fixed-width
//     naming contract
//   - Leadership determination from a single snapshot of the sibling set
//   - Self-cleanup of the losing process's own node
//
// Implementation Approach:
//
//	One acquisition is a strictly sequential run of five store operations:
//
//	- Ensure Root: Creates the configured root path; pre-existence is
//	  success, any other failure aborts the protocol.
//
//	- Reap: Lists the root's children, filters to siblings of the requested
//	  lock name, and deletes every sibling whose age exceeds the TTL. This
//	  is the sole mechanism by which a crashed or unreleased winner's node
//	  is ever removed; there is no heartbeat and no explicit unlock.
//	  Races with concurrent reapers are harmless because every deletion is
//	  independent and idempotent.
//
//	- Attempt: Atomically creates a child named "<lockname>.<sequence>"
//	  where the store assigns a unique, strictly increasing, fixed-width
//	  sequence suffix. This is the only operation in the protocol required
//	  to be atomic; the store is the sole arbiter of ordering.
//
//	- Evaluate: Takes one snapshot of the sibling set, sorts it
//	  lexicographically (valid precisely because of the fixed-width
//	  contract) and declares this process the leader iff its own node sorts
//	  first. Sequence numbers are unique, so there is never a tie.
//
//	- Cleanup: A loser deletes its own node to shrink the sibling set for
//	  the next race; a winner leaves its node in place as the durable
//	  marker of the held lock.
//
// Failure Model:
//
//	Any store failure or timeout is an immediate, final loss: there is no
//	retry, no backoff and no rollback of nodes already created. Callers
//	rely on outer scheduling (periodic re-invocation) for retry semantics.
//	A fatal error after attempt creation may leave the node behind; a
//	future reap cycle clears it.
//
// Consistency Caveats (documented behavior, not defects):
//
//	The evaluation reads a single point-in-time snapshot, so the guarantee
//	is best-effort, not linearizable. There is no lock renewal: a winner
//	whose real work outlives the TTL may have its marker node reaped by a
//	racing process, permitting a second concurrent winner. TTL comparison
//	also assumes the participating hosts' clocks are reasonably
//	synchronized. The reaper scans all children of the root on every
//	invocation, so its cost is linear in the total sibling count across all
//	lock names sharing the root.
//
// Usage Example:
//
//	locker := lock.NewLocker(st, lock.Config{TTL: 30 * time.Second})
//
//	acquired, err := locker.Acquire("nightly-backup")
//	if err != nil {
//	    // Fatal store error; also counts as not acquired.
//	}
//	if acquired {
//	    // Sole winner among concurrent invocations: do the work.
//	}
package lock
