// Package memstore implements a process-local, in-memory coordination store
// based on the store.IStore interface. All nodes live in memory and vanish
// when the process exits; the engine provides no cross-process coordination
// and exists so protocol logic can be tested without an external service.
//
// Key Features:
//   - Pure in-memory storage without persistence
//   - Atomic per-parent sequence assignment using a lock-free counter map
//   - Injectable clock so tests can place node ages exactly on TTL
//     boundaries
//   - Thread-safe operations for concurrent access
//
// Implementation Details:
//
//   - Node Index: Nodes are held in an xsync.MapOf keyed by full path.
//     Child listing derives the sibling set by ranging over the index and
//     matching each entry's parent, which keeps writes free of any
//     secondary bookkeeping.
//
//   - Sequence Management: A second xsync.MapOf maps each parent path to
//     the last assigned sequence number. Increments go through Compute,
//     which is atomic per key, so two concurrent sequential creates under
//     the same parent can never observe the same value.
//
//   - Creation Time: Each node records the injected clock's time at create,
//     in unix milliseconds, matching what Stat reports for the Redis engine.
//
// Thread Safety:
//
//	All operations are thread-safe. Both maps are lock-free concurrent maps
//	and every mutation is a single atomic map operation.
package memstore
