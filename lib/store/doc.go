// Package store defines the capability contract against the hierarchical
// coordination store that backs the lock protocol, together with a unified
// error system shared by all engine implementations.
//
// The package focuses on:
//   - A narrow interface (IStore) covering exactly the four operations the
//     lock protocol needs: create (optionally sequence-suffixed), list
//     children, stat, and delete
//   - Pluggable engine architecture so a fully in-memory engine can back
//     unit tests without a live external service
//
// Key Components:
//
//   - IStore Interface: The core abstraction for interacting with the
//     coordination store. All implementations share this common interface,
//     allowing the protocol to switch between engines without code changes.
//     The interface methods return custom Error types that provide detailed
//     information about operation results.
//
//   - Error System: A structured error reporting mechanism using typed error
//     codes and descriptive messages. The protocol layer makes control-flow
//     decisions on specific codes (RetCNodeExists is success during root
//     initialization, RetCConnection is always fatal) rather than on
//     generic errors.
//
//   - Sequence Contract: Sequential creates append a suffix of exactly
//     SequenceWidth zero-padded decimal digits, unique and strictly
//     increasing per parent. This makes lexicographic ordering of sibling
//     names equal to numeric ordering of their sequence numbers, which the
//     leadership evaluation depends on. The contract is owed by every
//     engine and enforced by the shared conformance suite in
//     lib/store/testing.
//
// Implementations:
//
//	The package includes two implementations of the IStore interface:
//
//	- Memory Store (memstore): A process-local engine holding all nodes in
//	  memory. It is suitable for tests and single-process smoke runs; it
//	  provides no cross-process coordination.
//	  Available in the "github.com/jigneshk/Ops/lib/store/memstore" package.
//
//	- Redis Store (redisstore): An engine mapping the node hierarchy onto a
//	  Redis server, using server-side scripts to keep create and delete
//	  atomic. This is the engine used for real multi-host coordination.
//	  Available in the "github.com/jigneshk/Ops/lib/store/redisstore" package.
//
// This interface-driven approach allows the lock protocol to:
//   - Run its unit tests against the in-memory engine with a manual clock
//   - Handle errors in a consistent and type-safe manner across engines
//   - Abstract storage implementation details from protocol logic
package store
