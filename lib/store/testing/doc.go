// Package testing provides a shared conformance test suite for IStore
// implementations. Every engine runs the same suite from its own package
// test, so the store contract (in particular the fixed-width sequence
// numbering that the leadership evaluation relies on) stays identical across
// engines instead of being re-asserted ad hoc in each one.
package testing
