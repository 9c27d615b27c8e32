package store

import "fmt"

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// NodeStat holds the per-node metadata returned by Stat.
type NodeStat struct {
	// CTimeMillis is the creation time of the node in unix milliseconds,
	// stamped by the store when the node was created.
	CTimeMillis int64
}

// IStore is the generic interface for interacting with a hierarchical
// coordination store. All write operations return only an error (nil on
// success), while read operations return the requested data along with an
// error (nil on success).
//
// Paths are slash-separated ("/oplock/backup.0000000001"). Implementations
// must be safe for concurrent use by multiple processes sharing the same
// backing service.
type IStore interface {
	// Create creates a new node at path holding data. If sequential is true,
	// the store appends a suffix of SequenceWidth zero-padded decimal digits
	// to the supplied path; the suffix is unique and strictly increasing
	// among children of the same parent, and the full resulting path is
	// returned. If sequential is false the path is created verbatim and a
	// *Error with code RetCNodeExists is returned when it already exists.
	Create(path string, data []byte, sequential bool) (string, error)
	// Children returns the names (not full paths) of all children of path.
	// A missing or empty parent yields an empty slice, not an error.
	Children(path string) ([]string, error)
	// Stat returns the metadata for the node at path. The boolean return
	// value indicates whether the node exists; a missing node is not an
	// error.
	Stat(path string) (stat NodeStat, found bool, err error)
	// Delete removes the node at path. Deleting a path that does not exist
	// is a no-op, not an error.
	Delete(path string) error
	// Close releases any resources held by the store.
	Close() error
}

// SequenceWidth is the fixed number of decimal digits in a store-assigned
// sequence suffix. Lexicographic ordering of sibling names equals numeric
// ordering of their sequence numbers only while every suffix has exactly
// this width; both engines reject creates that would overflow it.
const SequenceWidth = 10

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCInternalError:
		errorCode = "InternalError"
	case RetCNodeExists:
		errorCode = "NodeExists"
	case RetCConnection:
		errorCode = "Connection"
	case RetCSequenceOverflow:
		errorCode = "SequenceOverflow"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("StoreError (code %s): %s", errorCode, e.Msg)
}

// NewError creates a new store Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// IsCode reports whether err is a store Error carrying the given code.
func IsCode(err error, code RetCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess          RetCode = iota // 0: Command executed successfully.
	RetCInternalError                   // 1: Command failed due to an internal error.
	RetCNodeExists                      // 2: A non-sequential create targeted an existing path.
	RetCConnection                      // 3: The store could not be reached or the call timed out.
	RetCSequenceOverflow                // 4: The per-parent sequence counter outgrew SequenceWidth digits.
)
