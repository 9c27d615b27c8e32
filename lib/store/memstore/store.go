package memstore

import (
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/jigneshk/Ops/lib/clock"
	"github.com/jigneshk/Ops/lib/store"
)

const engineName = "mem"

// maxSequence is the first value that no longer fits in SequenceWidth digits.
const maxSequence uint64 = 10_000_000_000

// node is a single stored entry.
type node struct {
	data  []byte
	ctime int64 // unix milliseconds
}

type memStore struct {
	clock clock.Clock
	nodes *xsync.MapOf[string, node]   // full path -> node
	seqs  *xsync.MapOf[string, uint64] // parent path -> last assigned sequence
}

// New creates a new in-memory store instance. If clk is nil the real clock
// is used. The store only coordinates goroutines of a single process; it is
// primarily meant for tests and smoke runs.
func New(clk clock.Clock) store.IStore {
	if clk == nil {
		clk = clock.Real{}
	}
	return &memStore{
		clock: clk,
		nodes: xsync.NewMapOf[string, node](),
		seqs:  xsync.NewMapOf[string, uint64](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *memStore) Create(path string, data []byte, sequential bool) (string, error) {
	store.CountOp(engineName, "create")

	if !sequential {
		if _, loaded := s.nodes.LoadOrStore(path, node{data: data, ctime: s.nowMillis()}); loaded {
			store.CountError(engineName, "create")
			return "", store.NewError(store.RetCNodeExists, fmt.Sprintf("node %s already exists", path))
		}
		return path, nil
	}

	parent, _ := store.SplitPath(path)

	// Atomic per-parent increment; uniqueness of the resulting name follows
	// from the counter never handing out the same value twice.
	seq, _ := s.seqs.Compute(parent, func(old uint64, _ bool) (uint64, bool) {
		return old + 1, false
	})
	if seq >= maxSequence {
		store.CountError(engineName, "create")
		return "", store.NewError(store.RetCSequenceOverflow, fmt.Sprintf("sequence %d does not fit in %d digits", seq, store.SequenceWidth))
	}

	full := fmt.Sprintf("%s%0*d", path, store.SequenceWidth, seq)
	s.nodes.Store(full, node{data: data, ctime: s.nowMillis()})
	return full, nil
}

func (s *memStore) Children(path string) ([]string, error) {
	store.CountOp(engineName, "children")

	names := make([]string, 0)
	s.nodes.Range(func(key string, _ node) bool {
		parent, name := store.SplitPath(key)
		if parent == path && name != "" {
			names = append(names, name)
		}
		return true
	})
	sort.Strings(names)
	return names, nil
}

func (s *memStore) Stat(path string) (store.NodeStat, bool, error) {
	store.CountOp(engineName, "stat")

	n, ok := s.nodes.Load(path)
	if !ok {
		return store.NodeStat{}, false, nil
	}
	return store.NodeStat{CTimeMillis: n.ctime}, true, nil
}

func (s *memStore) Delete(path string) error {
	store.CountOp(engineName, "delete")

	// Idempotent: deleting a missing node is a no-op.
	s.nodes.Delete(path)
	return nil
}

func (s *memStore) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func (s *memStore) nowMillis() int64 {
	return s.clock.Now().UnixMilli()
}

// Endpoint is the endpoint scheme that selects this engine on the command
// line (e.g. "mem://").
const Endpoint = "mem://"
