package lock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jigneshk/Ops/lib/clock"
	"github.com/jigneshk/Ops/lib/store"
	"github.com/jigneshk/Ops/lib/store/memstore"
)

func newTestLocker(t *testing.T, s store.IStore, clk clock.Clock, ttl time.Duration) *lockerImpl {
	t.Helper()
	l := NewLocker(s, Config{
		Root:  "/oplock",
		TTL:   ttl,
		Clock: clk,
	})
	return l.(*lockerImpl)
}

// --------------------------------------------------------------------------
// Step-level tests
// --------------------------------------------------------------------------

func TestEnsureRootIdempotent(t *testing.T) {
	s := memstore.New(nil)
	defer s.Close()
	l := newTestLocker(t, s, nil, DefaultTTL)

	require.NoError(t, l.ensureRoot())
	// A second call must not be treated as an error.
	require.NoError(t, l.ensureRoot())

	_, found, err := s.Stat("/oplock")
	require.NoError(t, err)
	assert.True(t, found, "root should exist")
}

func TestReapBoundary(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewManual(start)
	s := memstore.New(clk)
	defer s.Close()

	ttl := 30 * time.Second
	l := newTestLocker(t, s, clk, ttl)
	require.NoError(t, l.ensureRoot())

	path, err := l.createAttempt("backup")
	require.NoError(t, err)

	// age = ttl-1: never deleted.
	clk.Advance(ttl - time.Second)
	l.reapStale("backup")
	_, found, err := s.Stat(path)
	require.NoError(t, err)
	assert.True(t, found, "node younger than TTL must survive reaping")

	// age = ttl exactly: the threshold is strictly greater-than.
	clk.Set(start.Add(ttl))
	l.reapStale("backup")
	_, found, err = s.Stat(path)
	require.NoError(t, err)
	assert.True(t, found, "node aged exactly TTL must survive reaping")

	// age = ttl+1: always deleted.
	clk.Set(start.Add(ttl + time.Second))
	l.reapStale("backup")
	_, found, err = s.Stat(path)
	require.NoError(t, err)
	assert.False(t, found, "node older than TTL must be reaped")
}

func TestReapIgnoresOtherLockNames(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewManual(start)
	s := memstore.New(clk)
	defer s.Close()

	l := newTestLocker(t, s, clk, 30*time.Second)
	require.NoError(t, l.ensureRoot())

	backup, err := l.createAttempt("backup")
	require.NoError(t, err)
	report, err := l.createAttempt("report")
	require.NoError(t, err)

	clk.Advance(time.Minute)
	l.reapStale("backup")

	_, found, err := s.Stat(backup)
	require.NoError(t, err)
	assert.False(t, found, "stale backup attempt should be reaped")
	_, found, err = s.Stat(report)
	require.NoError(t, err)
	assert.True(t, found, "sibling of a different lock name must be left alone")
}

// --------------------------------------------------------------------------
// Whole-protocol tests
// --------------------------------------------------------------------------

func TestAcquireAloneWins(t *testing.T) {
	s := memstore.New(nil)
	defer s.Close()
	l := newTestLocker(t, s, nil, DefaultTTL)

	acquired, err := l.Acquire("backup")
	require.NoError(t, err)
	assert.True(t, acquired)

	// The winner's node stays behind as the marker of the held lock.
	names, err := s.Children("/oplock")
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.NoError(t, validateSequenced(store.JoinPath("/oplock", names[0]), "backup"))
}

func TestSecondAttemptLosesAndCleansUp(t *testing.T) {
	s := memstore.New(nil)
	defer s.Close()

	winner := newTestLocker(t, s, nil, DefaultTTL)
	acquired, err := winner.Acquire("backup")
	require.NoError(t, err)
	require.True(t, acquired)

	names, err := s.Children("/oplock")
	require.NoError(t, err)
	require.Len(t, names, 1)
	winnerNode := names[0]

	loser := newTestLocker(t, s, nil, DefaultTTL)
	acquired, err = loser.Acquire("backup")
	require.NoError(t, err)
	assert.False(t, acquired)

	// The loser's own node no longer exists in the sibling set.
	names, err = s.Children("/oplock")
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, winnerNode, names[0])
}

func TestMutualExclusion(t *testing.T) {
	s := memstore.New(nil)
	defer s.Close()

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := NewLocker(s, Config{Root: "/oplock", TTL: DefaultTTL})
			acquired, err := l.Acquire("backup")
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			if acquired {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one concurrent attempt may win")

	names, err := s.Children("/oplock")
	require.NoError(t, err)
	assert.Len(t, names, 1, "losers must have removed their own nodes")
}

func TestEndToEndScenario(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewManual(start)
	s := memstore.New(clk)
	defer s.Close()

	ttl := 30 * time.Second

	// t=0: process A is alone among siblings and wins.
	a := newTestLocker(t, s, clk, ttl)
	acquired, err := a.Acquire("backup")
	require.NoError(t, err)
	require.True(t, acquired, "A should win an empty root")

	names, err := s.Children("/oplock")
	require.NoError(t, err)
	require.Len(t, names, 1)
	nodeA := names[0]

	// t=20: A's node is 20s old, below the TTL, so B observes it and loses.
	clk.Set(start.Add(20 * time.Second))
	b := newTestLocker(t, s, clk, ttl)
	acquired, err = b.Acquire("backup")
	require.NoError(t, err)
	assert.False(t, acquired, "B should lose against A's live node")

	names, err = s.Children("/oplock")
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, nodeA, names[0], "only A's node should remain after B's loss")

	// t=40: A's node is 40s old, beyond the TTL; C reaps it and wins.
	clk.Set(start.Add(40 * time.Second))
	c := newTestLocker(t, s, clk, ttl)
	acquired, err = c.Acquire("backup")
	require.NoError(t, err)
	assert.True(t, acquired, "C should win after reaping A's stale node")

	names, err = s.Children("/oplock")
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.NotEqual(t, nodeA, names[0], "A's node should have been reaped")
}

func TestInvalidLockName(t *testing.T) {
	s := memstore.New(nil)
	defer s.Close()
	l := newTestLocker(t, s, nil, DefaultTTL)

	for _, name := range []string{"", "a/b"} {
		acquired, err := l.Acquire(name)
		assert.Error(t, err, "name %q", name)
		assert.False(t, acquired)
	}
}

// --------------------------------------------------------------------------
// Failure injection
// --------------------------------------------------------------------------

// flakyStore wraps an IStore and fails selected operations.
type flakyStore struct {
	store.IStore

	mu               sync.Mutex
	failSeqCreate    bool
	failDelete       bool
	childrenCalls    int
	failChildrenFrom int // fail the Nth and later Children calls; 0 disables
	failChildrenOnly int // fail exactly the Nth Children call; 0 disables

	phantomChild string // extra name reported by Children but absent from the store
	statErrOn    string // path whose Stat fails
	deleteErrOn  string // path whose Delete fails

	deleteCalls []string
}

func (f *flakyStore) Create(path string, data []byte, sequential bool) (string, error) {
	if sequential && f.failSeqCreate {
		return "", store.NewError(store.RetCConnection, "create: injected failure")
	}
	return f.IStore.Create(path, data, sequential)
}

func (f *flakyStore) Children(path string) ([]string, error) {
	f.mu.Lock()
	f.childrenCalls++
	calls := f.childrenCalls
	f.mu.Unlock()
	if f.failChildrenFrom > 0 && calls >= f.failChildrenFrom {
		return nil, store.NewError(store.RetCConnection, "children: injected failure")
	}
	if f.failChildrenOnly > 0 && calls == f.failChildrenOnly {
		return nil, store.NewError(store.RetCConnection, "children: injected failure")
	}
	names, err := f.IStore.Children(path)
	if err == nil && f.phantomChild != "" {
		names = append(names, f.phantomChild)
	}
	return names, err
}

func (f *flakyStore) Stat(path string) (store.NodeStat, bool, error) {
	if f.statErrOn == path {
		return store.NodeStat{}, false, store.NewError(store.RetCConnection, "stat: injected failure")
	}
	return f.IStore.Stat(path)
}

func (f *flakyStore) Delete(path string) error {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, path)
	f.mu.Unlock()
	if f.failDelete || f.deleteErrOn == path {
		return store.NewError(store.RetCConnection, "delete: injected failure")
	}
	return f.IStore.Delete(path)
}

func TestAttemptCreateFailureIsFatal(t *testing.T) {
	s := &flakyStore{IStore: memstore.New(nil), failSeqCreate: true}
	defer s.Close()
	l := newTestLocker(t, s, nil, DefaultTTL)

	acquired, err := l.Acquire("backup")
	assert.Error(t, err)
	assert.False(t, acquired)
}

func TestEvaluationFailureLeavesNodeBehind(t *testing.T) {
	// Children succeeds for the reap step and fails for the evaluation
	// snapshot. The attempt node must stay behind for a future reap cycle.
	s := &flakyStore{IStore: memstore.New(nil), failChildrenFrom: 2}
	defer s.Close()
	l := newTestLocker(t, s, nil, DefaultTTL)

	acquired, err := l.Acquire("backup")
	assert.Error(t, err)
	assert.False(t, acquired)

	names, err := s.IStore.Children("/oplock")
	require.NoError(t, err)
	assert.Len(t, names, 1, "no rollback of the created attempt on fatal errors")
}

func TestReapSkipsRacedSiblings(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewManual(start)
	inner := memstore.New(clk)

	s := &flakyStore{IStore: inner}
	defer s.Close()
	l := newTestLocker(t, s, clk, 30*time.Second)
	require.NoError(t, l.ensureRoot())

	statRaced, err := l.createAttempt("backup")
	require.NoError(t, err)
	deleteRaced, err := l.createAttempt("backup")
	require.NoError(t, err)
	reapable, err := l.createAttempt("backup")
	require.NoError(t, err)

	s.statErrOn = statRaced
	s.deleteErrOn = deleteRaced
	// A sibling another participant removed between the listing and the stat.
	s.phantomChild = "backup.9999999999"

	clk.Advance(time.Minute)
	l.reapStale("backup")

	// A failed stat skips the node without aborting the sweep.
	_, found, err := inner.Stat(statRaced)
	require.NoError(t, err)
	assert.True(t, found, "node with a failing stat must be skipped, not deleted")

	// A failed delete is a lost race; the node is left for the next cycle.
	_, found, err = inner.Stat(deleteRaced)
	require.NoError(t, err)
	assert.True(t, found, "node with a failing delete must survive in the store")

	// Unraced stale siblings in the same sweep are still reclaimed.
	_, found, err = inner.Stat(reapable)
	require.NoError(t, err)
	assert.False(t, found, "unraced stale node must still be reaped")

	// The vanished sibling is skipped before any delete is attempted.
	assert.NotContains(t, s.deleteCalls, store.JoinPath("/oplock", s.phantomChild))
}

func TestAcquireSurvivesReapListFailure(t *testing.T) {
	// The reaper's own listing fails; the sweep is abandoned without failing
	// the protocol and the acquisition still runs to a verdict.
	s := &flakyStore{IStore: memstore.New(nil), failChildrenOnly: 1}
	defer s.Close()
	l := newTestLocker(t, s, nil, DefaultTTL)

	acquired, err := l.Acquire("backup")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestCleanupDeleteFailureIsStillALoss(t *testing.T) {
	inner := memstore.New(nil)
	winner := newTestLocker(t, inner, nil, DefaultTTL)
	acquired, err := winner.Acquire("backup")
	require.NoError(t, err)
	require.True(t, acquired)

	s := &flakyStore{IStore: inner, failDelete: true}
	defer s.Close()
	loser := newTestLocker(t, s, nil, DefaultTTL)

	acquired, err = loser.Acquire("backup")
	require.NoError(t, err, "a failed cleanup delete is logged, not fatal")
	assert.False(t, acquired)

	names, err := inner.Children("/oplock")
	require.NoError(t, err)
	assert.Len(t, names, 2, "the loser's node survives the failed delete")
}
