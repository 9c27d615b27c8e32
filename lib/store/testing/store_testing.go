package testing

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/jigneshk/Ops/lib/store"
)

// StoreFactory is a function that creates a new instance of an IStore
// implementation.
type StoreFactory func() store.IStore

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
// Every engine must pass this suite; in particular it enforces the sequence
// contract (fixed width, strictly increasing, lexicographic order equals
// numeric order) that the lock protocol depends on.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Create&Stat", func(t *testing.T) {
			testCreateStat(t, factory())
		})

		t.Run("CreateExisting", func(t *testing.T) {
			testCreateExisting(t, factory())
		})

		t.Run("SequentialCreate", func(t *testing.T) {
			testSequentialCreate(t, factory())
		})

		t.Run("SequenceOrdering", func(t *testing.T) {
			testSequenceOrdering(t, factory())
		})

		t.Run("Children", func(t *testing.T) {
			testChildren(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("ConcurrentSequentialCreate", func(t *testing.T) {
			testConcurrentSequentialCreate(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testCreateStat(t *testing.T, s store.IStore) {
	defer s.Close()

	path, err := s.Create("/locks", nil, false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if path != "/locks" {
		t.Errorf("Expected path /locks, got %s", path)
	}

	stat, found, err := s.Stat("/locks")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !found {
		t.Fatal("Expected node to exist after Create")
	}
	if stat.CTimeMillis <= 0 {
		t.Errorf("Expected positive creation time, got %d", stat.CTimeMillis)
	}

	_, found, err = s.Stat("/does-not-exist")
	if err != nil {
		t.Fatalf("Stat of missing node returned error: %v", err)
	}
	if found {
		t.Error("Expected missing node to report found=false")
	}
}

func testCreateExisting(t *testing.T, s store.IStore) {
	defer s.Close()

	if _, err := s.Create("/locks", nil, false); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err := s.Create("/locks", nil, false)
	if err == nil {
		t.Fatal("Expected error when creating existing node")
	}
	if !store.IsCode(err, store.RetCNodeExists) {
		t.Errorf("Expected RetCNodeExists, got %v", err)
	}
}

func testSequentialCreate(t *testing.T, s store.IStore) {
	defer s.Close()

	if _, err := s.Create("/locks", nil, false); err != nil {
		t.Fatalf("Create root failed: %v", err)
	}

	path, err := s.Create("/locks/job.", []byte("owner"), true)
	if err != nil {
		t.Fatalf("Sequential create failed: %v", err)
	}

	if !strings.HasPrefix(path, "/locks/job.") {
		t.Fatalf("Expected returned path to keep the requested prefix, got %s", path)
	}
	suffix := strings.TrimPrefix(path, "/locks/job.")
	if len(suffix) != store.SequenceWidth {
		t.Errorf("Expected %d-digit suffix, got %q", store.SequenceWidth, suffix)
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			t.Errorf("Expected decimal suffix, got %q", suffix)
			break
		}
	}

	if _, found, _ := s.Stat(path); !found {
		t.Error("Expected sequential node to exist after Create")
	}
}

func testSequenceOrdering(t *testing.T, s store.IStore) {
	defer s.Close()

	if _, err := s.Create("/locks", nil, false); err != nil {
		t.Fatalf("Create root failed: %v", err)
	}

	var paths []string
	for i := 0; i < 20; i++ {
		path, err := s.Create("/locks/job.", nil, true)
		if err != nil {
			t.Fatalf("Sequential create %d failed: %v", i, err)
		}
		paths = append(paths, path)
	}

	// Creation order must equal lexicographic order.
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	for i := range paths {
		if paths[i] != sorted[i] {
			t.Fatalf("Lexicographic order diverged from creation order at %d: %s vs %s", i, paths[i], sorted[i])
		}
	}

	// Suffixes must be strictly increasing.
	prev := ""
	for _, p := range paths {
		suffix := strings.TrimPrefix(p, "/locks/job.")
		if prev != "" && suffix <= prev {
			t.Fatalf("Expected strictly increasing suffixes, got %s after %s", suffix, prev)
		}
		prev = suffix
	}
}

func testChildren(t *testing.T, s store.IStore) {
	defer s.Close()

	if _, err := s.Create("/locks", nil, false); err != nil {
		t.Fatalf("Create root failed: %v", err)
	}

	names, err := s.Children("/locks")
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Expected no children for fresh root, got %v", names)
	}

	var created []string
	for i := 0; i < 3; i++ {
		path, err := s.Create("/locks/backup.", nil, true)
		if err != nil {
			t.Fatalf("Sequential create failed: %v", err)
		}
		_, name := store.SplitPath(path)
		created = append(created, name)
	}
	if _, err := s.Create("/locks/other", nil, false); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	names, err = s.Children("/locks")
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(names) != 4 {
		t.Fatalf("Expected 4 children, got %v", names)
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("Expected sorted child names, got %v", names)
	}
	for _, want := range created {
		found := false
		for _, got := range names {
			if got == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected child %s in %v", want, names)
		}
	}

	// A missing parent yields an empty listing, not an error.
	names, err = s.Children("/no-such-root")
	if err != nil {
		t.Fatalf("Children of missing parent returned error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Expected no children for missing parent, got %v", names)
	}
}

func testDelete(t *testing.T, s store.IStore) {
	defer s.Close()

	if _, err := s.Create("/locks", nil, false); err != nil {
		t.Fatalf("Create root failed: %v", err)
	}
	path, err := s.Create("/locks/job.", nil, true)
	if err != nil {
		t.Fatalf("Sequential create failed: %v", err)
	}

	if err := s.Delete(path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found, _ := s.Stat(path); found {
		t.Error("Expected node to be gone after Delete")
	}
	names, err := s.Children("/locks")
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Expected node removed from sibling set, got %v", names)
	}

	// Deleting again must be a no-op.
	if err := s.Delete(path); err != nil {
		t.Errorf("Expected idempotent delete, got %v", err)
	}
	if err := s.Delete("/locks/never-existed"); err != nil {
		t.Errorf("Expected delete of missing node to succeed, got %v", err)
	}
}

func testConcurrentSequentialCreate(t *testing.T, s store.IStore) {
	defer s.Close()

	if _, err := s.Create("/locks", nil, false); err != nil {
		t.Fatalf("Create root failed: %v", err)
	}

	const (
		workers        = 8
		createsPerWork = 25
	)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	seen := make(map[string]int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < createsPerWork; i++ {
				path, err := s.Create("/locks/job.", []byte(fmt.Sprintf("w%d", worker)), true)
				if err != nil {
					t.Errorf("Concurrent create failed: %v", err)
					return
				}
				mu.Lock()
				seen[path]++
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	if len(seen) != workers*createsPerWork {
		t.Fatalf("Expected %d unique paths, got %d", workers*createsPerWork, len(seen))
	}
	for path, count := range seen {
		if count != 1 {
			t.Errorf("Path %s was returned %d times", path, count)
		}
	}
}
