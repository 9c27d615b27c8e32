package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"pkt.systems/pslog"

	"github.com/jigneshk/Ops/lib/clock"
	"github.com/jigneshk/Ops/lib/store"
)

const (
	// DefaultRoot is the lock root path used when none is configured.
	DefaultRoot = "/oplock"
	// DefaultTTL is the age threshold beyond which an attempt node is
	// considered abandoned and eligible for reclamation.
	DefaultTTL = 30 * time.Second
)

// Config holds the parameters of a Locker. Zero values select the
// documented defaults.
type Config struct {
	// Root is the path under which all attempt nodes for all lock names live.
	Root string
	// TTL is the stale-attempt reclamation threshold.
	TTL time.Duration
	// Clock supplies "now" for age computation. Defaults to the real clock.
	Clock clock.Clock
	// Logger receives step-by-step diagnostics. Defaults to a no-op logger.
	Logger pslog.Logger
}

// attemptPayload is stored in each attempt node. It identifies the creating
// process for operators; no protocol decision reads it back.
type attemptPayload struct {
	Owner string `json:"owner"`
	Host  string `json:"host"`
}

type lockerImpl struct {
	store  store.IStore
	root   string
	ttl    time.Duration
	clock  clock.Clock
	logger pslog.Logger
}

// NewLocker creates a locker on top of the given store. The locker keeps no
// state of its own between calls; all durable state lives in the store, so
// any number of lockers may be created over the same backend.
func NewLocker(s store.IStore, cfg Config) ILocker {
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = pslog.NoopLogger()
	}
	return &lockerImpl{
		store:  s,
		root:   cfg.Root,
		ttl:    cfg.TTL,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}
}

func (l *lockerImpl) Acquire(lockName string) (bool, error) {
	if err := validateLockName(lockName); err != nil {
		return false, err
	}

	if err := l.ensureRoot(); err != nil {
		return false, err
	}

	l.reapStale(lockName)

	myPath, err := l.createAttempt(lockName)
	if err != nil {
		return false, err
	}

	leader, err := l.isLeader(myPath, lockName)
	if err != nil {
		// No rollback: the attempt node stays behind and is cleared by a
		// future reap cycle.
		return false, err
	}

	if !leader {
		l.releaseOnLoss(myPath)
		return false, nil
	}

	// The node is deliberately left in place as the durable marker of the
	// held lock; only a future reap removes it.
	l.logger.Debug("lock acquired", "lock", lockName, "node", myPath)
	return true, nil
}

// --------------------------------------------------------------------------
// Protocol steps
// --------------------------------------------------------------------------

// ensureRoot idempotently creates the lock root. Pre-existence is success;
// any other failure is fatal.
func (l *lockerImpl) ensureRoot() error {
	_, err := l.store.Create(l.root, nil, false)
	if err != nil && !store.IsCode(err, store.RetCNodeExists) {
		return fmt.Errorf("ensure root %s: %w", l.root, err)
	}
	l.logger.Debug("root ensured", "root", l.root)
	return nil
}

// reapStale deletes sibling attempt nodes for lockName older than the TTL.
// Every failure inside the loop is a lost race with a concurrent deleter and
// is skipped; reapStale itself never fails the protocol.
func (l *lockerImpl) reapStale(lockName string) {
	names, err := l.store.Children(l.root)
	if err != nil {
		l.logger.Warn("reap: listing siblings failed", "root", l.root, "error", err)
		return
	}

	prefix := attemptPrefix(lockName)
	now := l.clock.Now()

	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		path := store.JoinPath(l.root, name)

		stat, found, err := l.store.Stat(path)
		if err != nil {
			l.logger.Debug("reap: stat failed, skipping", "node", path, "error", err)
			continue
		}
		if !found {
			// Another participant already removed it.
			continue
		}

		age := now.Sub(time.UnixMilli(stat.CTimeMillis))
		if age <= l.ttl {
			continue
		}
		if err := l.store.Delete(path); err != nil {
			l.logger.Debug("reap: delete failed, skipping", "node", path, "error", err)
			continue
		}
		l.logger.Debug("reaped stale attempt", "node", path, "age", age)
	}
}

// createAttempt creates this process's sequenced candidate node. The
// returned path is the process's identity for the rest of the protocol.
func (l *lockerImpl) createAttempt(lockName string) (string, error) {
	host, _ := os.Hostname()
	payload, err := json.Marshal(attemptPayload{
		Owner: uuid.NewString(),
		Host:  host,
	})
	if err != nil {
		return "", fmt.Errorf("encode attempt payload: %w", err)
	}

	path, err := l.store.Create(store.JoinPath(l.root, attemptPrefix(lockName)), payload, true)
	if err != nil {
		return "", fmt.Errorf("create attempt for %s: %w", lockName, err)
	}

	// The ordering of the leadership evaluation is only valid while every
	// suffix has the fixed width, so the store's naming is checked rather
	// than assumed.
	if err := validateSequenced(path, lockName); err != nil {
		return "", err
	}

	l.logger.Debug("attempt created", "lock", lockName, "node", path)
	return path, nil
}

// isLeader reports whether myPath is the lexicographically first live
// sibling for lockName. The decision is made from a single snapshot and is
// not re-validated afterwards.
func (l *lockerImpl) isLeader(myPath, lockName string) (bool, error) {
	names, err := l.store.Children(l.root)
	if err != nil {
		return false, fmt.Errorf("list siblings for %s: %w", lockName, err)
	}

	prefix := attemptPrefix(lockName)
	siblings := names[:0:0]
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			siblings = append(siblings, name)
		}
	}
	if len(siblings) == 0 {
		return false, nil
	}
	sort.Strings(siblings)

	first := store.JoinPath(l.root, siblings[0])
	l.logger.Debug("leadership evaluated", "lock", lockName, "first", first, "self", myPath, "siblings", len(siblings))
	return first == myPath, nil
}

// releaseOnLoss deletes the caller's own attempt node after a lost
// evaluation. Failure is logged only; the outcome remains a loss.
func (l *lockerImpl) releaseOnLoss(myPath string) {
	if err := l.store.Delete(myPath); err != nil {
		l.logger.Warn("cleanup: deleting own attempt failed", "node", myPath, "error", err)
		return
	}
	l.logger.Debug("own attempt removed after loss", "node", myPath)
}
