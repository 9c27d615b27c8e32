package lock

// ILocker defines the interface for the single-shot lock protocol.
type ILocker interface {
	// Acquire runs one complete acquisition attempt for the given lock name.
	// It returns true when this process became the leader, false when the
	// race was lost cleanly. A non-nil error reports a fatal condition
	// (connection loss, root initialization failure, attempt creation
	// failure); fatal conditions are also a failed acquisition and are never
	// retried internally.
	Acquire(lockName string) (acquired bool, err error)
}
