package lock

import (
	"fmt"
	"strings"

	"github.com/jigneshk/Ops/lib/store"
)

// attemptPrefix returns the child-name prefix shared by all attempt nodes
// of a lock name.
func attemptPrefix(lockName string) string {
	return lockName + "."
}

// validateLockName rejects names that cannot form a valid child node name.
func validateLockName(lockName string) error {
	if lockName == "" {
		return fmt.Errorf("lock name must not be empty")
	}
	if strings.Contains(lockName, "/") {
		return fmt.Errorf("lock name %q must not contain '/'", lockName)
	}
	return nil
}

// validateSequenced checks that the store honoured the fixed-width sequence
// contract on the returned attempt path: the suffix after "<lockname>." must
// be exactly store.SequenceWidth decimal digits. A violation would break the
// lexicographic ordering the leadership evaluation sorts by.
func validateSequenced(path, lockName string) error {
	_, name := store.SplitPath(path)
	suffix, ok := strings.CutPrefix(name, attemptPrefix(lockName))
	if !ok {
		return fmt.Errorf("attempt node %q does not carry prefix %q", name, attemptPrefix(lockName))
	}
	if len(suffix) != store.SequenceWidth {
		return fmt.Errorf("attempt node %q: sequence suffix %q is not %d digits wide", name, suffix, store.SequenceWidth)
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return fmt.Errorf("attempt node %q: sequence suffix %q is not decimal", name, suffix)
		}
	}
	return nil
}
