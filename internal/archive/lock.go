package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"animethreads/internal/services"
)

// LockFileName is the advisory lock file kept in the archive directory.
const LockFileName = ".lock"

// Lock is a held archive directory lock.
type Lock struct {
	lock *flock.Flock
}

// AcquireLock takes the archive directory lock without blocking. It fails
// when another process already holds it.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	lockPath := filepath.Join(dir, LockFileName)
	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire archive lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "lock",
			"another animethreads run holds "+lockPath, nil)
	}
	return &Lock{lock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	if l == nil || l.lock == nil {
		return ""
	}
	return l.lock.Path()
}

// Release unlocks the archive directory.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
