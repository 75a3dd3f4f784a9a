package scanlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process is already analyzing the scan.
var ErrLocked = errors.New("scan is locked by another process")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Locker hands out per-scan file locks under a directory.
type Locker struct {
	dir string
}

// New returns a Locker that keeps lock files in dir.
func New(dir string) *Locker {
	return &Locker{dir: dir}
}

// Lock is a held per-scan lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks the scan. The lock file is left in place; removing it
// would let a waiter and a new opener lock different inodes.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release scan lock: %w", err)
	}
	return nil
}

// TryAcquire takes the lock for scanID without waiting.
func (lk *Locker) TryAcquire(scanID string) (*Lock, error) {
	fl, path, err := lk.prepare(scanID)
	if err != nil {
		return nil, err
	}
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, scanID)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Acquire waits for the lock on scanID until ctx is done, polling every
// retry interval.
func (lk *Locker) Acquire(ctx context.Context, scanID string, retry time.Duration) (*Lock, error) {
	fl, path, err := lk.prepare(scanID)
	if err != nil {
		return nil, err
	}
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	ok, err := fl.TryLockContext(ctx, retry)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", ErrLocked, scanID)
		}
		return nil, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, scanID)
	}
	return &Lock{path: path, lock: fl}, nil
}

func (lk *Locker) prepare(scanID string) (*flock.Flock, string, error) {
	if scanID == "" {
		return nil, "", errors.New("acquire scan lock: empty scan id")
	}
	if err := os.MkdirAll(lk.dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create lock dir: %w", err)
	}
	path := filepath.Join(lk.dir, unsafeChars.ReplaceAllString(scanID, "_")+".lock")
	return flock.New(path), path, nil
}
