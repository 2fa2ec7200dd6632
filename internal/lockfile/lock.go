// Package lockfile provides best-effort advisory file locking for the
// archive index. Locking is flock-based where the platform supports it and a
// no-op elsewhere; it narrows, but does not close, the concurrent-invocation
// window on shared index files.
package lockfile

import (
	"errors"
	"fmt"
	"os"
)

// ErrLockBusy is returned by non-blocking acquisition when another process
// holds the lock.
var ErrLockBusy = errors.New("lock already held by another process")

// Lock is a held advisory lock backed by an open lock file.
type Lock struct {
	file *os.File
	path string
}

// Acquire opens (creating if needed) the lock file at path and takes an
// exclusive blocking lock on it.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600) // #nosec G304 - lock path from archive root
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}
	if err := flockExclusiveBlocking(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return &Lock{file: f, path: path}, nil
}

// TryAcquire is the non-blocking variant of Acquire. Returns ErrLockBusy if
// the lock is held elsewhere.
func TryAcquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600) // #nosec G304 - lock path from archive root
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}
	if err := flockExclusiveNonBlocking(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Lock{file: f, path: path}, nil
}

// Release unlocks and closes the lock file. The file itself is left on disk;
// removing it would race with other acquirers.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := flockUnlock(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
