package fsutil

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrSessionLocked is returned when another watcher already owns the session.
var ErrSessionLocked = errors.New("session already watched by another termidle process")

// SessionLock is an exclusive, non-blocking lock on one watched session.
type SessionLock struct {
	lock *flock.Flock
}

// AcquireSessionLock takes the lock for rootPID or returns ErrSessionLocked.
func AcquireSessionLock(stateDir string, rootPID int32) (*SessionLock, error) {
	if err := EnsureStateDirectory(stateDir); err != nil {
		return nil, err
	}

	fileLock := flock.New(SessionFile(stateDir, rootPID, ".lock"))
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring session lock: %w", err)
	}
	if !locked {
		return nil, ErrSessionLocked
	}
	return &SessionLock{lock: fileLock}, nil
}

// Release drops the lock. Safe to call more than once.
func (l *SessionLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
