package lock

import "errors"

// Sentinel errors for lock acquisition.
var (
	ErrLockTimeout = errors.New("lock not acquired before context ended")
	ErrLockBackend = errors.New("lock backend failed")
)
