package inventory

import (
	"context"
	"errors"
	"time"
)

// SyncLockKey is the run-lock key shared by every reconciliation trigger
const SyncLockKey = "stocksync:sync:run"

// ErrSyncAlreadyRunning is returned when another reconciliation holds the run-lock
var ErrSyncAlreadyRunning = errors.New("inventory: sync already running")

// RunLock grants exclusive use of a key for at most ttl.
// ok is false, with a nil error, when another holder has the key.
// release is safe to call more than once and never releases a lock the
// caller no longer holds.
type RunLock interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}
