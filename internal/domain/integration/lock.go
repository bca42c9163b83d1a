package integration

import (
	"context"

	"github.com/google/uuid"
)

// SyncLocker serializes status transitions per integration id within and across processes.
// The lock covers only the read-decide-write section around a status change,
// never the provider call itself.
type SyncLocker interface {
	// Acquire blocks until the lock for id is held or ctx is done.
	// On ctx expiry it returns ErrSyncLockNotAcquired.
	// The returned release func is safe to call more than once.
	Acquire(ctx context.Context, id uuid.UUID) (release func(), err error)
}
