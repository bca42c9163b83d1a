package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/uxinsight/backend/internal/domain/integration"
)

// InMemorySyncLocker implements integration.SyncLocker with a per-id mutex map.
// Suitable for single-instance deployments; entries are dropped once nobody holds or waits on them.
type InMemorySyncLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// NewInMemorySyncLocker creates a new in-memory sync locker
func NewInMemorySyncLocker() *InMemorySyncLocker {
	return &InMemorySyncLocker{
		locks: make(map[uuid.UUID]*lockEntry),
	}
}

// Acquire implements integration.SyncLocker
func (l *InMemorySyncLocker) Acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &lockEntry{sem: make(chan struct{}, 1)}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.unref(id, entry)
		return nil, integration.ErrSyncLockNotAcquired
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.unref(id, entry)
		})
	}, nil
}

func (l *InMemorySyncLocker) unref(id uuid.UUID, entry *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, id)
	}
}

// Len returns the number of ids currently held or awaited
func (l *InMemorySyncLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var _ integration.SyncLocker = (*InMemorySyncLocker)(nil)
