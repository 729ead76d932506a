package revision

import (
	"context"
	"sync"
)

// Locker guards the one-pending-revision-per-project invariant across
// processes. The redis store implements it; when unconfigured the engine
// relies on its in-process locks alone.
type Locker interface {
	TryLock(ctx context.Context, projectID string) (bool, error)
	Unlock(ctx context.Context, projectID string) error
}

type memoryLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newMemoryLocks() *memoryLocks {
	return &memoryLocks{held: make(map[string]struct{})}
}

func (l *memoryLocks) TryLock(_ context.Context, projectID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[projectID]; ok {
		return false, nil
	}
	l.held[projectID] = struct{}{}
	return true, nil
}

func (l *memoryLocks) Unlock(_ context.Context, projectID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, projectID)
	return nil
}
