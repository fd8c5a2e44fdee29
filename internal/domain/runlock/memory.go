package runlock

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	runID    string
	expireAt time.Time
}

type memoryLocker struct {
	mu    sync.Mutex
	locks map[string]memoryEntry
	ttl   time.Duration
}

// NewMemory is the in-process fallback when redis is disabled. It only
// guards runs within this process.
func NewMemory(ttl time.Duration) Locker {
	return &memoryLocker{
		locks: make(map[string]memoryEntry),
		ttl:   ttl,
	}
}

func (l *memoryLocker) Acquire(ctx context.Context, userID string, questionNum int, runID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := lockKey(userID, questionNum)
	if entry, held := l.locks[key]; held && time.Now().Before(entry.expireAt) {
		return false, nil
	}
	l.locks[key] = memoryEntry{runID: runID, expireAt: time.Now().Add(l.ttl)}
	return true, nil
}

func (l *memoryLocker) Release(ctx context.Context, userID string, questionNum int, runID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := lockKey(userID, questionNum)
	if entry, held := l.locks[key]; held && entry.runID == runID {
		delete(l.locks, key)
	}
	return nil
}

func (l *memoryLocker) Close(ctx context.Context) error {
	return nil
}
