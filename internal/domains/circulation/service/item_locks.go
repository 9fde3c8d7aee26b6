package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// itemLocks serializes engine operations per item.
// Entry bị xóa khi không còn ai giữ hoặc chờ, map không phình theo số item đã từng đụng tới.
type itemLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*itemLockEntry
}

type itemLockEntry struct {
	sem  chan struct{}
	refs int
}

func newItemLocks() *itemLocks {
	return &itemLocks{entries: make(map[uuid.UUID]*itemLockEntry)}
}

// lock blocks until the item is free or ctx is done.
func (l *itemLocks) lock(ctx context.Context, id uuid.UUID) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[id]
	if !ok {
		e = &itemLockEntry{sem: make(chan struct{}, 1)}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			l.release(id, e)
		}, nil
	case <-ctx.Done():
		l.release(id, e)
		return nil, ctx.Err()
	}
}

func (l *itemLocks) release(id uuid.UUID, e *itemLockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, id)
	}
}

// size returns the number of items currently held or awaited.
func (l *itemLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
