package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// lockWait bounds how long an operation waits to enter an order's critical
// section before the caller retries or gives up.
const lockWait = 2 * time.Second

// keyedLocks serializes all mutating operations on the same order (or, for
// order creation, the same table) while leaving different keys fully
// parallel. Entries are reference-counted so the map does not grow with
// every order ever touched.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	token chan struct{} // capacity 1; holding the token is holding the lock
	refs  int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[uuid.UUID]*lockEntry)}
}

// Acquire blocks until the key's critical section is free, the wait budget
// runs out, or ctx is done. On success the returned release function must be
// called exactly once.
func (k *keyedLocks) Acquire(ctx context.Context, key uuid.UUID) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{token: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	timer := time.NewTimer(lockWait)
	defer timer.Stop()

	select {
	case e.token <- struct{}{}:
		return func() {
			<-e.token
			k.release(key, e)
		}, nil
	case <-timer.C:
		k.release(key, e)
		return nil, ErrConcurrencyConflict
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}
}

func (k *keyedLocks) release(key uuid.UUID, e *lockEntry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}
