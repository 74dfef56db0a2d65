// Package keylock provides mutual exclusion keyed by string (e.g. user ID).
//
// Read-modify-write operations on one user's profile or calendar must not
// interleave; operations on different users never contend.
package keylock

import (
	"context"
	"sync"
)

// KeyedMutex hands out one lock per key. Entries are reference counted and
// removed once no goroutine holds or waits on them, so memory stays bounded
// by the number of keys currently in use.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	// ch is a 1-slot semaphore so acquisition can honor context cancellation.
	ch   chan struct{}
	refs int
}

// New creates an empty KeyedMutex.
func New() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

// Lock blocks until the lock for key is held or ctx is done. On success the
// returned function releases the lock and must be called exactly once.
//
// Example:
//
//	unlock, err := locks.Lock(ctx, userID)
//	if err != nil {
//	    return err
//	}
//	defer unlock()
func (km *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	e := km.acquire(key)

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		km.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			km.release(key, e)
		})
	}, nil
}

func (km *KeyedMutex) acquire(key string) *entry {
	km.mu.Lock()
	defer km.mu.Unlock()

	e, ok := km.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		km.entries[key] = e
	}
	e.refs++
	return e
}

func (km *KeyedMutex) release(key string, e *entry) {
	km.mu.Lock()
	defer km.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(km.entries, key)
	}
}

// Len returns the number of keys currently held or awaited.
func (km *KeyedMutex) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.entries)
}
