// Package locker serializes the validate-then-apply sequence for one auction.
package locker

import (
	"context"
	"sync"
)

// Locker grants exclusive access to a single auction id. The returned unlock
// func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, auctionID string) (func(), error)
}

// KeyedMutex is an in-process Locker holding one mutex per auction id.
// Entries are dropped once no goroutine holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{} // buffered(1); holding the token means holding the lock
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*entry)}
}

// Lock blocks until auctionID is free or ctx is done
func (k *KeyedMutex) Lock(ctx context.Context, auctionID string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[auctionID]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[auctionID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(auctionID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(auctionID, e)
		})
	}, nil
}

func (k *KeyedMutex) release(auctionID string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, auctionID)
	}
}

// size reports how many auction ids currently have an entry
func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
