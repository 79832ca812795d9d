package lock

import (
	"context"
	"sync"
)

// KeyedMutex is an in-process ReferenceLocker. Entries are dropped once no
// caller holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *KeyedMutex) Acquire(ctx context.Context, reference string) (func(), error) {
	k.mu.Lock()
	entry, ok := k.locks[reference]
	if !ok {
		entry = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[reference] = entry
	}
	entry.refs++
	k.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		k.unref(reference, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			k.unref(reference, entry)
		})
	}, nil
}

func (k *KeyedMutex) unref(reference string, entry *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, reference)
	}
}
