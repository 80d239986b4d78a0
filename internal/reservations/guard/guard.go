package guard

import (
	"context"
	"sync"
)

// ResourceGuard serializes conflicting operations on the same resource id.
// Different resources proceed fully in parallel; two holders of the same id
// are mutually exclusive for the duration between Acquire and the returned
// release func.
type ResourceGuard interface {
	Acquire(ctx context.Context, resourceID string) (release func(), err error)
}

// KeyedMutex is the in-process guard: one semaphore per live resource id,
// reference counted so idle entries do not accumulate.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*entry),
	}
}

func (k *KeyedMutex) Acquire(ctx context.Context, resourceID string) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[resourceID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.entries[resourceID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() { k.release(resourceID, e) }, nil
	case <-ctx.Done():
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, resourceID)
		}
		k.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (k *KeyedMutex) release(resourceID string, e *entry) {
	<-e.sem

	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, resourceID)
	}
	k.mu.Unlock()
}
