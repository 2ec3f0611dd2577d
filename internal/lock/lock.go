package lock

import (
	"context"
	"sync"
)

// UnlockFunc releases a lock obtained from a Locker. It is safe to call once.
type UnlockFunc func()

// Locker serializes work on a single license key. Locks on different keys
// never block each other.
type Locker interface {
	Lock(ctx context.Context, key string) (UnlockFunc, error)
}

type entry struct {
	sem  chan struct{}
	refs int
}

// KeyedMutex is an in-process Locker. Entries are dropped once no goroutine
// holds or waits for them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

var _ Locker = (*KeyedMutex)(nil)

func (m *KeyedMutex) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	e := m.acquireEntry(key)

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		m.releaseEntry(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			m.releaseEntry(key, e)
		})
	}, nil
}

func (m *KeyedMutex) acquireEntry(key string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	return e
}

func (m *KeyedMutex) releaseEntry(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
