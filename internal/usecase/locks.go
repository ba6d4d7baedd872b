package usecase

import "sync"

// threadLocks serializes routing cycles per thread id. Two concurrent
// requests for the same thread would otherwise race on the store's
// load/save and collide on message sequence keys; requests for different
// threads proceed fully in parallel.
type threadLocks struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

func newThreadLocks() *threadLocks {
	return &threadLocks{locks: make(map[string]*threadLock)}
}

// acquire blocks until the lock for threadID is held and returns the
// release function. The entry is removed once the last holder releases, so
// the map does not grow with the number of threads ever seen.
func (t *threadLocks) acquire(threadID string) func() {
	t.mu.Lock()
	l, ok := t.locks[threadID]
	if !ok {
		l = &threadLock{}
		t.locks[threadID] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, threadID)
		}
		t.mu.Unlock()
	}
}
