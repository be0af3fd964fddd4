package session

import "sync"

// Locker hands out one mutex per key. Entries are dropped once no goroutine
// holds or waits on them.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*refLock)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (l *Locker) Lock(key string) func() {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &refLock{}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()

	return func() {
		lk.mu.Unlock()

		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
