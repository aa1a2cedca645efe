package workflow

import "sync"

// opLock is the per-operation mutual exclusion guarding duplicate
// submissions: acquired before a network call, released in a deferred
// cleanup so it clears on both success and failure paths.
type opLock struct {
	mu   sync.Mutex
	busy bool
}

// acquire marks the operation in flight. It reports false when the
// operation is already running.
func (l *opLock) acquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return false
	}
	l.busy = true
	return true
}

func (l *opLock) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
}

func (l *opLock) isBusy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.busy
}
