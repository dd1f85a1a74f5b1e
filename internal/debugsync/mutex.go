// Package debugsync provides wrappers around the standard synchronization
// primitives that log when a lock is awaited or held for too long.
package debugsync

import (
	"sync"
)

// A Mutex is a mutual exclusion lock.
// The zero value for a Mutex is an unlocked mutex.
//
// A Mutex must not be copied after first use.
type Mutex struct {
	mutex     sync.Mutex
	unlocking chan struct{}
}

// Lock locks m.
// If the lock is already in use, the calling goroutine
// blocks until the mutex is available.
func (m *Mutex) Lock() {
	locking := startLockTimer("Mutex timed out when acquiring lock")
	m.mutex.Lock()
	close(locking)

	m.unlocking = startLockTimer("Mutex timed out before releasing lock")
}

// TryLock tries to lock m and reports whether it succeeded.
func (m *Mutex) TryLock() bool {
	locked := m.mutex.TryLock()

	if locked {
		m.unlocking = startLockTimer("Mutex timed out before releasing lock")
	}

	return locked
}

// Unlock unlocks m.
// It is a run-time error if m is not locked on entry to Unlock.
func (m *Mutex) Unlock() {
	close(m.unlocking)
	m.mutex.Unlock()
}
