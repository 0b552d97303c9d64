// Package idxlock provides the readers/writer lock that separates
// "index-shape stable" readers from "index-shape changing" writers (C3).
//
// It wraps github.com/viney-shih/go-lock's CASMutex, the wait-free mutex
// primitive used elsewhere in the broader example pack as a 2PL row latch
// (postgres-postgres's oltp_clients/storage/cc_2pl_nw.go). Here it guards
// index shape instead of a database row.
package idxlock

import (
	"time"

	lock "github.com/viney-shih/go-lock"
)

// RWLock is the index lock (C3). Mutations that keep index shape stable
// (in-place leaf edits that don't change the leaf's max) proceed under a
// reader hold; mutations that change shape (insert/remove an index entry)
// must release the reader, acquire the writer, and validate.
type RWLock struct {
	mu lock.RWMutex
}

// New constructs an unlocked RWLock.
func New() *RWLock {
	return &RWLock{mu: lock.NewCASMutex()}
}

// RLock acquires the lock for a shape-stable reader.
func (l *RWLock) RLock() {
	l.mu.RLock()
}

// RUnlock releases a reader hold.
func (l *RWLock) RUnlock() {
	l.mu.RUnlock()
}

// Lock acquires the lock exclusively for a shape-changing writer.
func (l *RWLock) Lock() {
	l.mu.Lock()
}

// Unlock releases the writer hold.
func (l *RWLock) Unlock() {
	l.mu.Unlock()
}

// TryLockWithTimeout attempts to acquire the writer lock, giving up after
// timeout. Exposed for callers that want to impose their own bound on
// writer-phase contention (spec.md §5: "External wrappers may impose
// timeouts on lock acquisition"); the core put/remove protocol does not
// use this and retries unboundedly on validation failure.
func (l *RWLock) TryLockWithTimeout(timeout time.Duration) bool {
	return l.mu.TryLockWithTimeout(timeout)
}

// Mutex is the per-leaf exclusive lock (C1's "leaf's exclusive lock").
// Built on the same wait-free primitive as RWLock; leaves never need the
// reader side of go-lock's RWMutex, so Mutex only exposes Lock/Unlock.
type Mutex struct {
	mu lock.RWMutex
}

// NewMutex constructs an unlocked leaf mutex.
func NewMutex() *Mutex {
	return &Mutex{mu: lock.NewCASMutex()}
}

// Lock acquires the leaf's exclusive lock.
func (m *Mutex) Lock() {
	m.mu.Lock()
}

// Unlock releases the leaf's exclusive lock.
func (m *Mutex) Unlock() {
	m.mu.Unlock()
}

// TryLockWithTimeout attempts to acquire the leaf lock, giving up after
// timeout. See RWLock.TryLockWithTimeout.
func (m *Mutex) TryLockWithTimeout(timeout time.Duration) bool {
	return m.mu.TryLockWithTimeout(timeout)
}
