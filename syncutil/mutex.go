// Package syncutil provides the recursive mutex/condition hybrid and the
// named/unnamed counting semaphores spec.md §4.H describes, grounded on
// eventloop's sync.Mutex/sync.Cond usage (loop.go, registry.go) generalized
// to the spec's recursive-lock and lost-signal-free semantics.
package syncutil

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mutex is a recursive lock that also doubles as a condition variable:
// Wait atomically unlocks, sleeps, and relocks on Signal or timeout, and
// Signal sets a pending flag so a Signal that arrives before a Wait is not
// lost (spec.md §4.H).
//
// Go's sync.Mutex deliberately has no goroutine-local owner identity, so a
// literal re-entrant Lock (the C original's recursion model, keyed off the
// owning OS thread) is not directly expressible. Recursion is instead
// modeled explicitly: Lock returns an opaque Token, and LockRecursive
// re-enters given a Token already held by the same logical owner, the way
// a caller threading an explicit context value would. Most call sites only
// ever need plain Lock/Unlock; LockRecursive exists for the rarer case of a
// callback re-entering a lock its caller already holds.
type Mutex struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending bool

	heldBy atomic.Uint64 // 0 = unheld; only ever written by the current owner
	depth  int           // only touched by the current owner, while held
}

// Token identifies a logical lock owner for recursive acquisition.
type Token uint64

var tokenCounter atomic.Uint64

// NewToken allocates a fresh Token for use with LockRecursive.
func NewToken() Token {
	return Token(tokenCounter.Add(1))
}

// NewMutex constructs a ready-to-use Mutex.
func NewMutex() *Mutex {
	m := &Mutex{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Lock acquires the mutex, blocking until available.
func (m *Mutex) Lock() {
	m.mu.Lock()
	m.depth = 1
}

// Unlock releases the mutex. For a plain (non-recursive) Lock/Unlock pair
// this is always correct; if LockRecursive was used, call UnlockRecursive
// instead so the depth counter stays balanced.
func (m *Mutex) Unlock() {
	m.depth = 0
	m.heldBy.Store(0)
	m.mu.Unlock()
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock() bool {
	if m.mu.TryLock() {
		m.depth = 1
		return true
	}
	return false
}

// LockRecursive acquires the mutex on behalf of tok. If tok already holds
// the lock (a re-entrant call from the same logical owner), it increments
// the recursion depth instead of blocking. Safe because heldBy is only ever
// written by whichever token currently owns the lock: a token can only
// observe a match against itself.
func (m *Mutex) LockRecursive(tok Token) {
	if m.heldBy.Load() == uint64(tok) {
		m.depth++
		return
	}
	m.mu.Lock()
	m.heldBy.Store(uint64(tok))
	m.depth = 1
}

// UnlockRecursive releases one level of recursion acquired via
// LockRecursive, fully unlocking once depth reaches zero.
func (m *Mutex) UnlockRecursive(tok Token) {
	if m.heldBy.Load() != uint64(tok) {
		panic("syncutil: UnlockRecursive by non-owner token")
	}
	m.depth--
	if m.depth == 0 {
		m.heldBy.Store(0)
		m.mu.Unlock()
	}
}

// Wait unlocks m, sleeps until Signal is called (or timeout elapses), then
// relocks m before returning. A zero or negative timeout means wait
// forever. It reports whether it woke due to Signal (true) or timed out
// (false).
//
// Wait must be called while holding the lock (i.e. after Lock/TryLock).
func (m *Mutex) Wait(timeout time.Duration) bool {
	if m.pending {
		m.pending = false
		return true
	}
	if timeout <= 0 {
		for !m.pending {
			m.cond.Wait()
		}
		m.pending = false
		return true
	}

	timedOut := false
	timer := time.AfterFunc(timeout, func() {
		m.mu.Lock()
		timedOut = true
		m.cond.Broadcast()
		m.mu.Unlock()
	})
	defer timer.Stop()

	for !m.pending && !timedOut {
		m.cond.Wait()
	}
	if m.pending {
		m.pending = false
		return true
	}
	return false
}

// Signal wakes one waiter (or marks a pending signal so the next Wait call
// returns immediately, if no one is currently waiting).
func (m *Mutex) Signal() {
	m.pending = true
	m.cond.Signal()
}

// Broadcast wakes all current waiters and leaves a pending signal for any
// future immediate Wait.
func (m *Mutex) Broadcast() {
	m.pending = true
	m.cond.Broadcast()
}
