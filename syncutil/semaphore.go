package syncutil

import (
	"errors"
	"sync"
	"time"
)

// Semaphore is a counting semaphore in the range 0..0xFFFF, matching
// spec.md §4.H. Unnamed semaphores are process-local; named semaphores are
// additionally identified by a string so unrelated parts of a process (or,
// on platforms that support it, other processes) can rendezvous on the same
// counter. Both share this single implementation: Go has no portable named
// cross-process semaphore primitive in the standard library, so "named"
// here means "looked up by name from a process-wide registry" rather than
// OS-visible IPC, which is the part of spec.md §4.H this repository can
// faithfully deliver without an OS-specific cgo dependency (none of the
// retrieval pack wires one either).
type Semaphore struct {
	mu    sync.Mutex
	cond  *sync.Cond
	value uint32
	max   uint32
}

const maxSemaphoreValue = 0xFFFF

// NewSemaphore creates an unnamed semaphore with the given initial value.
func NewSemaphore(initial uint32) *Semaphore {
	if initial > maxSemaphoreValue {
		initial = maxSemaphoreValue
	}
	s := &Semaphore{value: initial, max: maxSemaphoreValue}
	s.cond = sync.NewCond(&s.mu)
	return s
}

var (
	namedMu  sync.Mutex
	namedSem = map[string]*Semaphore{}
)

// ErrSemaphoreNameEmpty is returned by NewNamedSemaphore for an empty name.
var ErrSemaphoreNameEmpty = errors.New("syncutil: semaphore name must not be empty")

// NewNamedSemaphore returns the process-wide semaphore registered under
// name, creating it with the given initial value if this is the first
// lookup. A second call with the same name ignores initial and returns the
// existing semaphore, matching named-semaphore "open or create" semantics.
func NewNamedSemaphore(name string, initial uint32) (*Semaphore, error) {
	if name == "" {
		return nil, ErrSemaphoreNameEmpty
	}
	namedMu.Lock()
	defer namedMu.Unlock()
	if s, ok := namedSem[name]; ok {
		return s, nil
	}
	s := NewSemaphore(initial)
	namedSem[name] = s
	return s, nil
}

// Post increments the semaphore by one, waking a waiter if any is blocked.
func (s *Semaphore) Post() { s.PostMultiple(1) }

// PostMultiple increments the semaphore by n, waking up to n waiters.
func (s *Semaphore) PostMultiple(n uint32) {
	s.mu.Lock()
	if s.value+n > s.max {
		s.value = s.max
	} else {
		s.value += n
	}
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Wait blocks until the semaphore is non-zero, then decrements it.
func (s *Semaphore) Wait() {
	s.mu.Lock()
	for s.value == 0 {
		s.cond.Wait()
	}
	s.value--
	s.mu.Unlock()
}

// TryWait waits up to timeout for the semaphore to become non-zero. A zero
// or negative timeout polls once without blocking. It reports whether it
// acquired the semaphore.
func (s *Semaphore) TryWait(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if timeout <= 0 {
		if s.value == 0 {
			return false
		}
		s.value--
		return true
	}

	for s.value == 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		timedOut := false
		timer := time.AfterFunc(remaining, func() {
			s.mu.Lock()
			timedOut = true
			s.cond.Broadcast()
			s.mu.Unlock()
		})
		for s.value == 0 && !timedOut {
			s.cond.Wait()
		}
		timer.Stop()
		if s.value == 0 {
			return false
		}
	}
	s.value--
	return true
}

// Value returns the current semaphore count (debug/introspection only; the
// value may change immediately after this call returns).
func (s *Semaphore) Value() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}
