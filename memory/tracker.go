package memory

import (
	"sync"

	"github.com/joeycumines/go-foundation/hashtable"
)

// LocalTracker is the default tracker named in spec.md §4.I: it hashes
// the aligned pointer into a lock-free table and stores size plus a
// captured call stack. Untrack erases the entry with hashtable.Erase, which
// zeroes the stored size; the address stays in its slot as a tombstone and
// is not cleared.
//
// hashtable.Table works over uint64 keys, so frames — which have no
// fixed width and so cannot live in the table's value slot — are kept in
// a side map guarded by a mutex; this mirrors spec.md §4.I's "stores
// (size, captured_frames[14])" without requiring the lock-free table
// itself to grow a variable-length value type.
type LocalTracker struct {
	table  *hashtable.Table[uint64, uint64]
	mu     sync.Mutex
	frames map[uintptr][]uintptr
}

// NewLocalTracker constructs a LocalTracker sized for capacity
// concurrently tracked allocations.
func NewLocalTracker(capacity int) *LocalTracker {
	return &LocalTracker{
		table:  hashtable.New[uint64, uint64](capacity),
		frames: make(map[uintptr][]uintptr),
	}
}

func (t *LocalTracker) Init() {}

func (t *LocalTracker) Fini() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.table.Clear()
	t.frames = make(map[uintptr][]uintptr)
}

func (t *LocalTracker) Track(addr uintptr, size int, frames []uintptr) {
	if addr == 0 {
		return
	}
	t.table.Set(uint64(addr), uint64(size))
	t.mu.Lock()
	t.frames[addr] = append([]uintptr(nil), frames...)
	t.mu.Unlock()
}

func (t *LocalTracker) Untrack(addr uintptr) {
	if addr == 0 {
		return
	}
	t.table.Erase(uint64(addr))
	t.mu.Lock()
	delete(t.frames, addr)
	t.mu.Unlock()
}

// Frames returns the captured call stack recorded for addr, if still
// tracked.
func (t *LocalTracker) Frames(addr uintptr) []uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames[addr]
}

// Size returns the size recorded for addr, or 0 if untracked.
func (t *LocalTracker) Size(addr uintptr) int {
	return int(t.table.Get(uint64(addr)))
}
