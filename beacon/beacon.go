// Package beacon implements spec.md §4.G's multi-source wait primitive: a
// thread can sleep until either the beacon's own intrinsic signal fires, or
// one of up to MaxSlots-1 externally added OS-waitable descriptors becomes
// ready.
//
// Platform backends are grounded directly on the teacher's I/O poller
// family (eventloop/poller_linux.go's epoll usage, poller_darwin.go's
// kqueue usage, and the wakeup_*.go self-pipe/eventfd helpers), adapted
// from "poll many registered FDs, dispatch callbacks" into "wait on a small
// fixed slot set, return the first ready index" — the shape spec.md asks
// for. Windows uses WaitForMultipleObjects directly (over Event handles)
// rather than the teacher's IOCP path, since spec.md §4.G names
// WaitForMultipleObjects specifically and IOCP has no "wait on N handles,
// tell me which" primitive to adapt.
package beacon

import "time"

// MaxSlots bounds the beacon to one intrinsic slot plus externally added
// waitables, per spec.md §4.G ("count <= small constant, e.g., 8").
const MaxSlots = 8

// Beacon lets a goroutine block until fired or until an external waitable
// becomes ready, with a timeout.
type Beacon struct {
	backend beaconBackend
}

type beaconBackend interface {
	fire()
	tryWait(timeout time.Duration) (slot int, err error)
	addWaitable(w Waitable) (slot int, err error)
	removeWaitable(slot int) error
	close() error
}

// Waitable is an OS wait descriptor a Beacon can multiplex alongside its
// own intrinsic signal. Its shape varies per platform backend; see
// FDWaitable (Linux, macOS) and EventWaitable (Windows).
type Waitable interface {
	isWaitable()
}

// New constructs a Beacon using the platform-native backend.
func New() (*Beacon, error) {
	b, err := newBackend()
	if err != nil {
		return nil, err
	}
	return &Beacon{backend: b}, nil
}

// Fire wakes any goroutine currently blocked in TryWait on slot 0.
// Idempotent within one wait cycle: multiple Fire calls before a
// corresponding TryWait coalesce into a single wake, per spec.md §4.G.
func (b *Beacon) Fire() { b.backend.fire() }

// TryWait blocks until fired (returns 0), an added waitable becomes ready
// (returns its positive slot index), or timeout elapses (returns -1, nil).
// A zero or negative timeout waits forever. Slot 0 is always edge-cleared
// by TryWait itself before returning, per spec.md §4.G.
func (b *Beacon) TryWait(timeout time.Duration) (int, error) {
	return b.backend.tryWait(timeout)
}

// AddWaitable registers an external OS waitable, returning its slot index
// (1..MaxSlots-1). Returns an error if the beacon is full.
func (b *Beacon) AddWaitable(w Waitable) (int, error) {
	return b.backend.addWaitable(w)
}

// RemoveWaitable unregisters a previously added waitable by slot index.
func (b *Beacon) RemoveWaitable(slot int) error {
	return b.backend.removeWaitable(slot)
}

// Close releases the beacon's OS resources.
func (b *Beacon) Close() error { return b.backend.close() }
