//go:build windows

package beacon

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sys/windows"
)

// windowsBeacon multiplexes a manual-reset Event (the intrinsic signal,
// slot 0) and up to MaxSlots-1 externally added handles via
// WaitForMultipleObjects, per spec.md §4.G.
type windowsBeacon struct {
	mu      sync.Mutex
	handles [MaxSlots]windows.Handle
	count   int
}

// EventWaitable wraps a Windows wait handle for AddWaitable.
type EventWaitable windows.Handle

func (EventWaitable) isWaitable() {}

func newBackend() (beaconBackend, error) {
	h, err := windows.CreateEvent(nil, 1 /* manual reset */, 0, nil)
	if err != nil {
		return nil, err
	}
	b := &windowsBeacon{count: 1}
	b.handles[0] = h
	return b, nil
}

func (b *windowsBeacon) fire() {
	_ = windows.SetEvent(b.handles[0])
}

func (b *windowsBeacon) tryWait(timeout time.Duration) (int, error) {
	b.mu.Lock()
	handles := make([]windows.Handle, b.count)
	copy(handles, b.handles[:b.count])
	b.mu.Unlock()

	ms := uint32(windows.INFINITE)
	if timeout > 0 {
		ms = uint32(timeout.Milliseconds())
	}

	ev, err := windows.WaitForMultipleObjects(handles, false, ms)
	if err != nil {
		return -1, err
	}

	switch {
	case ev == uint32(windows.WAIT_TIMEOUT):
		return -1, nil
	case ev >= windows.WAIT_OBJECT_0 && ev < windows.WAIT_OBJECT_0+uint32(len(handles)):
		slot := int(ev - windows.WAIT_OBJECT_0)
		if slot == 0 {
			_ = windows.ResetEvent(b.handles[0])
		}
		return slot, nil
	default:
		return -1, errors.New("beacon: unexpected wait result")
	}
}

func (b *windowsBeacon) addWaitable(w Waitable) (int, error) {
	ew, ok := w.(EventWaitable)
	if !ok {
		return -1, errors.New("beacon: windows backend requires an EventWaitable")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count >= MaxSlots {
		return -1, errors.New("beacon: no free slots")
	}
	slot := b.count
	b.handles[slot] = windows.Handle(ew)
	b.count++
	return slot, nil
}

func (b *windowsBeacon) removeWaitable(slot int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if slot <= 0 || slot >= b.count {
		return errors.New("beacon: invalid slot")
	}
	// Shift the tail down by one to keep handles dense, matching the
	// contiguous-array contract WaitForMultipleObjects needs.
	for i := slot; i < b.count-1; i++ {
		b.handles[i] = b.handles[i+1]
	}
	b.count--
	return nil
}

func (b *windowsBeacon) close() error {
	return windows.CloseHandle(b.handles[0])
}
