//go:build linux

package beacon

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// linuxBeacon multiplexes an eventfd (the intrinsic signal, slot 0) and up
// to MaxSlots-1 externally registered file descriptors via epoll, mirroring
// eventloop/poller_linux.go's EpollCreate1/EpollCtl/EpollWait usage and
// eventloop/wakeup_linux.go's eventfd-based wake source.
type linuxBeacon struct {
	mu      sync.Mutex
	epfd    int
	eventfd int
	slots   [MaxSlots]int // fd registered at each slot, -1 if empty; slot 0 is eventfd
}

// FDWaitable wraps a raw Unix file descriptor for AddWaitable.
type FDWaitable int

func (FDWaitable) isWaitable() {}

func newBackend() (beaconBackend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}

	b := &linuxBeacon{epfd: epfd, eventfd: efd}
	for i := range b.slots {
		b.slots[i] = -1
	}
	b.slots[0] = efd

	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(efd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, efd, ev); err != nil {
		_ = unix.Close(efd)
		_ = unix.Close(epfd)
		return nil, err
	}
	return b, nil
}

func (b *linuxBeacon) fire() {
	// Writing any non-zero 8-byte value to an eventfd increments its
	// counter and wakes readers; multiple fires before a drain coalesce
	// into one readable event, giving Fire its idempotent-per-cycle
	// semantics for free.
	var buf [8]byte
	buf[0] = 1
	_, _ = unix.Write(b.eventfd, buf[:])
}

func (b *linuxBeacon) tryWait(timeout time.Duration) (int, error) {
	ms := durationToEpollMillis(timeout)

	var events [MaxSlots]unix.EpollEvent
	n, err := unix.EpollWait(b.epfd, events[:], ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return -1, nil
		}
		return -1, err
	}
	if n == 0 {
		return -1, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Prefer reporting slot 0 first if it fired alongside others, since the
	// intrinsic signal must always be drained regardless of what else is
	// ready.
	fdToSlot := make(map[int32]int, MaxSlots)
	for slot, fd := range b.slots {
		if fd >= 0 {
			fdToSlot[int32(fd)] = slot
		}
	}

	fired := -1
	for i := 0; i < n; i++ {
		slot, ok := fdToSlot[events[i].Fd]
		if !ok {
			continue
		}
		if slot == 0 {
			b.drainEventfd()
			return 0, nil
		}
		if fired == -1 {
			fired = slot
		}
	}
	if fired == -1 {
		return -1, nil
	}
	return fired, nil
}

func (b *linuxBeacon) drainEventfd() {
	var buf [8]byte
	for {
		_, err := unix.Read(b.eventfd, buf[:])
		if err != nil {
			return
		}
	}
}

func (b *linuxBeacon) addWaitable(w Waitable) (int, error) {
	fw, ok := w.(FDWaitable)
	if !ok {
		return -1, errors.New("beacon: linux backend requires an FDWaitable")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	slot := -1
	for i := 1; i < MaxSlots; i++ {
		if b.slots[i] == -1 {
			slot = i
			break
		}
	}
	if slot == -1 {
		return -1, errors.New("beacon: no free slots")
	}

	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fw)}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, int(fw), ev); err != nil {
		return -1, err
	}
	b.slots[slot] = int(fw)
	return slot, nil
}

func (b *linuxBeacon) removeWaitable(slot int) error {
	if slot <= 0 || slot >= MaxSlots {
		return errors.New("beacon: invalid slot")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	fd := b.slots[slot]
	if fd < 0 {
		return errors.New("beacon: slot is empty")
	}
	err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	b.slots[slot] = -1
	return err
}

func (b *linuxBeacon) close() error {
	_ = unix.Close(b.eventfd)
	return unix.Close(b.epfd)
}

func durationToEpollMillis(timeout time.Duration) int {
	if timeout <= 0 {
		return -1
	}
	ms := timeout.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	return int(ms)
}
