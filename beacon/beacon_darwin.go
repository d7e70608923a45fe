//go:build darwin

package beacon

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// darwinBeacon multiplexes a self-pipe (the intrinsic signal, slot 0) and
// up to MaxSlots-1 externally registered file descriptors via kqueue,
// mirroring eventloop/poller_darwin.go's Kqueue/Kevent usage and
// eventloop/wakeup_darwin.go's self-pipe wake source.
type darwinBeacon struct {
	mu        sync.Mutex
	kq        int
	pipeRead  int
	pipeWrite int
	slots     [MaxSlots]int // fd registered at each slot, -1 if empty; slot 0 is pipeRead
}

// FDWaitable wraps a raw Unix file descriptor for AddWaitable.
type FDWaitable int

func (FDWaitable) isWaitable() {}

func newBackend() (beaconBackend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)

	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		_ = unix.Close(kq)
		return nil, err
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	_ = unix.SetNonblock(fds[0], true)
	_ = unix.SetNonblock(fds[1], true)

	b := &darwinBeacon{kq: kq, pipeRead: fds[0], pipeWrite: fds[1]}
	for i := range b.slots {
		b.slots[i] = -1
	}
	b.slots[0] = fds[0]

	kev := unix.Kevent_t{Ident: uint64(fds[0]), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_ENABLE}
	if _, err := unix.Kevent(kq, []unix.Kevent_t{kev}, nil, nil); err != nil {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		_ = unix.Close(kq)
		return nil, err
	}
	return b, nil
}

func (b *darwinBeacon) fire() {
	var buf [1]byte
	_, _ = unix.Write(b.pipeWrite, buf[:])
}

func (b *darwinBeacon) tryWait(timeout time.Duration) (int, error) {
	var ts *unix.Timespec
	if timeout > 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	var events [MaxSlots]unix.Kevent_t
	n, err := unix.Kevent(b.kq, nil, events[:], ts)
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

	identToSlot := make(map[uint64]int, MaxSlots)
	for slot, fd := range b.slots {
		if fd >= 0 {
			identToSlot[uint64(fd)] = slot
		}
	}

	fired := -1
	for i := 0; i < n; i++ {
		slot, ok := identToSlot[events[i].Ident]
		if !ok {
			continue
		}
		if slot == 0 {
			b.drainPipe()
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

func (b *darwinBeacon) drainPipe() {
	var buf [64]byte
	for {
		_, err := unix.Read(b.pipeRead, buf[:])
		if err != nil {
			return
		}
	}
}

func (b *darwinBeacon) addWaitable(w Waitable) (int, error) {
	fw, ok := w.(FDWaitable)
	if !ok {
		return -1, errors.New("beacon: darwin backend requires an FDWaitable")
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

	kev := unix.Kevent_t{Ident: uint64(fw), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_ENABLE}
	if _, err := unix.Kevent(b.kq, []unix.Kevent_t{kev}, nil, nil); err != nil {
		return -1, err
	}
	b.slots[slot] = int(fw)
	return slot, nil
}

func (b *darwinBeacon) removeWaitable(slot int) error {
	if slot <= 0 || slot >= MaxSlots {
		return errors.New("beacon: invalid slot")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	fd := b.slots[slot]
	if fd < 0 {
		return errors.New("beacon: slot is empty")
	}
	kev := unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE}
	_, err := unix.Kevent(b.kq, []unix.Kevent_t{kev}, nil, nil)
	b.slots[slot] = -1
	return err
}

func (b *darwinBeacon) close() error {
	_ = unix.Close(b.pipeRead)
	_ = unix.Close(b.pipeWrite)
	return unix.Close(b.kq)
}
