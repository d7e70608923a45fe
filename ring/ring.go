// Package ring implements spec.md §4.L: a single-producer/single-
// consumer byte ring buffer whose data path needs no lock (writer and
// reader each touch only their own index), with two semaphores layered
// on top to implement blocking reads and writes.
//
// The semaphore-pair blocking pattern (signal_read wakes a stalled
// writer, signal_write wakes a stalled reader) is grounded directly on
// syncutil's Semaphore (component H), which already implements the
// named/unnamed counting semaphore spec.md §4.H asks for; this package
// is its first real consumer beyond syncutil's own tests.
package ring

import (
	"errors"
	"sync/atomic"

	"github.com/joeycumines/go-foundation/syncutil"
)

// ErrClosed is returned by Read/Write once the ring has been marked
// ended via SetTotalSize/Close and no more data will ever arrive.
var ErrClosed = errors.New("ring: stream ended")

// Buffer is a fixed-capacity circular byte buffer, single-producer/
// single-consumer, with blocking Read/Write built from a semaphore
// pair (signalRead/signalWrite), per spec.md §4.L.
type Buffer struct {
	data []byte
	// head: next byte the reader will consume. tail: next byte the
	// writer will produce. Both only ever touched by their own side,
	// so no atomic is strictly required for correctness of the index
	// arithmetic itself — they are atomic only so Len/Cap can be read
	// from either side without a race detector complaint.
	head atomic.Uint64
	tail atomic.Uint64

	signalRead  *syncutil.Semaphore // posted when the reader consumes data (wakes a stalled writer)
	signalWrite *syncutil.Semaphore // posted when the writer produces data (wakes a stalled reader)

	pendingRead  atomic.Bool
	pendingWrite atomic.Bool

	totalSize int64 // -1 means unbounded
	written   atomic.Int64
	closed    atomic.Bool
}

// New constructs a Buffer with the given byte capacity (rounded up
// internally only by allocation, not by power-of-two — arbitrary
// capacities are fine since indices are taken modulo capacity).
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Buffer{
		data:        make([]byte, capacity),
		signalRead:  syncutil.NewSemaphore(0),
		signalWrite: syncutil.NewSemaphore(0),
		totalSize:   -1,
	}
}

// SetTotalSize optionally bounds the whole stream, per spec.md §4.L;
// once Write has produced totalSize bytes in aggregate, the stream is
// marked ended and further Read calls past the last byte return
// ErrClosed instead of blocking.
func (b *Buffer) SetTotalSize(n int64) { b.totalSize = n }

// Cap returns the buffer's fixed byte capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Len returns the number of unread bytes currently buffered.
func (b *Buffer) Len() int {
	return int(b.tail.Load() - b.head.Load())
}

func (b *Buffer) free() int { return len(b.data) - b.Len() }

// Write blocks until all of p has been copied into the ring, or the
// buffer is closed. It returns the number of bytes written before any
// error. Per spec.md §4.L, a writer that finds no room sets
// pending_write, waits on signalRead (posted by a reader once it frees
// room by consuming), and — symmetrically to the reader path — posts
// signalWrite after producing data so a stalled reader wakes.
func (b *Buffer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		if b.closed.Load() {
			return written, ErrClosed
		}
		avail := b.free()
		if avail == 0 {
			b.pendingWrite.Store(true)
			// Re-check after publishing pendingWrite: a reader may have
			// freed room between the check above and the flag publish,
			// in which case it already found pendingWrite false and
			// skipped the wake.
			if b.free() > 0 {
				b.pendingWrite.Store(false)
				continue
			}
			b.signalRead.Wait()
			continue
		}
		n := len(p) - written
		if n > avail {
			n = avail
		}
		tail := b.tail.Load()
		cap := uint64(len(b.data))
		for i := 0; i < n; i++ {
			b.data[(tail+uint64(i))%cap] = p[written+i]
		}
		b.tail.Add(uint64(n))
		written += n
		b.written.Add(int64(n))
		b.pendingWrite.Store(false)

		if b.pendingRead.CompareAndSwap(true, false) {
			b.signalWrite.Post()
		}
		if b.totalSize >= 0 && b.written.Load() >= b.totalSize {
			b.closed.Store(true)
			b.signalWrite.Post()
		}
	}
	return written, nil
}

// Read blocks until p is full or the stream has ended (closed, or the
// configured total size reached) with no further data buffered. It
// returns fewer bytes than len(p) only at end-of-stream.
// Per spec.md §4.L, a reader that finds too little data posts signalRead
// if a writer is waiting (freeing room it just consumed), sets
// pending_read, then waits on signalWrite for more data.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	read := 0
	for read < len(p) {
		n := b.Len()
		if n > 0 {
			if n > len(p)-read {
				n = len(p) - read
			}
			head := b.head.Load()
			cap := uint64(len(b.data))
			for i := 0; i < n; i++ {
				p[read+i] = b.data[(head+uint64(i))%cap]
			}
			b.head.Add(uint64(n))
			read += n
			b.pendingRead.Store(false)

			if b.pendingWrite.CompareAndSwap(true, false) {
				b.signalRead.Post()
			}
			continue
		}
		if b.closed.Load() {
			if read > 0 {
				return read, nil
			}
			return 0, ErrClosed
		}
		b.pendingRead.Store(true)
		if b.Len() > 0 || b.closed.Load() {
			b.pendingRead.Store(false)
			continue
		}
		b.signalWrite.Wait()
	}
	return read, nil
}

// Close marks the stream ended: blocked readers wake with ErrClosed once
// buffered data is drained, and blocked writers wake with ErrClosed
// immediately.
func (b *Buffer) Close() {
	b.closed.Store(true)
	b.signalRead.Post()
	b.signalWrite.Post()
}

// Seek advances the read position by discarding n bytes, implementing
// spec.md §4.L's forward-only seek ("reading into a null buffer"). It
// blocks the same way Read does if fewer than n bytes are currently
// available.
func (b *Buffer) Seek(n int) (int, error) {
	discard := make([]byte, 4096)
	total := 0
	for total < n {
		want := n - total
		if want > len(discard) {
			want = len(discard)
		}
		got, err := b.Read(discard[:want])
		total += got
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
