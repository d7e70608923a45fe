// Package eventstream implements spec.md §4.K: a double-buffered event
// queue where post() appends to the current write block and process()
// atomically swaps it with the previously-consumed read block, which by
// then has been drained and reset — so no new block is allocated on a
// steady-state cycle.
//
// Each block is a bucketarray.Array[Event] (component E), reused
// directly: bucketarray's fixed-chunk growth with stable indices is
// exactly the "block is grown in fixed chunks up to a hard limit"
// behavior spec.md §4.K asks for. Growth/post is serialized with a
// mutex rather than a CAS loop, following eventloop.ChunkedIngress's own
// "caller must hold external mutex" contract (see DESIGN.md) — here the
// mutex lives inside EventStream instead of being pushed onto callers,
// and it alone is enough to satisfy spec.md §4.K's ordering guarantee
// ("first to succeed in the slot-reservation CAS wins": a mutex trivially
// serializes reservations in exactly that sense).
package eventstream

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/joeycumines/go-foundation/beacon"
	"github.com/joeycumines/go-foundation/bucketarray"
)

// Flags mark per-event delivery behavior.
type Flags uint32

const (
	FlagNone  Flags = 0
	FlagDelay Flags = 1 << 0
)

// Event is one posted entry. Payload's first 8 bytes carry the absolute
// delivery tick (little-endian) when Flags&FlagDelay is set, per
// spec.md §4.K.
type Event struct {
	System  uint32
	ID      uint64
	Object  uint64
	Flags   Flags
	Payload []byte
}

// MaxChunks bounds how many bucketarray chunks a single block may grow
// to before post() starts dropping events, matching spec.md §4.K's
// "grown in fixed chunks up to a hard limit." bucketarray's default
// bucket holds 1<<7 = 128 elements, so this caps a block at 8192
// events.
const MaxChunks = 64

// eventsPerChunk mirrors bucketarray's default bucket size (1<<7); kept
// as an independent constant here rather than importing bucketarray
// internals, since the hard limit is an eventstream policy, not a
// property of the underlying container.
const eventsPerChunk = 128

// ErrEventTooLarge is returned by Post once a block has grown to
// MaxChunks and cannot accept another event; the post is dropped and a
// WARNING should be logged by the caller (spec.md §9, Open Question
// decision 3).
var ErrEventTooLarge = errors.New("eventstream: block at hard capacity limit, event dropped")

// WarnFunc receives a human-readable message when Post drops an event.
type WarnFunc func(msg string)

type block struct {
	events *bucketarray.Array[Event]
}

func newBlock() *block {
	return &block{events: bucketarray.New[Event]()}
}

func (b *block) reset() { b.events.Clear() }

// EventStream is a double-buffered, multi-producer/single-consumer
// event queue.
type EventStream struct {
	mu        sync.Mutex
	blocks    [2]*block
	writeIdx  int
	beaconPtr *beacon.Beacon
	warn      WarnFunc
	nowTick   func() uint64
}

// New constructs an empty EventStream. nowTick supplies the current
// delivery tick for delayed-event due-checking (spec.md §4.K); pass
// nil to disable delayed-event support (FlagDelay events are then
// always treated as due).
func New(nowTick func() uint64) *EventStream {
	return &EventStream{
		blocks:  [2]*block{newBlock(), newBlock()},
		warn:    func(string) {},
		nowTick: nowTick,
	}
}

func (s *EventStream) lock()   { s.mu.Lock() }
func (s *EventStream) unlock() { s.mu.Unlock() }

// SetWarnFunc installs the sink for dropped-event warnings.
func (s *EventStream) SetWarnFunc(f WarnFunc) {
	if f == nil {
		f = func(string) {}
	}
	s.warn = f
}

// SetBeacon arranges Post to also Fire b, per spec.md §4.K's
// set_beacon.
func (s *EventStream) SetBeacon(b *beacon.Beacon) { s.beaconPtr = b }

// Post appends an event to the current write block, growing it in fixed
// chunks up to MaxChunks. Beyond that limit, the post is dropped:
// ErrEventTooLarge is returned and the installed WarnFunc is invoked.
func (s *EventStream) Post(system uint32, id, object uint64, flags Flags, payload []byte) error {
	s.lock()
	defer s.unlock()
	return s.postLocked(system, id, object, flags, payload)
}

func (s *EventStream) postLocked(system uint32, id, object uint64, flags Flags, payload []byte) error {
	wb := s.blocks[s.writeIdx]
	if wb.events.Len() >= MaxChunks*eventsPerChunk {
		s.warn("eventstream: dropping event, block at hard capacity limit")
		return ErrEventTooLarge
	}
	wb.events.Push(Event{System: system, ID: id, Object: object, Flags: flags, Payload: payload})
	if s.beaconPtr != nil {
		s.beaconPtr.Fire()
	}
	return nil
}

// Process atomically swaps the write block with the previously-consumed
// read block and returns the new read block for First/Next iteration.
// Any not-yet-due delayed events in the outgoing read block are
// re-queued into the new write block, so they survive across processing
// cycles until due, per spec.md §4.K.
func (s *EventStream) Process() *Block {
	s.lock()
	defer s.unlock()

	readBlock := s.blocks[s.writeIdx]
	s.writeIdx = 1 - s.writeIdx
	newWriteBlock := s.blocks[s.writeIdx]
	newWriteBlock.reset()

	if s.nowTick != nil {
		now := s.nowTick()
		n := readBlock.events.Len()
		kept := make([]Event, 0, n)
		for i := 0; i < n; i++ {
			ev := readBlock.events.Get(i)
			if ev.Flags&FlagDelay != 0 && len(ev.Payload) >= 8 {
				due := binary.LittleEndian.Uint64(ev.Payload[:8])
				if due > now {
					_ = s.postLocked(ev.System, ev.ID, ev.Object, ev.Flags, ev.Payload)
					continue
				}
			}
			kept = append(kept, ev)
		}
		// Compact readBlock so callers iterating First/Next only see
		// due events; requeued ones already live in the new write block.
		readBlock.events.Clear()
		for _, ev := range kept {
			readBlock.events.Push(ev)
		}
	}

	return &Block{arr: readBlock.events}
}

// Block is a read-only snapshot handed back by Process, iterated with
// First/Next.
type Block struct {
	arr *bucketarray.Array[Event]
}

// First returns the index of the first event in b, or -1 if empty.
func (b *Block) First() int {
	if b.arr.Len() == 0 {
		return -1
	}
	return 0
}

// Next returns the index following i, or -1 past the last event.
func (b *Block) Next(i int) int {
	if i+1 >= b.arr.Len() {
		return -1
	}
	return i + 1
}

// At returns the event at index i.
func (b *Block) At(i int) Event { return b.arr.Get(i) }

// Len returns the number of events in b.
func (b *Block) Len() int { return b.arr.Len() }
