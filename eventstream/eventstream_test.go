package eventstream

import (
	"encoding/binary"
	"sync"
	"testing"
)

func TestEventStream_PostThenProcess(t *testing.T) {
	s := New(nil)
	if err := s.Post(1, 100, 0, FlagNone, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := s.Post(1, 101, 0, FlagNone, []byte("world")); err != nil {
		t.Fatal(err)
	}

	block := s.Process()
	if block.Len() != 2 {
		t.Fatalf("expected 2 events, got %d", block.Len())
	}
	i := block.First()
	if block.At(i).ID != 100 {
		t.Fatalf("expected first event ID 100, got %d", block.At(i).ID)
	}
	i = block.Next(i)
	if block.At(i).ID != 101 {
		t.Fatalf("expected second event ID 101, got %d", block.At(i).ID)
	}
	if block.Next(i) != -1 {
		t.Fatal("expected Next past the last event to return -1")
	}
}

func TestEventStream_ProcessOnEmptyStreamIsEmptyBlock(t *testing.T) {
	s := New(nil)
	block := s.Process()
	if block.Len() != 0 {
		t.Fatalf("expected empty block, got %d events", block.Len())
	}
	if block.First() != -1 {
		t.Fatal("expected First() == -1 on an empty block")
	}
}

func TestEventStream_DoubleBufferReusesBlocks(t *testing.T) {
	s := New(nil)
	_ = s.Post(1, 1, 0, FlagNone, nil)
	first := s.Process()
	if first.Len() != 1 {
		t.Fatalf("expected 1 event, got %d", first.Len())
	}

	_ = s.Post(1, 2, 0, FlagNone, nil)
	_ = s.Post(1, 3, 0, FlagNone, nil)
	second := s.Process()
	if second.Len() != 2 {
		t.Fatalf("expected 2 events on second cycle, got %d", second.Len())
	}
	// first's underlying array is the block that was reset and reused
	// as the write block during the second Process call; it must no
	// longer report the stale event.
	third := s.Process()
	if third.Len() != 0 {
		t.Fatalf("expected an empty block on the third cycle, got %d", third.Len())
	}
}

func TestEventStream_DelayedEventRequeuedUntilDue(t *testing.T) {
	var tick uint64
	s := New(func() uint64 { return tick })

	payload := make([]byte, 8)
	binary.LittleEndian.PutUint64(payload, 10)
	if err := s.Post(1, 1, 0, FlagDelay, payload); err != nil {
		t.Fatal(err)
	}

	tick = 1
	block := s.Process()
	if block.Len() != 0 {
		t.Fatalf("expected the delayed event to be held back, got %d events", block.Len())
	}

	tick = 20
	block = s.Process()
	if block.Len() != 1 {
		t.Fatalf("expected the delayed event to become due, got %d events", block.Len())
	}
}

func TestEventStream_DropsPostBeyondHardLimit(t *testing.T) {
	s := New(nil)
	warned := false
	s.SetWarnFunc(func(string) { warned = true })

	for i := 0; i < MaxChunks*eventsPerChunk; i++ {
		if err := s.Post(1, uint64(i), 0, FlagNone, nil); err != nil {
			t.Fatalf("unexpected drop at event %d: %v", i, err)
		}
	}
	if err := s.Post(1, 999999, 0, FlagNone, nil); err != ErrEventTooLarge {
		t.Fatalf("expected ErrEventTooLarge, got %v", err)
	}
	if !warned {
		t.Fatal("expected WarnFunc to be invoked on drop")
	}
}

func TestEventStream_ConcurrentPost(t *testing.T) {
	s := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Post(1, uint64(j), 0, FlagNone, nil)
			}
		}()
	}
	wg.Wait()
	block := s.Process()
	if block.Len() != 16*50 {
		t.Fatalf("expected %d events, got %d", 16*50, block.Len())
	}
}
