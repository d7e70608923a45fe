package objectmap

import (
	"sync"
	"testing"
)

func TestMap_ReserveSetLookup(t *testing.T) {
	m := New[int](8)
	h, err := m.Reserve()
	if err != nil {
		t.Fatal(err)
	}
	v := 42
	if err := m.Set(h, &v); err != nil {
		t.Fatal(err)
	}
	got, err := m.Lookup(h)
	if err != nil {
		t.Fatal(err)
	}
	if *got != 42 {
		t.Fatalf("expected 42, got %d", *got)
	}
}

func TestMap_LookupWithoutSet(t *testing.T) {
	m := New[int](8)
	h, err := m.Reserve()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Lookup(h); err != ErrHandleNotSet {
		t.Fatalf("expected ErrHandleNotSet, got %v", err)
	}
}

func TestMap_FreeInvalidatesHandle(t *testing.T) {
	m := New[int](8)
	h, err := m.Reserve()
	if err != nil {
		t.Fatal(err)
	}
	v := 7
	_ = m.Set(h, &v)
	if err := m.Free(h); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Lookup(h); err != ErrStaleHandle {
		t.Fatalf("expected ErrStaleHandle after free, got %v", err)
	}
}

func TestMap_ReusedSlotGetsFreshTag(t *testing.T) {
	m := New[int](1)
	h1, err := m.Reserve()
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Free(h1); err != nil {
		t.Fatal(err)
	}
	h2, err := m.Reserve()
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Fatal("expected a fresh tag on slot reuse")
	}
	if h1.Index() != h2.Index() {
		t.Fatal("expected the same slot index to be reused")
	}
	if _, err := m.Lookup(h1); err != ErrStaleHandle {
		t.Fatalf("expected the old handle to be stale, got %v", err)
	}
}

func TestMap_FullReturnsErrMapFull(t *testing.T) {
	m := New[int](2)
	if _, err := m.Reserve(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Reserve(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Reserve(); err != ErrMapFull {
		t.Fatalf("expected ErrMapFull, got %v", err)
	}
}

func TestMap_ConcurrentReserveFree(t *testing.T) {
	m := New[int](64)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				h, err := m.Reserve()
				if err != nil {
					continue
				}
				v := j
				_ = m.Set(h, &v)
				_, _ = m.Lookup(h)
				_ = m.Free(h)
			}
		}()
	}
	wg.Wait()
}
