package library

import (
	"errors"
	"testing"

	"github.com/joeycumines/go-foundation/objectmap"
)

// fakeHandle is a test-only handle implementation letting Registry's
// dedupe/refcount bookkeeping be exercised without a real shared object
// on disk.
type fakeHandle map[string]any

func (f fakeHandle) lookup(name string) (any, error) {
	if v, ok := f[name]; ok {
		return v, nil
	}
	return nil, errors.New("fake: no such symbol")
}

func withFakeLoader(t *testing.T, open func(path string) (handle, error)) {
	t.Helper()
	orig := openLibraryFn
	openLibraryFn = open
	t.Cleanup(func() { openLibraryFn = orig })
}

func TestRegistry_LoadDedupesByBaseName(t *testing.T) {
	withFakeLoader(t, func(path string) (handle, error) {
		return fakeHandle{"Foo": 42}, nil
	})
	r := New(4)

	h1, err := r.Load("/opt/libs/plugin.so")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h2, err := r.Load("/other/path/plugin.so")
	if err != nil {
		t.Fatalf("Load (same base name): %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected dedupe by base name to return the same handle, got %v and %v", h1, h2)
	}
}

func TestRegistry_SymbolLookup(t *testing.T) {
	withFakeLoader(t, func(path string) (handle, error) {
		return fakeHandle{"Answer": 42}, nil
	})
	r := New(4)

	h, err := r.Load("mylib.so")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sym, err := r.Symbol(h, "Answer")
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}
	if sym != 42 {
		t.Fatalf("unexpected symbol value: %v", sym)
	}

	if _, err := r.Symbol(h, "Missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_RefAndUnloadCountsDown(t *testing.T) {
	withFakeLoader(t, func(path string) (handle, error) {
		return fakeHandle{}, nil
	})
	r := New(4)

	h, err := r.Load("mylib.so")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := r.Ref(h); err != nil {
		t.Fatalf("Ref: %v", err)
	}

	if err := r.Unload(h); err != nil {
		t.Fatalf("first Unload: %v", err)
	}
	if !r.Valid(h) {
		t.Fatal("expected handle to remain valid after one of two Unload calls")
	}

	if err := r.Unload(h); err != nil {
		t.Fatalf("second Unload: %v", err)
	}
	if r.Valid(h) {
		t.Fatal("expected handle to be invalid once refcount reaches zero")
	}
}

func TestRegistry_InvalidHandleOperations(t *testing.T) {
	r := New(4)
	bogus := objectmap.Handle(0xdeadbeef)

	if err := r.Ref(bogus); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("expected ErrInvalidHandle from Ref, got %v", err)
	}
	if err := r.Unload(bogus); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("expected ErrInvalidHandle from Unload, got %v", err)
	}
	if _, err := r.Symbol(bogus, "x"); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("expected ErrInvalidHandle from Symbol, got %v", err)
	}
	if r.Valid(bogus) {
		t.Fatal("expected bogus handle to be invalid")
	}
}

func TestRegistry_LoadFailurePropagates(t *testing.T) {
	withFakeLoader(t, func(path string) (handle, error) {
		return nil, errors.New("open failed")
	})
	r := New(4)

	if _, err := r.Load("missing.so"); err == nil {
		t.Fatal("expected an error from a failing loader")
	}
}

func TestRegistry_CapacityMatchesConfiguredMax(t *testing.T) {
	r := New(7)
	if r.Capacity() != 7 {
		t.Fatalf("expected capacity 7, got %d", r.Capacity())
	}
}

func TestRegistry_NameReturnsBaseName(t *testing.T) {
	withFakeLoader(t, func(path string) (handle, error) {
		return fakeHandle{}, nil
	})
	r := New(4)

	h, err := r.Load("/opt/libs/plugin.so")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	name, err := r.Name(h)
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if name != "plugin.so" {
		t.Fatalf("expected base name %q, got %q", "plugin.so", name)
	}
}
