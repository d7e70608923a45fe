package thread

import (
	"testing"
	"time"

	"github.com/joeycumines/go-foundation/internal/errctx"
)

func TestThread_StartJoin(t *testing.T) {
	th := New("worker")
	var ran bool
	if err := th.Start(func(t *Thread) { ran = true }); err != nil {
		t.Fatal(err)
	}
	if err := th.Join(); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("thread body never ran")
	}
}

func TestThread_StartTwiceFails(t *testing.T) {
	th := New("worker")
	if err := th.Start(func(t *Thread) {}); err != nil {
		t.Fatal(err)
	}
	if err := th.Start(func(t *Thread) {}); err != ErrAlreadyStarted {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
	_ = th.Join()
}

func TestThread_JoinBeforeStartFails(t *testing.T) {
	th := New("worker")
	if err := th.Join(); err != ErrNotStarted {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}
}

func TestThread_CooperativeTermination(t *testing.T) {
	th := New("worker")
	stopped := make(chan struct{})
	if err := th.Start(func(t *Thread) {
		for !t.ShouldTerminate() {
			time.Sleep(time.Millisecond)
		}
		close(stopped)
	}); err != nil {
		t.Fatal(err)
	}
	th.Terminate()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("thread never observed termination flag")
	}
	_ = th.Join()
}

func TestThread_MemoryContextStack(t *testing.T) {
	th := New("worker")
	if err := th.PushMemoryContext("outer"); err != nil {
		t.Fatal(err)
	}
	if err := th.PushMemoryContext("inner"); err != nil {
		t.Fatal(err)
	}
	got := th.MemoryContext()
	if len(got) != 2 || got[0] != "outer" || got[1] != "inner" {
		t.Fatalf("unexpected memory context stack: %v", got)
	}
	if err := th.PopMemoryContext(); err != nil {
		t.Fatal(err)
	}
	if got := th.MemoryContext(); len(got) != 1 || got[0] != "outer" {
		t.Fatalf("unexpected memory context stack after pop: %v", got)
	}
}

func TestThread_ErrorContextStack(t *testing.T) {
	th := New("worker")
	if err := th.PushErrorContext("load", "file=foo.dat"); err != nil {
		t.Fatal(err)
	}
	frames := th.ErrorContext()
	if len(frames) != 1 || frames[0].Name != "load" || frames[0].Data != "file=foo.dat" {
		t.Fatalf("unexpected error context: %v", frames)
	}
	if err := th.PopErrorContext(); err != nil {
		t.Fatal(err)
	}
	if err := th.PopErrorContext(); err != errctx.ErrUnderflow {
		t.Fatalf("expected errctx.ErrUnderflow, got %v", err)
	}
}

func TestThread_ErrorContextOverflow(t *testing.T) {
	th := NewSized("worker", 4)
	for i := 0; i < 4; i++ {
		if err := th.PushErrorContext("frame", ""); err != nil {
			t.Fatalf("unexpected error at depth %d: %v", i, err)
		}
	}
	if err := th.PushErrorContext("overflow", ""); err != errctx.ErrOverflow {
		t.Fatalf("expected errctx.ErrOverflow, got %v", err)
	}
}

func TestRegistry_SpawnLookupAndAutoRelease(t *testing.T) {
	r := NewRegistry(4)
	done := make(chan struct{})
	h, err := r.Spawn("worker", func(t *Thread) { close(done) })
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Lookup(h); err != nil {
		t.Fatal(err)
	}
	<-done

	// Give the goroutine's deferred Free a moment to run.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := r.Lookup(h); err != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("expected handle to become stale after thread completion")
}

func TestRegistry_TerminateLiveThread(t *testing.T) {
	r := NewRegistry(4)
	stopped := make(chan struct{})
	h, err := r.Spawn("worker", func(t *Thread) {
		for !t.ShouldTerminate() {
			time.Sleep(time.Millisecond)
		}
		close(stopped)
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Terminate(h); err != nil {
		t.Fatal(err)
	}
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("registered thread never observed termination flag")
	}
}
