// Package thread implements spec.md §5's thread model: preemptive
// OS-thread semantics mapped onto goroutines, with a per-thread block of
// thread-local-equivalent state (name, random generator, memory-context
// stack, error-context stack) and cooperative cancellation.
//
// Go has no addressable thread-local storage, and goroutines are too
// cheap and too mobile across OS threads for one to stand in for the
// spec's "OS thread with persistent TLS" model directly. Instead each
// logical thread gets an explicit *Thread handle carrying its own state;
// since that state is only ever touched by the goroutine the handle was
// created for (true to "thread-local" in spirit even though nothing
// stops another goroutine holding the pointer), no locking protects it
// except the cooperative-cancellation flag and the join channel, which
// are meant to cross goroutines.
package thread

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"sync/atomic"

	"github.com/joeycumines/go-foundation/internal/errctx"
	"github.com/joeycumines/go-foundation/memory"
	"github.com/joeycumines/go-foundation/objectmap"
)

var (
	// ErrAlreadyStarted is returned by Start if called more than once.
	ErrAlreadyStarted = errors.New("thread: already started")
	// ErrNotStarted is returned by Join if Start was never called.
	ErrNotStarted = errors.New("thread: not started")
)

// Frame is one entry of a thread's error-context stack, re-exported from
// internal/errctx so callers of this package never need to import it
// directly.
type Frame = errctx.Frame

// Thread is one logical unit of concurrent work: a goroutine plus the
// thread-local-equivalent state spec.md §5 requires every thread own.
type Thread struct {
	name string
	rng  *rand.Rand

	memCtx   context.Context
	errStack *errctx.Stack

	terminate atomic.Bool
	started   atomic.Bool
	done      chan struct{}
}

// New creates (but does not start) a thread with the given name and a
// private random generator seeded from the system entropy source, per
// spec.md §5's "each thread owns ... a random generator." The
// error-context stack is bounded at errctx.MaxDepth frames; use NewSized
// to apply the `error_context_depth` configuration key.
func New(name string) *Thread {
	return NewSized(name, errctx.MaxDepth)
}

// NewSized is New with an explicit error-context stack depth, for callers
// applying the `error_context_depth` configuration key (spec.md §6).
func NewSized(name string, errorContextDepth int) *Thread {
	return &Thread{
		name:     name,
		rng:      rand.New(rand.NewPCG(seed64(), seed64())),
		memCtx:   context.Background(),
		errStack: errctx.NewStack(errorContextDepth),
		done:     make(chan struct{}),
	}
}

func seed64() uint64 {
	var b [8]byte
	_, _ = crand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// Start begins running fn on a new goroutine; fn receives the Thread so
// it can poll ShouldTerminate and push/pop context frames. Start may be
// called at most once per Thread.
func (t *Thread) Start(fn func(t *Thread)) error {
	if !t.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	go func() {
		defer close(t.done)
		fn(t)
	}()
	return nil
}

// Join blocks until the thread's goroutine returns.
func (t *Thread) Join() error {
	if !t.started.Load() {
		return ErrNotStarted
	}
	<-t.done
	return nil
}

// Terminate cooperatively requests that the thread stop: it sets a flag
// the running body is expected to poll via ShouldTerminate. It does not
// forcibly stop the goroutine, matching spec.md §5's cancellation model.
func (t *Thread) Terminate() { t.terminate.Store(true) }

// ShouldTerminate reports whether Terminate has been called. The thread
// body must poll this at suitable points to cooperate with cancellation.
func (t *Thread) ShouldTerminate() bool { return t.terminate.Load() }

// Name returns the thread's name.
func (t *Thread) Name() string { return t.name }

// RNG returns the thread's private random generator.
func (t *Thread) RNG() *rand.Rand { return t.rng }

// PushMemoryContext pushes tag onto this thread's memory-context stack,
// delegating to memory.ContextPush. Only the owning goroutine should call
// this, matching the thread-local contract the stack otherwise relies on.
func (t *Thread) PushMemoryContext(tag string) error {
	next, err := memory.ContextPush(t.memCtx, tag)
	if err != nil {
		return err
	}
	t.memCtx = next
	return nil
}

// PopMemoryContext pops the top memory-context tag.
func (t *Thread) PopMemoryContext() error {
	next, err := memory.ContextPop(t.memCtx)
	if err != nil {
		return err
	}
	t.memCtx = next
	return nil
}

// MemoryContext returns the thread's current memory-context stack,
// outermost frame first.
func (t *Thread) MemoryContext() []string { return memory.Context(t.memCtx) }

// PushErrorContext pushes a named diagnostic frame onto this thread's
// error-context stack, delegating to internal/errctx.Stack.
func (t *Thread) PushErrorContext(name, data string) error {
	return t.errStack.Push(name, data)
}

// PopErrorContext pops the top error-context frame.
func (t *Thread) PopErrorContext() error { return t.errStack.Pop() }

// ErrorContext returns a copy of the thread's current error-context
// stack, outermost frame first — the set a fault handler would flush
// into the log.
func (t *Thread) ErrorContext() []Frame { return t.errStack.Frames() }

// ClearErrorContext empties the error-context stack, matching spec.md
// §7's "a fault clears the context on return" once a fault handler has
// flushed it into the log.
func (t *Thread) ClearErrorContext() { t.errStack.Clear() }

// Registry tracks live threads behind stable handles, bounded by the
// `thread_map_size` configuration key (spec.md §6), reusing objectmap's
// Treiber-stack slot allocator (component J) rather than a second
// handle scheme.
type Registry struct {
	threads *objectmap.Map[Thread]
}

// NewRegistry creates a thread registry with room for at most capacity
// concurrently live threads.
func NewRegistry(capacity int) *Registry {
	return &Registry{threads: objectmap.New[Thread](capacity)}
}

// Spawn creates and starts a thread under the given name, registers it,
// and returns its handle. The handle is released automatically once the
// thread's goroutine returns.
func (r *Registry) Spawn(name string, fn func(t *Thread)) (objectmap.Handle, error) {
	h, err := r.threads.Reserve()
	if err != nil {
		return objectmap.NullHandle, err
	}
	th := New(name)
	if err := r.threads.Set(h, th); err != nil {
		return objectmap.NullHandle, err
	}
	if err := th.Start(func(t *Thread) {
		defer r.threads.Free(h)
		fn(t)
	}); err != nil {
		r.threads.Free(h)
		return objectmap.NullHandle, err
	}
	return h, nil
}

// Lookup returns the thread behind a handle, or an error if the handle is
// stale (the thread already finished and the slot was reused or freed).
func (r *Registry) Lookup(h objectmap.Handle) (*Thread, error) {
	return r.threads.Lookup(h)
}

// Terminate cooperatively requests cancellation of the thread behind h,
// if it is still live.
func (r *Registry) Terminate(h objectmap.Handle) error {
	th, err := r.threads.Lookup(h)
	if err != nil {
		return err
	}
	th.Terminate()
	return nil
}

// Capacity returns the registry's configured thread_map_size.
func (r *Registry) Capacity() int { return r.threads.Capacity() }
