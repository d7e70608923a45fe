// Package library implements spec.md §4.Q's thin dynamic-library symbol
// lookup wrapper: load a shared object by name, look up symbols in it,
// and name-dedupe concurrent loads of the same library via a shared
// refcount, exactly as original_source/foundation/library.c does with
// its objectmap-backed library_t table.
//
// Per spec.md's explicit Non-goal boundary ("dynamic plugin loading
// beyond a thin dlopen/LoadLibrary wrapper"), this stays thin: it does
// not attempt to model a general plugin system, version negotiation, or
// symbol-table introspection beyond what the platform loader gives it.
package library

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/joeycumines/go-foundation/objectmap"
)

var (
	// ErrNotFound is returned by Symbol when the named symbol is absent.
	ErrNotFound = errors.New("library: symbol not found")
	// ErrInvalidHandle is returned when a Handle's library has already
	// been unloaded or never existed.
	ErrInvalidHandle = errors.New("library: invalid handle")
)

// handle abstracts the platform loader's own handle type (plugin.Plugin
// on linux/darwin; see library_plugin.go and library_unsupported.go) so
// Registry's dedupe/refcount bookkeeping can be exercised in tests
// without a real shared object on disk.
type handle interface {
	lookup(name string) (any, error)
}

// entry is the objectmap payload: one loaded library, name-deduplicated
// and refcounted exactly like original_source/foundation/library.c's
// library_t.
type entry struct {
	name string
	lib  handle
	refs int
}

// openLibraryFn is swappable in tests to exercise Registry's dedupe and
// refcount bookkeeping without a real platform shared object on disk.
var openLibraryFn = openLibrary

// Registry is the `library_max`-bounded table of loaded libraries,
// mirroring _library_map in original_source/foundation/library.c. The
// zero value is not usable; construct with New.
type Registry struct {
	mu      sync.Mutex
	objects *objectmap.Map[entry]
	byName  map[string]objectmap.Handle
}

// New creates a Registry that can hold up to max concurrently loaded
// libraries, matching the `library_max` configuration key.
func New(max int) *Registry {
	return &Registry{
		objects: objectmap.New[entry](max),
		byName:  make(map[string]objectmap.Handle),
	}
}

// Load opens the shared library at path, or returns the existing Handle
// (with its refcount bumped) if a library with the same base name is
// already loaded, matching library_load's dedupe-by-name behavior.
func (r *Registry) Load(path string) (objectmap.Handle, error) {
	name := filepath.Base(path)

	r.mu.Lock()
	if h, ok := r.byName[name]; ok {
		if e, err := r.objects.Lookup(h); err == nil {
			e.refs++
			r.mu.Unlock()
			return h, nil
		}
		// Stale bookkeeping from a prior unload; fall through to reload.
		delete(r.byName, name)
	}
	r.mu.Unlock()

	lib, err := openLibraryFn(path)
	if err != nil {
		return objectmap.NullHandle, fmt.Errorf("library: loading %q: %w", path, err)
	}

	h, err := r.objects.Reserve()
	if err != nil {
		return objectmap.NullHandle, err
	}
	if err := r.objects.Set(h, &entry{name: name, lib: lib, refs: 1}); err != nil {
		return objectmap.NullHandle, err
	}

	r.mu.Lock()
	r.byName[name] = h
	r.mu.Unlock()

	return h, nil
}

// Ref increments h's refcount, matching library_ref's "still valid"
// check plus implicit retain. It returns ErrInvalidHandle if h does not
// refer to a currently loaded library.
func (r *Registry) Ref(h objectmap.Handle) error {
	e, err := r.objects.Lookup(h)
	if err != nil {
		return ErrInvalidHandle
	}
	r.mu.Lock()
	e.refs++
	r.mu.Unlock()
	return nil
}

// Unload decrements h's refcount, freeing the slot once it reaches
// zero. Note that Go's plugin package, unlike dlclose/FreeLibrary,
// provides no way to actually unmap a loaded shared object from the
// process; Unload therefore only releases this library's bookkeeping
// (so the handle and name become available for reuse detection and the
// slot counts against a fresh `library_max` budget again) rather than
// reclaiming the underlying library's address space.
func (r *Registry) Unload(h objectmap.Handle) error {
	e, err := r.objects.Lookup(h)
	if err != nil {
		return ErrInvalidHandle
	}
	r.mu.Lock()
	e.refs--
	done := e.refs <= 0
	if done {
		delete(r.byName, e.name)
	}
	r.mu.Unlock()
	if done {
		return r.objects.Free(h)
	}
	return nil
}

// Symbol looks up a named symbol in the library h refers to.
func (r *Registry) Symbol(h objectmap.Handle, name string) (any, error) {
	e, err := r.objects.Lookup(h)
	if err != nil {
		return nil, ErrInvalidHandle
	}
	sym, err := e.lib.lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return sym, nil
}

// Name returns the base name the library was loaded under.
func (r *Registry) Name(h objectmap.Handle) (string, error) {
	e, err := r.objects.Lookup(h)
	if err != nil {
		return "", ErrInvalidHandle
	}
	return e.name, nil
}

// Valid reports whether h refers to a currently loaded library.
func (r *Registry) Valid(h objectmap.Handle) bool {
	_, err := r.objects.Lookup(h)
	return err == nil
}

// Capacity returns the `library_max` bound this Registry was built with.
func (r *Registry) Capacity() int { return r.objects.Capacity() }
