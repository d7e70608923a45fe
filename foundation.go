// Package foundation is this module's entry point: spec.md §6's
// foundation_initialize / main_run / foundation_finalize triad, wiring
// together the memory allocator (component I), thread registry
// (component O), dynamic library registry (component Q), error
// reporter and logging sink (component R), and process lifecycle
// (component P) behind one Config/Application-driven constructor.
package foundation

import (
	"fmt"
	"os"

	"github.com/joeycumines/go-foundation/internal/errctx"
	"github.com/joeycumines/go-foundation/internal/flog"
	"github.com/joeycumines/go-foundation/internal/flog/stumpy"
	"github.com/joeycumines/go-foundation/library"
	"github.com/joeycumines/go-foundation/memory"
	"github.com/joeycumines/go-foundation/process"
	"github.com/joeycumines/go-foundation/thread"
	"github.com/joeycumines/go-foundation/uuid"
)

// Recognized configuration keys and their defaults, per spec.md §6.
const (
	DefaultTemporaryMemory    = 2 << 20 // 2 MiB
	MinTemporaryMemory        = 1024
	DefaultLibraryMax         = 32
	DefaultThreadMapSize      = 64
	DefaultErrorContextDepth  = errctx.MaxDepth
	DefaultMemoryContextDepth = 32
	DefaultLocale             = "enUS"
)

// Config is spec.md §6's recognized configuration keys, as a plain
// struct rather than a parsed file format (config files are explicitly
// out of scope per spec.md §1).
type Config struct {
	TemporaryMemory    int
	MemoryTracker      bool
	LibraryMax         int
	ThreadMapSize      int
	ErrorContextDepth  int
	MemoryContextDepth int
	Locale             string
}

func defaultConfig() Config {
	return Config{
		TemporaryMemory:    DefaultTemporaryMemory,
		LibraryMax:         DefaultLibraryMax,
		ThreadMapSize:      DefaultThreadMapSize,
		ErrorContextDepth:  DefaultErrorContextDepth,
		MemoryContextDepth: DefaultMemoryContextDepth,
		Locale:             DefaultLocale,
	}
}

// Option configures Initialize, mirroring the teacher's
// eventloop.Option functional-options set (eventloop/options.go).
type Option func(*Config)

// WithTemporaryMemory sets the temporary arena size in bytes (`temporary_memory`).
func WithTemporaryMemory(bytes int) Option {
	return func(c *Config) { c.TemporaryMemory = bytes }
}

// WithMemoryTracker enables the leak tracker (`memory_tracker` = "local").
func WithMemoryTracker(enabled bool) Option {
	return func(c *Config) { c.MemoryTracker = enabled }
}

// WithLibraryMax sets the max concurrently loaded dynamic libraries (`library_max`).
func WithLibraryMax(n int) Option {
	return func(c *Config) { c.LibraryMax = n }
}

// WithThreadMapSize sets the max concurrent thread objects (`thread_map_size`).
func WithThreadMapSize(n int) Option {
	return func(c *Config) { c.ThreadMapSize = n }
}

// WithErrorContextDepth sets the max error-context stack depth (`error_context_depth`).
func WithErrorContextDepth(n int) Option {
	return func(c *Config) { c.ErrorContextDepth = n }
}

// WithMemoryContextDepth sets the max memory-context stack depth (`memory_context_depth`).
func WithMemoryContextDepth(n int) Option {
	return func(c *Config) { c.MemoryContextDepth = n }
}

// WithLocale sets the 4-char `llCC` language+country tag (`locale`).
func WithLocale(locale string) Option {
	return func(c *Config) { c.Locale = locale }
}

// Application is spec.md §6's
// `{name, short_name, company, version, flags, exception_handler, instance_uuid}`
// application descriptor passed to foundation_initialize.
type Application struct {
	Name             string
	ShortName        string
	Company          string
	Version          string
	Flags            uint32
	ExceptionHandler process.DumpHandler
	InstanceUUID     uuid.UUID
}

// Foundation is the initialized library instance, owning every
// process-singleton SPEC_FULL.md names: the memory allocator, thread and
// library registries, error reporter, logging sink, and process
// lifecycle wrapper.
type Foundation struct {
	Config      Config
	Application Application

	Memory    *memory.Allocator
	Threads   *thread.Registry
	Libraries *library.Registry
	Reporter  *errctx.Reporter
	Log       *flog.Logger

	proc *process.Process
}

// memoryErrorReporter adapts errctx.Reporter to memory.ErrorReporter,
// so an OUT_OF_MEMORY condition from the allocator flows through the
// same last_error slot and handler dispatch as every other reported
// error, per spec.md §4.I / §7.
type memoryErrorReporter struct {
	reporter *errctx.Reporter
}

func (m memoryErrorReporter) ReportPanic(kind, message string) {
	m.reporter.Report(errctx.SeverityPanic, errctx.KindOutOfMemory, fmt.Sprintf("%s: %s", kind, message))
}

// Initialize wires up a Foundation instance per spec.md §6's
// foundation_initialize: it validates Config (defaulted via Option),
// constructs the memory allocator, thread/library registries, error
// reporter, and logging sink, and mints an instance UUID if the
// Application did not supply one.
func Initialize(app Application, opts ...Option) (*Foundation, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.TemporaryMemory < MinTemporaryMemory {
		return nil, fmt.Errorf("foundation: temporary_memory must be at least %d bytes, got %d", MinTemporaryMemory, cfg.TemporaryMemory)
	}
	if app.ShortName == "" {
		return nil, fmt.Errorf("foundation: application short_name is required")
	}
	if app.InstanceUUID.IsNil() {
		app.InstanceUUID = uuid.New4()
	}

	reporter := errctx.NewReporter(cfg.ErrorContextDepth)

	memOpts := []memory.Option{
		memory.WithTemporaryArena(cfg.TemporaryMemory),
		memory.WithErrorReporter(memoryErrorReporter{reporter: reporter}),
	}
	if cfg.MemoryTracker {
		memOpts = append(memOpts, memory.WithTracker(memory.NewLocalTracker(4096)))
	}

	f := &Foundation{
		Config:      cfg,
		Application: app,
		Memory:      memory.NewAllocator(memOpts...),
		Threads:     thread.NewRegistry(cfg.ThreadMapSize),
		Libraries:   library.New(cfg.LibraryMax),
		Reporter:    reporter,
		Log:         stumpy.New(os.Stderr, flog.SeverityInfo),
	}
	f.proc = process.New(app.ShortName, os.TempDir(), reporter, app.ExceptionHandler)

	f.Log.With("component", "foundation").Info().
		Str("application", app.Name).
		UUID("instance_uuid", app.InstanceUUID.String()).
		Msg("initialized")

	return f, nil
}

// Run invokes fn (the user's `main_run`), trapping any fault per
// spec.md §6's exit-code contract: 0 on success, -1 on a plain returned
// error, CRASH_DUMP_GENERATED on a trapped panic.
func (f *Foundation) Run(fn func() error) int {
	return f.proc.Run(fn)
}

// Finalize mirrors spec.md §6's `foundation_finalize`: it closes the
// memory allocator and returns the allocator's leak report. The thread and
// library registries, reporter and logger are not torn down here.
func (f *Foundation) Finalize() []memory.LeakEntry {
	f.Log.With("component", "foundation").Info().Msg("finalizing")
	return f.Memory.Close()
}
