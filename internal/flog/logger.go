package flog

import "github.com/joeycumines/go-foundation/internal/errctx"

// Factory constructs a new Event for the given severity, or nil if that
// severity is below the logger's configured threshold — mirroring
// logiface's level-gated event allocation (no Event is built, and no
// backend work happens, for a disabled level).
type Factory func(sev Severity) Event

// Writer receives a finished Event for output (e.g. appending it to a
// file, writing it to stderr). It is called at most once per Builder
// chain, when Msg is called.
type Writer func(Event)

// Logger is the entry point for severity-gated, fluent log-event
// construction, mirroring logiface.Logger's Builder-returning level
// methods (Debug/Info/Warn/Error).
type Logger struct {
	factory Factory
	writer  Writer
	fields  []field
}

type field struct {
	key string
	val any
}

// New creates a Logger backed by factory (which gates and allocates
// Events) and writer (which receives completed Events).
func New(factory Factory, writer Writer) *Logger {
	return &Logger{factory: factory, writer: writer}
}

// With returns a child Logger that pre-applies key/val to every Event it
// builds, mirroring logiface.Context's accumulated-field model.
func (l *Logger) With(key string, val any) *Logger {
	fields := make([]field, len(l.fields)+1)
	copy(fields, l.fields)
	fields[len(fields)-1] = field{key, val}
	return &Logger{factory: l.factory, writer: l.writer, fields: fields}
}

func (l *Logger) build(sev Severity) *Builder {
	if l == nil || l.factory == nil {
		return nil
	}
	ev := l.factory(sev)
	if ev == nil {
		return nil
	}
	for _, f := range l.fields {
		setField(ev, f.key, f.val)
	}
	return &Builder{logger: l, event: ev}
}

func (l *Logger) Debug() *Builder   { return l.build(SeverityDebug) }
func (l *Logger) Info() *Builder    { return l.build(SeverityInfo) }
func (l *Logger) Warning() *Builder { return l.build(SeverityWarning) }
func (l *Logger) Error() *Builder   { return l.build(SeverityError) }
func (l *Logger) Panic() *Builder   { return l.build(SeverityPanic) }

// Builder accumulates fields on one Event before it is written. All
// methods are nil-safe and chainable: a Builder from a disabled level is
// nil, and every method tolerates a nil receiver so call sites never
// need a level check before chaining (`log.Debug().Str("k", "v").Msg()`
// compiles and costs nothing when Debug is disabled), mirroring
// logiface's own disabled-level fast path.
type Builder struct {
	logger *Logger
	event  Event
}

func setField(ev Event, key string, val any) {
	switch v := val.(type) {
	case string:
		if ev.AddString(key, v) {
			return
		}
	case int:
		if ev.AddInt(key, v) {
			return
		}
	case uint64:
		if ev.AddUint64(key, v) {
			return
		}
	case bool:
		if ev.AddBool(key, v) {
			return
		}
	}
	ev.AddField(key, val)
}

// Str adds a string field.
func (b *Builder) Str(key, val string) *Builder {
	if b == nil {
		return nil
	}
	setField(b.event, key, val)
	return b
}

// Int adds an int field.
func (b *Builder) Int(key string, val int) *Builder {
	if b == nil {
		return nil
	}
	setField(b.event, key, val)
	return b
}

// Uint64 adds a uint64 field.
func (b *Builder) Uint64(key string, val uint64) *Builder {
	if b == nil {
		return nil
	}
	setField(b.event, key, val)
	return b
}

// Bool adds a bool field.
func (b *Builder) Bool(key string, val bool) *Builder {
	if b == nil {
		return nil
	}
	setField(b.event, key, val)
	return b
}

// UUID adds a pre-formatted UUID string field.
func (b *Builder) UUID(key, val string) *Builder {
	if b == nil {
		return nil
	}
	if !b.event.AddUUID(key, val) {
		b.event.AddField(key, val)
	}
	return b
}

// Err sets the event's error field.
func (b *Builder) Err(err error) *Builder {
	if b == nil {
		return nil
	}
	if !b.event.AddError(err) {
		b.event.AddField("error", err)
	}
	return b
}

// MemoryContext adds the current memory-context stack as a field.
func (b *Builder) MemoryContext(key string, frames []string) *Builder {
	if b == nil {
		return nil
	}
	if !b.event.AddMemoryContext(key, frames) {
		b.event.AddField(key, frames)
	}
	return b
}

// ErrorContext adds the current error-context stack as a field.
func (b *Builder) ErrorContext(key string, frames []errctx.Frame) *Builder {
	if b == nil {
		return nil
	}
	if !b.event.AddErrorContext(key, frames) {
		b.event.AddField(key, frames)
	}
	return b
}

// Msg sets the event's message and writes it via the Logger's Writer,
// finishing the Builder chain.
func (b *Builder) Msg(msg string) {
	if b == nil {
		return
	}
	if !b.event.AddMessage(msg) {
		b.event.AddField("message", msg)
	}
	b.logger.writer(b.event)
}
