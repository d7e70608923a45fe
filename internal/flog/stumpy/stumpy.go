// Package stumpy is flog's default, dependency-free backend: a compact
// JSON-line encoder adapted from the teacher's logiface-stumpy package
// (github.com/joeycumines/go-utilpkg/logiface-stumpy), which builds JSON
// incrementally into a reused []byte buffer rather than marshaling a
// map. Unlike the teacher's version, this one sticks to strconv's quoting
// and formatting (no jsonenc dependency — see DESIGN.md) since it only
// needs to encode flog's small, known field-type set.
package stumpy

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/joeycumines/go-foundation/internal/errctx"
	"github.com/joeycumines/go-foundation/internal/flog"
)

// Event is stumpy's Event implementation: a single reused byte buffer
// built up as fields are added, flushed as one JSON line per Msg call.
type Event struct {
	flog.UnimplementedEvent

	sev flog.Severity
	buf []byte
}

func (e *Event) Severity() flog.Severity { return e.sev }

func (e *Event) AddField(key string, val any) {
	e.appendKey(key)
	e.appendValue(val)
}

func (e *Event) AddMessage(msg string) bool {
	e.appendKey("message")
	e.appendString(msg)
	return true
}

func (e *Event) AddError(err error) bool {
	if err == nil {
		return true
	}
	e.appendKey("error")
	e.appendString(err.Error())
	return true
}

func (e *Event) AddString(key, val string) bool {
	e.appendKey(key)
	e.appendString(val)
	return true
}

func (e *Event) AddInt(key string, val int) bool {
	e.appendKey(key)
	e.buf = strconv.AppendInt(e.buf, int64(val), 10)
	return true
}

func (e *Event) AddUint64(key string, val uint64) bool {
	e.appendKey(key)
	e.buf = strconv.AppendUint(e.buf, val, 10)
	return true
}

func (e *Event) AddBool(key string, val bool) bool {
	e.appendKey(key)
	e.buf = strconv.AppendBool(e.buf, val)
	return true
}

func (e *Event) AddUUID(key string, val string) bool {
	e.appendKey(key)
	e.appendString(val)
	return true
}

func (e *Event) AddMemoryContext(key string, frames []string) bool {
	e.appendKey(key)
	e.buf = append(e.buf, '[')
	for i, f := range frames {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.appendString(f)
	}
	e.buf = append(e.buf, ']')
	return true
}

func (e *Event) AddErrorContext(key string, frames []errctx.Frame) bool {
	e.appendKey(key)
	e.buf = append(e.buf, '[')
	for i, f := range frames {
		if i > 0 {
			e.buf = append(e.buf, ',')
		}
		e.buf = append(e.buf, '{', '"', 'n', 'a', 'm', 'e', '"', ':')
		e.appendString(f.Name)
		e.buf = append(e.buf, ',', '"', 'd', 'a', 't', 'a', '"', ':')
		e.appendString(f.Data)
		e.buf = append(e.buf, '}')
	}
	e.buf = append(e.buf, ']')
	return true
}

func (e *Event) appendFieldSep() {
	if n := len(e.buf); n > 0 && e.buf[n-1] != '{' {
		e.buf = append(e.buf, ',')
	}
}

func (e *Event) appendKey(key string) {
	e.appendFieldSep()
	e.appendString(key)
	e.buf = append(e.buf, ':')
}

func (e *Event) appendString(s string) { e.buf = strconv.AppendQuote(e.buf, s) }

func (e *Event) appendValue(val any) {
	switch v := val.(type) {
	case string:
		e.appendString(v)
	case fmt.Stringer:
		e.appendString(v.String())
	default:
		e.appendString(fmt.Sprint(v))
	}
}

// Logger is a flog backend writing one JSON object per line to w, gated
// by a minimum severity, with Events pooled to avoid a fresh allocation
// per log call under load.
type Logger struct {
	mu    sync.Mutex
	w     io.Writer
	level flog.Severity
	pool  sync.Pool
}

// New creates a *flog.Logger backed by stumpy's JSON-line encoder,
// writing to w and suppressing events below level.
func New(w io.Writer, level flog.Severity) *flog.Logger {
	l := &Logger{w: w, level: level}
	l.pool.New = func() any { return &Event{} }
	return flog.New(l.factory, l.write)
}

func (l *Logger) factory(sev flog.Severity) flog.Event {
	if sev < l.level {
		return nil
	}
	e := l.pool.Get().(*Event)
	e.sev = sev
	e.buf = append(e.buf[:0], '{')
	e.buf = append(e.buf, '"', 'l', 'e', 'v', 'e', 'l', '"', ':')
	e.buf = strconv.AppendQuote(e.buf, sev.String())
	return e
}

func (l *Logger) write(ev flog.Event) {
	e := ev.(*Event)
	e.buf = append(e.buf, '}', '\n')
	l.mu.Lock()
	_, _ = l.w.Write(e.buf)
	l.mu.Unlock()
	l.pool.Put(e)
}
