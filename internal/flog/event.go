package flog

import "github.com/joeycumines/go-foundation/internal/errctx"

// Event models the integration point between the call-site Builder API
// and a concrete backend, per logiface's Event interface. Severity and
// AddField are mandatory; every other method is optional, with
// UnimplementedEvent supplying a "return false" default so new field
// kinds can be added to Event without breaking existing backends —
// exactly the forward-compatibility logiface's own
// mustEmbedUnimplementedArraySupport-style embeds exist for (see
// logiface/arraysupport.go).
type Event interface {
	// Severity returns the event's severity; an implementation whose
	// zero value is used directly (not via a constructor) must return
	// SeverityNone here, matching logiface's "disabled level" contract.
	Severity() Severity
	// AddField adds an arbitrary-typed field, for structured logging.
	AddField(key string, val any)

	// AddMessage sets the log message, returning false if unimplemented.
	AddMessage(msg string) bool
	// AddError adds an error field, returning false if unimplemented.
	AddError(err error) bool
	// AddString is an optional fast-path optimization for string fields.
	AddString(key, val string) bool
	// AddInt is an optional fast-path optimization for int fields.
	AddInt(key string, val int) bool
	// AddUint64 is an optional fast-path optimization for uint64 fields.
	AddUint64(key string, val uint64) bool
	// AddBool is an optional fast-path optimization for bool fields.
	AddBool(key string, val bool) bool
	// AddUUID is an optional fast-path optimization for a UUID field,
	// expressed as its already-formatted string.
	AddUUID(key string, val string) bool
	// AddMemoryContext adds the current memory-context stack
	// (component I) as a field, expressed outermost-frame-first.
	AddMemoryContext(key string, val []string) bool
	// AddErrorContext adds the current error-context stack
	// (internal/errctx) as a field.
	AddErrorContext(key string, val []errctx.Frame) bool
}

// UnimplementedEvent is embedded by Event implementations to satisfy
// every optional method with a "not supported" default, per logiface's
// UnimplementedEvent pattern.
type UnimplementedEvent struct{}

func (UnimplementedEvent) AddMessage(string) bool                       { return false }
func (UnimplementedEvent) AddError(error) bool                          { return false }
func (UnimplementedEvent) AddString(string, string) bool                { return false }
func (UnimplementedEvent) AddInt(string, int) bool                      { return false }
func (UnimplementedEvent) AddUint64(string, uint64) bool                { return false }
func (UnimplementedEvent) AddBool(string, bool) bool                    { return false }
func (UnimplementedEvent) AddUUID(string, string) bool                  { return false }
func (UnimplementedEvent) AddMemoryContext(string, []string) bool       { return false }
func (UnimplementedEvent) AddErrorContext(string, []errctx.Frame) bool  { return false }
