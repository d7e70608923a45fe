// Package flog implements spec.md §7's logging sink: a severity-leveled
// Builder/Context/Event API modeled on the teacher's logiface package
// (Builder/Context split from an Event implementation, with an
// UnimplementedEvent embed for forward-compatible optional field kinds),
// re-derived locally rather than imported since logiface is a sibling
// module in the teacher's monorepo, not a dependency this module can
// declare (see DESIGN.md).
package flog

import "github.com/joeycumines/go-foundation/internal/errctx"

// Severity re-exports errctx.Severity, the NONE..PANIC ladder spec.md §7
// uses for both log levels and error reporting.
type Severity = errctx.Severity

const (
	SeverityNone    = errctx.SeverityNone
	SeverityDebug   = errctx.SeverityDebug
	SeverityInfo    = errctx.SeverityInfo
	SeverityWarning = errctx.SeverityWarning
	SeverityError   = errctx.SeverityError
	SeverityPanic   = errctx.SeverityPanic
)
