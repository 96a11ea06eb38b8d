// Package observability provides a pluggable error-reporting sink for
// panics and errors recovered from platform adapter calls and the sync
// engine's background loops. If no reporter is configured via
// SetErrorReporter, reports are silently dropped at zero cost beyond a
// nil check.
package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/watchcask/allio/pkg/allio/types"
)

// AdapterPanicError wraps a panic recovered from a platform.Adapter call
// made on the poll loop or a notification callback, so the caller can keep
// running instead of crashing the whole process over one bad OS call.
type AdapterPanicError struct {
	// Operation names the sync engine method that was running:
	// "PollOnce" or "OnElementEvent".
	Operation  string
	PID        types.ProcessId
	PanicValue interface{}
}

func (e *AdapterPanicError) Error() string {
	return fmt.Sprintf("panic during %s (pid %s): %v", e.Operation, e.PID, e.PanicValue)
}

// ErrorReporter is a pluggable error-tracking backend: console, Sentry, or
// a test double. Implementations must be safe for concurrent use.
type ErrorReporter interface {
	// ReportPanic reports a panic recovered from adapter or handler code.
	ReportPanic(err *AdapterPanicError, ctx *ErrorContext)
	// ReportError reports any other error worth surfacing (a failed
	// refresh, a rejected Set, an observer subscription failure).
	ReportError(err error, ctx *ErrorContext)
	// Flush blocks until pending reports are sent or timeout elapses.
	Flush(timeout time.Duration) error
}

// ErrorContext carries the allio-specific state around an error: which
// element/process/operation was involved, plus free-form tags, extras and
// a breadcrumb trail leading up to it. All fields are optional.
type ErrorContext struct {
	Operation string
	PID       types.ProcessId
	ElementID types.ElementId
	WindowID  types.WindowId
	Timestamp time.Time

	Tags        map[string]string
	Extra       map[string]interface{}
	Breadcrumbs []Breadcrumb
	StackTrace  []byte
}

// Breadcrumb is one entry in the trail of operations leading up to an
// error — the last few Get/Set/Perform/poll events before things went
// wrong, most recent last.
type Breadcrumb struct {
	Type      string
	Category  string
	Message   string
	Level     string
	Timestamp time.Time
	Data      map[string]interface{}
}

var (
	globalReporterMu sync.RWMutex
	globalReporter   ErrorReporter
)

// SetErrorReporter installs the reporter used by the sync engine to
// surface recovered panics. Pass nil to disable
// reporting.
func SetErrorReporter(reporter ErrorReporter) {
	globalReporterMu.Lock()
	defer globalReporterMu.Unlock()
	globalReporter = reporter
}

// GetErrorReporter returns the currently installed reporter, or nil.
func GetErrorReporter() ErrorReporter {
	globalReporterMu.RLock()
	defer globalReporterMu.RUnlock()
	return globalReporter
}
