package observability

import (
	"log"
	"sync"
	"time"
)

// ConsoleReporter logs errors to the standard logger. Meant for local
// development, where there's no Sentry project to point at yet.
type ConsoleReporter struct {
	verbose bool
	mu      sync.Mutex
}

// NewConsoleReporter builds a ConsoleReporter. When verbose, stack traces
// are included in the log output.
func NewConsoleReporter(verbose bool) *ConsoleReporter {
	return &ConsoleReporter{verbose: verbose}
}

func (r *ConsoleReporter) ReportPanic(err *AdapterPanicError, ctx *ErrorContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.Printf("[allio] panic in %s (pid %s, element %d): %v", ctx.Operation, err.PID, ctx.ElementID, err.PanicValue)
	if r.verbose && len(ctx.StackTrace) > 0 {
		log.Printf("[allio] stack trace:\n%s", ctx.StackTrace)
	}
}

func (r *ConsoleReporter) ReportError(err error, ctx *ErrorContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.Printf("[allio] error in %s (pid %s, element %d): %v", ctx.Operation, ctx.PID, ctx.ElementID, err)
	if r.verbose && len(ctx.StackTrace) > 0 {
		log.Printf("[allio] stack trace:\n%s", ctx.StackTrace)
	}
}

// Flush is a no-op: console output is already synchronous.
func (r *ConsoleReporter) Flush(timeout time.Duration) error { return nil }
