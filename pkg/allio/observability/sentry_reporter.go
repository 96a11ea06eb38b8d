package observability

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryReporter sends errors to Sentry, with allio's process/element/
// window identifiers attached as tags and extras.
type SentryReporter struct {
	hub *sentry.Hub
}

// SentryOption configures the Sentry client during NewSentryReporter.
type SentryOption func(*sentry.ClientOptions)

// WithBeforeSend installs a hook to filter or modify events before
// they're sent.
func WithBeforeSend(fn func(*sentry.Event, *sentry.EventHint) *sentry.Event) SentryOption {
	return func(opts *sentry.ClientOptions) { opts.BeforeSend = fn }
}

// WithDebug enables Sentry's own debug logging.
func WithDebug(debug bool) SentryOption {
	return func(opts *sentry.ClientOptions) { opts.Debug = debug }
}

// WithEnvironment sets the environment tag attached to every event.
func WithEnvironment(environment string) SentryOption {
	return func(opts *sentry.ClientOptions) { opts.Environment = environment }
}

// WithRelease sets the release identifier attached to every event.
func WithRelease(release string) SentryOption {
	return func(opts *sentry.ClientOptions) { opts.Release = release }
}

// NewSentryReporter initializes the Sentry SDK with dsn and opts. An empty
// dsn disables sending events, which is useful in tests.
func NewSentryReporter(dsn string, opts ...SentryOption) (*SentryReporter, error) {
	clientOpts := sentry.ClientOptions{Dsn: dsn}
	for _, opt := range opts {
		opt(&clientOpts)
	}
	if err := sentry.Init(clientOpts); err != nil {
		return nil, fmt.Errorf("observability: init sentry: %w", err)
	}
	return &SentryReporter{hub: sentry.CurrentHub()}, nil
}

func (r *SentryReporter) ReportPanic(err *AdapterPanicError, ctx *ErrorContext) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		r.applyContext(scope, ctx)
		scope.SetExtra("panic_value", err.PanicValue)
		r.hub.CaptureException(fmt.Errorf("panic in %s (pid %s): %v", ctx.Operation, err.PID, err.PanicValue))
	})
}

func (r *SentryReporter) ReportError(err error, ctx *ErrorContext) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		r.applyContext(scope, ctx)
		r.hub.CaptureException(err)
	})
}

func (r *SentryReporter) applyContext(scope *sentry.Scope, ctx *ErrorContext) {
	scope.SetTag("operation", ctx.Operation)
	if ctx.PID != 0 {
		scope.SetTag("pid", ctx.PID.String())
	}
	if ctx.ElementID != 0 {
		scope.SetTag("element_id", fmt.Sprint(ctx.ElementID))
	}
	for k, v := range ctx.Tags {
		scope.SetTag(k, v)
	}
	for k, v := range ctx.Extra {
		scope.SetExtra(k, v)
	}
	for _, bc := range ctx.Breadcrumbs {
		scope.AddBreadcrumb(&sentry.Breadcrumb{
			Type:      bc.Type,
			Category:  bc.Category,
			Message:   bc.Message,
			Level:     sentry.Level(bc.Level),
			Timestamp: bc.Timestamp,
			Data:      bc.Data,
		}, 100)
	}
}

// Flush blocks until pending events are sent or timeout elapses.
func (r *SentryReporter) Flush(timeout time.Duration) error {
	if !r.hub.Flush(timeout) {
		return fmt.Errorf("observability: sentry flush timed out after %s", timeout)
	}
	return nil
}
