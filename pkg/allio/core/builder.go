package core

import (
	"time"

	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/types"
)

// Builder provides a fluent alternative to constructing a Config literal
// and calling New directly. It's equivalent to New in every other respect;
// Build is where HasPermissions is actually checked and the Core built.
type Builder struct {
	cfg Config

	// useDisplayLink is accepted for parity with pkg/allio/config's own
	// knob but isn't consumed by Core: display-link-synced polling is a
	// real-adapter concern, and no adapter in this repo implements one.
	useDisplayLink bool
}

// NewBuilder starts a Builder with the same defaults New(adapter, Config{})
// would use.
func NewBuilder() *Builder {
	return &Builder{}
}

// ExcludePID excludes pid's window from FetchWindows results and uses its
// window position as the coordinate offset applied to every other window.
func (b *Builder) ExcludePID(pid types.ProcessId) *Builder {
	b.cfg.ExcludePID = &pid
	return b
}

// FilterFullscreen drops fullscreen windows from the tracked set.
func (b *Builder) FilterFullscreen(v bool) *Builder {
	b.cfg.FilterFullscreen = v
	return b
}

// FilterOffscreen drops windows positioned entirely off every display.
func (b *Builder) FilterOffscreen(v bool) *Builder {
	b.cfg.FilterOffscreen = v
	return b
}

// IntervalMS sets the sync engine's poll interval in milliseconds.
func (b *Builder) IntervalMS(ms uint64) *Builder {
	b.cfg.PollInterval = time.Duration(ms) * time.Millisecond
	return b
}

// UseDisplayLink records a preference for display-link-synced polling.
// Accepted for config parity; no adapter in this repo implements one, so
// PollInterval still governs polling regardless of this setting.
func (b *Builder) UseDisplayLink(v bool) *Builder {
	b.useDisplayLink = v
	return b
}

// EventChannelCapacity sets the per-subscriber buffered channel size for
// the event bus.
func (b *Builder) EventChannelCapacity(n int) *Builder {
	b.cfg.EventBusCapacity = n
	return b
}

// Build constructs the Core, equivalent to calling New(adapter, cfg) with
// the Config accumulated by the preceding chain.
func (b *Builder) Build(adapter platform.Adapter) (*Core, error) {
	return New(adapter, b.cfg)
}
