// Package core wires the registry, event bus, subscriptions and sync engine
// together behind the public API allio hands its callers: Get/Children/
// Parent/WindowRoot (recency-qualified reads), Set/Perform (writes),
// Watch/Unwatch/Observe/Unobserve (subscriptions), Subscribe (the event
// stream) and Snapshot/ElementAtPoint.
//
// Core owns the single reader-writer lock guarding the registry. Every
// public method takes the lock only around the registry access itself and
// releases it before making any platform call, so a slow OS call from one
// caller never blocks every other reader.
package core

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/watchcask/allio/pkg/allio/adapters"
	"github.com/watchcask/allio/pkg/allio/eventbus"
	"github.com/watchcask/allio/pkg/allio/monitoring"
	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/registry"
	"github.com/watchcask/allio/pkg/allio/subscriptions"
	allsync "github.com/watchcask/allio/pkg/allio/sync"
	"github.com/watchcask/allio/pkg/allio/types"
)

// Config controls polling and bus behavior. Zero values fall back to the
// same defaults the underlying packages use on their own.
type Config struct {
	// ExcludePID, if set, is allio's own overlay window's process id: its
	// window position becomes the coordinate offset applied to every other
	// window, and the window itself never appears in FetchWindows results.
	ExcludePID *types.ProcessId

	FilterFullscreen bool
	FilterOffscreen  bool

	// PollInterval is how often the sync engine polls for window and mouse
	// changes. Zero defaults to 8ms, matching the platform's native refresh
	// granularity on a non-display-synced backend.
	PollInterval time.Duration

	// EventBusCapacity is the per-subscriber buffered channel size. Zero
	// uses eventbus.DefaultCapacity.
	EventBusCapacity int

	// MaxConcurrentSweeps bounds how many observed subtrees can be swept at
	// once. Zero defaults to 4.
	MaxConcurrentSweeps int

	Logger *log.Logger
}

// Core is the top-level allio instance for one process.
type Core struct {
	logger  *log.Logger
	adapter platform.Adapter
	config  Config

	mu       sync.RWMutex
	registry *registry.Registry

	bus     *eventbus.Bus
	idSeq   *types.ElementIdSeq
	sweeper *subscriptions.Sweeper
	engine  *allsync.Engine

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Core around adapter. Returns ErrPermissionDenied if the
// process lacks accessibility permissions; nothing else in Core may be
// called usefully until permissions are granted and a new Core is built.
func New(adapter platform.Adapter, cfg Config) (*Core, error) {
	if !adapter.HasPermissions() {
		return nil, types.ErrPermissionDenied()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Core{
		logger:  logger,
		adapter: adapter,
		config:  cfg,
		bus:     eventbus.New(cfg.EventBusCapacity),
		idSeq:   &types.ElementIdSeq{},
	}
	c.bus.SetOverflowHandler(func(int) { monitoring.GetGlobalMetrics().RecordEventDropped() })
	c.registry = registry.New(logger, c.bus.Publish, c.buildElement)
	c.sweeper = subscriptions.NewSweeper(logger, &c.mu, c.registry, adapter, c.bus.Publish, c.idSeq, cfg.MaxConcurrentSweeps)
	c.engine = allsync.NewEngine(allsync.Config{
		Logger:           logger,
		Mu:               &c.mu,
		Registry:         c.registry,
		Adapter:          adapter,
		Sink:             c,
		IDSeq:            c.idSeq,
		ExcludePID:       cfg.ExcludePID,
		FilterFullscreen: cfg.FilterFullscreen,
		FilterOffscreen:  cfg.FilterOffscreen,
	})

	return c, nil
}

func (c *Core) buildElement(id types.ElementId) (types.Element, bool) {
	return adapters.BuildElement(c.registry, id)
}

// read runs fn with the registry lock held for reading.
func (c *Core) read(fn func(r *registry.Registry)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.registry)
}

// write runs fn with the registry lock held for writing.
func (c *Core) write(fn func(r *registry.Registry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.registry)
}

// Start launches the background poll loop and the subtree sweeper. Call
// once; Close stops both.
func (c *Core) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	interval := c.config.PollInterval
	if interval <= 0 {
		interval = 8 * time.Millisecond
	}

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.engine.Run(ctx, interval)
	}()
	go func() {
		defer c.wg.Done()
		c.sweeper.Run(ctx)
	}()
}

// Close stops the background loops and waits for them to exit.
func (c *Core) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// Subscribe registers a new event subscriber. Callers must eventually call
// the returned unsubscribe function.
func (c *Core) Subscribe() (id int, events <-chan types.Event, unsubscribe func()) {
	return c.bus.Subscribe()
}

// Snapshot returns the full current state, suitable for sending to a newly
// connected subscriber before it starts receiving incremental events.
func (c *Core) Snapshot() types.Snapshot {
	var snap types.Snapshot
	c.read(func(r *registry.Registry) { snap = adapters.BuildSnapshot(r) })
	return snap
}

// Observe starts polling observation of rootID's subtree. See
// subscriptions.Sweeper.Observe.
func (c *Core) Observe(rootID types.ElementId, cfg subscriptions.ObserveConfig) error {
	c.mu.RLock()
	_, ok := c.registry.Element(rootID)
	c.mu.RUnlock()
	if !ok {
		return types.ErrElementNotFound(rootID)
	}
	return c.sweeper.Observe(rootID, cfg)
}

// Unobserve stops observing rootID's subtree.
func (c *Core) Unobserve(rootID types.ElementId) {
	c.sweeper.Unobserve(rootID)
}

// Watch adds id's role-appropriate notifications to its watch handle.
func (c *Core) Watch(id types.ElementId) error {
	var err error
	c.write(func(r *registry.Registry) { err = subscriptions.Watch(r, c.logger, id) })
	return err
}

// Unwatch removes id's role-appropriate notifications from its watch
// handle.
func (c *Core) Unwatch(id types.ElementId) error {
	var err error
	c.write(func(r *registry.Registry) { err = subscriptions.Unwatch(r, id) })
	return err
}

// ensureWatched creates id's baseline destruction watch if it has none yet.
// A no-op if id isn't cached or its process has no observer.
func (c *Core) ensureWatched(id types.ElementId) {
	var obs platform.Observer
	c.read(func(r *registry.Registry) {
		elem, ok := r.Element(id)
		if !ok {
			return
		}
		proc, ok := r.Process(elem.PID)
		if ok {
			obs = proc.Observer
		}
	})
	if obs == nil {
		return
	}
	c.write(func(r *registry.Registry) {
		subscriptions.EnsureWatched(r, obs, c, c.logger, id)
	})
}

// OnElementEvent implements platform.EventSink, so a Core can be handed
// directly to an Observer/Adapter as the callback target — mirroring the
// Rust source handing an Arc<Self> to observer.create_watch /
// create_observer.
func (c *Core) OnElementEvent(event platform.ElementEvent) {
	c.engine.OnElementEvent(event)
}
