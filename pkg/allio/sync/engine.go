// Package sync drives allio's two live data sources into the registry: a
// fixed-interval poll loop for windows, focus and the mouse cursor, and an
// EventSink that folds OS accessibility notifications (destruction, value/
// title changes, focus, selection) into the cache as they arrive. Window,
// attribute and child fetches and process setup run with no registry lock
// held, each source taking the lock only around the registry read or write
// itself. The watch calls made through the subscriptions package (baseline
// watches for new children, focus auto-watch/unwatch) run inside a
// registry write lock.
package sync

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/watchcask/allio/pkg/allio/adapters"
	"github.com/watchcask/allio/pkg/allio/monitoring"
	"github.com/watchcask/allio/pkg/allio/observability"
	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/registry"
	"github.com/watchcask/allio/pkg/allio/role"
	"github.com/watchcask/allio/pkg/allio/subscriptions"
	"github.com/watchcask/allio/pkg/allio/types"
)

// Config configures an Engine. Mu, Registry, Adapter and Sink are required;
// the rest are optional.
type Config struct {
	Logger   *log.Logger
	Mu       *sync.RWMutex
	Registry *registry.Registry
	Adapter  platform.Adapter
	// Sink receives ElementEvents handed to newly created Observers — almost
	// always the same value as the Engine's own owner (core.Core), which
	// forwards platform.EventSink calls straight into Engine.OnElementEvent.
	Sink platform.EventSink
	IDSeq *types.ElementIdSeq

	ExcludePID       *types.ProcessId
	FilterFullscreen bool
	FilterOffscreen  bool
}

// Engine is the sync engine: Run drives the poll loop, and OnElementEvent
// (satisfying platform.EventSink) handles OS notification callbacks.
type Engine struct {
	logger  *log.Logger
	mu      *sync.RWMutex
	reg     *registry.Registry
	adapter platform.Adapter
	sink    platform.EventSink
	idSeq   *types.ElementIdSeq

	excludePID       *types.ProcessId
	filterFullscreen bool
	filterOffscreen  bool
}

// NewEngine builds an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		logger:           logger,
		mu:               cfg.Mu,
		reg:              cfg.Registry,
		adapter:          cfg.Adapter,
		sink:             cfg.Sink,
		idSeq:            cfg.IDSeq,
		excludePID:       cfg.ExcludePID,
		filterFullscreen: cfg.FilterFullscreen,
		filterOffscreen:  cfg.FilterOffscreen,
	}
}

func (e *Engine) read(fn func(r *registry.Registry)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.reg)
}

func (e *Engine) write(fn func(r *registry.Registry)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.reg)
}

// Run ticks PollOnce every interval until ctx is canceled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pollOnceRecovered()
		}
	}
}

// pollOnceRecovered runs PollOnce with a recover guard, so a panic inside
// one tick's platform calls logs and reports instead of killing the loop.
func (e *Engine) pollOnceRecovered() {
	start := time.Now()
	defer func() {
		metrics := monitoring.GetGlobalMetrics()
		metrics.RecordPollDuration(time.Since(start))
		e.read(func(r *registry.Registry) {
			metrics.SetCachedElementCount(r.ElementCount())
			metrics.SetCachedWindowCount(r.WindowCount())
			metrics.SetCachedProcessCount(r.ProcessCount())
		})
		if r := recover(); r != nil {
			e.logger.Printf("sync: recovered panic in PollOnce: %v", r)
			if reporter := observability.GetErrorReporter(); reporter != nil {
				reporter.ReportPanic(&observability.AdapterPanicError{Operation: "PollOnce", PanicValue: r}, &observability.ErrorContext{Operation: "PollOnce"})
			}
		}
	}()
	e.PollOnce()
}

// PollOnce runs one iteration of the poll loop: mouse position, window
// enumeration (filtered and offset against ExcludePID's own window), newly
// discovered processes, and focused-window tracking.
//
// Window removal is suppressed for this iteration (skipRemoval) whenever
// the enumeration looks unreliable: ExcludePID's own overlay window is
// momentarily missing, or any raw window reports bounds far enough
// off-screen to suggest a space transition. Everything else — upsert,
// z-order, focus tracking, new-process bootstrap — still runs as normal.
func (e *Engine) PollOnce() {
	pos := e.adapter.FetchMousePosition()
	e.write(func(r *registry.Registry) { r.SetMousePosition(pos) })

	screenW, screenH := e.adapter.FetchScreenSize()
	rawWindows := e.adapter.FetchWindows(e.excludePID)

	offsetX, offsetY := 0.0, 0.0
	overlayMissing := false
	if e.excludePID != nil {
		found := false
		for _, w := range rawWindows {
			if w.ProcessID == *e.excludePID {
				offsetX, offsetY = w.Bounds.X, w.Bounds.Y
				found = true
				break
			}
		}
		overlayMissing = !found
	}

	hasOffscreenWindows := false
	for _, w := range rawWindows {
		if w.Bounds.X-offsetX > screenW+1.0 {
			hasOffscreenWindows = true
			break
		}
	}
	skipRemoval := overlayMissing || hasOffscreenWindows

	filtered := make([]types.Window, 0, len(rawWindows))
	for _, w := range rawWindows {
		if e.excludePID != nil && w.ProcessID == *e.excludePID {
			continue
		}
		w.Bounds.X -= offsetX
		w.Bounds.Y -= offsetY
		if e.filterFullscreen && w.Bounds.Matches(types.Bounds{Width: screenW, Height: screenH}, 1.0) {
			continue
		}
		if e.filterOffscreen && w.Bounds.X > screenW+1.0 {
			continue
		}
		filtered = append(filtered, w)
	}

	var newPIDs []types.ProcessId
	e.write(func(r *registry.Registry) {
		result := r.UpdateWindows(filtered, skipRemoval)
		for _, wid := range result.Added {
			if w, ok := r.Window(wid); ok {
				newPIDs = append(newPIDs, w.ProcessID)
			}
		}
		for _, pid := range result.RemovedProcessIDs {
			if !r.ProcessHasWindow(pid) {
				r.RemoveProcess(pid)
			}
		}
	})

	var focusedWindow types.WindowId
	for _, w := range filtered {
		if w.Focused {
			focusedWindow = w.ID
			break
		}
	}
	e.write(func(r *registry.Registry) { r.SetFocusedWindow(focusedWindow) })

	for _, pid := range newPIDs {
		e.ensureProcess(pid)
	}
}

// ensureProcess creates cached process state (observer, app element, app
// notification subscription) for pid if it doesn't exist yet. Idempotent.
func (e *Engine) ensureProcess(pid types.ProcessId) {
	var hasProcess bool
	e.read(func(r *registry.Registry) { hasProcess = r.HasProcess(pid) })
	if hasProcess {
		return
	}

	e.adapter.EnableAccessibilityForPID(pid)

	observer, err := e.adapter.CreateObserver(pid, e.sink)
	if err != nil {
		e.logger.Printf("sync: failed to create observer for pid %s: %v", pid, err)
		return
	}
	appHandle := e.adapter.AppElement(pid)

	var appNotifications platform.AppNotificationHandle
	if handle, err := observer.SubscribeAppNotifications(pid, e.sink); err != nil {
		e.logger.Printf("sync: failed to subscribe app notifications for pid %s: %v", pid, err)
	} else {
		appNotifications = handle
	}

	e.write(func(r *registry.Registry) {
		r.UpsertProcess(pid, &registry.CachedProcess{
			Observer:         observer,
			AppHandle:        appHandle,
			AppNotifications: appNotifications,
		})
	})
}

// OnElementEvent implements platform.EventSink: it folds one OS
// accessibility notification into the registry. A panic in any handler is
// recovered and reported rather than propagated to the OS callback.
func (e *Engine) OnElementEvent(event platform.ElementEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("sync: recovered panic handling event kind %v: %v", event.Kind, r)
			if reporter := observability.GetErrorReporter(); reporter != nil {
				reporter.ReportPanic(&observability.AdapterPanicError{Operation: "OnElementEvent", PanicValue: r}, &observability.ErrorContext{Operation: "OnElementEvent", ElementID: event.ElementID})
			}
		}
	}()
	switch event.Kind {
	case platform.EventDestroyed:
		e.handleDestroyed(event.ElementID)
	case platform.EventChanged:
		e.handleChanged(event.ElementID)
	case platform.EventChildrenChanged:
		e.handleChildrenChanged(event.ElementID)
	case platform.EventFocusChanged:
		e.handleFocusChanged(event.Handle)
	case platform.EventSelectionChanged:
		e.handleSelectionChanged(event.Handle, event.Text, event.Range)
	}
}

func (e *Engine) handleDestroyed(id types.ElementId) {
	e.write(func(r *registry.Registry) { r.RemoveElement(id) })
}

func (e *Engine) handleChanged(id types.ElementId) {
	var handle platform.Handle
	var known bool
	e.read(func(r *registry.Registry) {
		elem, ok := r.Element(id)
		if !ok {
			return
		}
		known = true
		handle = elem.Handle
	})
	if !known {
		e.logger.Printf("sync: element %s changed but is no longer cached", id)
		return
	}

	attrs := e.adapter.FetchAttributes(handle)
	if attrs.IsDead() {
		e.write(func(r *registry.Registry) { r.RemoveElement(id) })
		return
	}
	e.write(func(r *registry.Registry) { r.RefreshElement(id, attrs) })
}

func (e *Engine) handleChildrenChanged(id types.ElementId) {
	var handle platform.Handle
	var windowID types.WindowId
	var pid types.ProcessId
	var known bool
	e.read(func(r *registry.Registry) {
		elem, ok := r.Element(id)
		if !ok {
			return
		}
		known = true
		handle, windowID, pid = elem.Handle, elem.WindowID, elem.PID
	})
	if !known {
		return
	}

	childHandles := e.adapter.FetchChildren(handle)
	children := make([]types.ElementId, 0, len(childHandles))
	for _, childHandle := range childHandles {
		var childID types.ElementId
		var exists bool
		e.read(func(r *registry.Registry) { childID, exists = r.FindElement(childHandle) })
		if !exists {
			attrs := e.adapter.FetchAttributes(childHandle)
			newID := e.idSeq.Next()
			e.write(func(r *registry.Registry) {
				childID = r.UpsertElement(registry.FromAttributes(newID, windowID, pid, false, childHandle, handle, attrs))
			})
			e.ensureWatched(childID)
		}
		children = append(children, childID)
	}
	e.write(func(r *registry.Registry) { r.SetChildren(id, children) })
}

// handleFocusChanged processes an application focus notification. Only
// elements that self-identify as focused are accepted; the previously
// focused element is auto-unwatched if it was only being watched because it
// was focused or writable, and the newly focused element is auto-watched
// under the same rule.
func (e *Engine) handleFocusChanged(handle platform.Handle) {
	if handle == nil {
		return
	}
	var id types.ElementId
	var found bool
	e.read(func(r *registry.Registry) { id, found = r.FindElement(handle) })
	if !found {
		return
	}

	var elemRole role.Role
	var pid types.ProcessId
	var focused bool
	var known bool
	e.read(func(r *registry.Registry) {
		elem, ok := r.Element(id)
		if !ok {
			return
		}
		known = true
		elemRole, pid = elem.Role, elem.PID
		focused = elem.Focused != nil && *elem.Focused
	})
	if !known || !focused {
		return
	}

	var changed bool
	var previous types.ElementId
	var hadPrevious bool
	e.write(func(r *registry.Registry) {
		el, ok := adapters.BuildElement(r, id)
		if !ok {
			return
		}
		changed, previous, hadPrevious = r.SetFocusedElement(pid, el)
	})
	if !changed {
		return
	}

	if hadPrevious {
		var shouldUnwatch bool
		e.read(func(r *registry.Registry) {
			if prev, ok := r.Element(previous); ok {
				shouldUnwatch = prev.Role.AutoWatchOnFocus() || prev.Role.IsWritable()
			}
		})
		if shouldUnwatch {
			e.write(func(r *registry.Registry) { _ = subscriptions.Unwatch(r, previous) })
		}
	}

	if elemRole.AutoWatchOnFocus() || elemRole.IsWritable() {
		e.write(func(r *registry.Registry) { _ = subscriptions.Watch(r, e.logger, id) })
	}
}

func (e *Engine) handleSelectionChanged(handle platform.Handle, text string, textRange *types.TextRange) {
	if handle == nil {
		return
	}
	var id types.ElementId
	var windowID types.WindowId
	var pid types.ProcessId
	var found bool
	e.read(func(r *registry.Registry) {
		elemID, ok := r.FindElement(handle)
		if !ok {
			return
		}
		elem, ok := r.Element(elemID)
		if !ok {
			return
		}
		id, windowID, pid, found = elemID, elem.WindowID, elem.PID, true
	})
	if !found {
		return
	}
	e.write(func(r *registry.Registry) { r.SetSelection(pid, windowID, id, text, textRange) })
}

// ensureWatched creates id's baseline destruction watch if it has none yet.
func (e *Engine) ensureWatched(id types.ElementId) {
	var obs platform.Observer
	e.read(func(r *registry.Registry) {
		elem, ok := r.Element(id)
		if !ok {
			return
		}
		if proc, ok := r.Process(elem.PID); ok {
			obs = proc.Observer
		}
	})
	if obs == nil {
		return
	}
	e.write(func(r *registry.Registry) {
		subscriptions.EnsureWatched(r, obs, e.sink, e.logger, id)
	})
}
