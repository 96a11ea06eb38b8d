package subscriptions

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/watchcask/allio/pkg/allio/monitoring"
	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/registry"
	"github.com/watchcask/allio/pkg/allio/types"
)

// defaultWaitBetween is how long a sweep waits after completing before the
// next one starts, when ObserveConfig doesn't override it.
const defaultWaitBetween = 100 * time.Millisecond

// checkInterval is how often the sweeper loop checks whether any observed
// subtree is due for another pass.
const checkInterval = 10 * time.Millisecond

// ObserveConfig controls how an observed subtree is swept.
type ObserveConfig struct {
	// Depth bounds how many levels below the root are traversed. Zero means
	// unbounded.
	Depth int
	// WaitBetween is how long to wait after a sweep completes before
	// starting the next. Zero uses defaultWaitBetween.
	WaitBetween time.Duration
}

// sweepChanges accumulates what a single sweep cycle found.
type sweepChanges struct {
	added    []types.ElementId
	removed  []types.ElementId
	modified []types.ElementId
}

func (c *sweepChanges) isEmpty() bool {
	return len(c.added) == 0 && len(c.removed) == 0 && len(c.modified) == 0
}

// observedSubtree is the sweeper's bookkeeping for one watched root.
type observedSubtree struct {
	rootID      types.ElementId
	depth       int
	waitBetween time.Duration

	inProgress atomic.Bool

	mu            sync.Mutex
	lastCompleted time.Time
	changes       sweepChanges
}

// Sweeper runs the background subtree-observation loop: a ticker wakes up
// periodically, and any subtree not already mid-sweep and past its
// wait-between interval gets swept on a worker goroutine. regMu is the same
// lock core.Core and sync.Engine share: every registry access goes through
// read/write below, taken one call at a time and never held across the
// adapter.FetchAttributes/FetchChildren platform calls the sweep makes.
type Sweeper struct {
	logger   *log.Logger
	regMu    *sync.RWMutex
	registry *registry.Registry
	adapter  platform.Adapter
	emit     func(types.Event)
	idSeq    *types.ElementIdSeq

	mu       sync.Mutex
	subtrees map[types.ElementId]*observedSubtree

	workers chan struct{}
}

// NewSweeper builds a Sweeper. regMu must be the same *sync.RWMutex guarding
// r for every other caller (core.Core hands in its own lock, the same one
// it gives sync.Engine), so sweeps and polls never race on the registry.
// idSeq must be the same sequence core uses for every other element
// discovery path (sync engine included), so newly discovered elements never
// collide with ids allocated elsewhere. maxConcurrentSweeps bounds how many
// subtrees can be swept at once; a value <= 0 defaults to 4. A nil logger
// defaults to log.Default().
func NewSweeper(logger *log.Logger, regMu *sync.RWMutex, r *registry.Registry, adapter platform.Adapter, emit func(types.Event), idSeq *types.ElementIdSeq, maxConcurrentSweeps int) *Sweeper {
	if logger == nil {
		logger = log.Default()
	}
	if maxConcurrentSweeps <= 0 {
		maxConcurrentSweeps = 4
	}
	return &Sweeper{
		logger:   logger,
		regMu:    regMu,
		registry: r,
		adapter:  adapter,
		emit:     emit,
		idSeq:    idSeq,
		subtrees: make(map[types.ElementId]*observedSubtree),
		workers:  make(chan struct{}, maxConcurrentSweeps),
	}
}

// read runs fn with the registry lock held for reading.
func (s *Sweeper) read(fn func(r *registry.Registry)) {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	fn(s.registry)
}

// write runs fn with the registry lock held for writing.
func (s *Sweeper) write(fn func(r *registry.Registry)) {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	fn(s.registry)
}

// Observe starts observing rootID's subtree. Returns ErrElementNotFound if
// rootID isn't cached. Re-observing an already-observed root replaces its
// config.
func (s *Sweeper) Observe(rootID types.ElementId, cfg ObserveConfig) error {
	var known bool
	s.read(func(r *registry.Registry) { _, known = r.Element(rootID) })
	if !known {
		return types.ErrElementNotFound(rootID)
	}

	waitBetween := cfg.WaitBetween
	if waitBetween <= 0 {
		waitBetween = defaultWaitBetween
	}

	subtree := &observedSubtree{
		rootID:      rootID,
		depth:       cfg.Depth,
		waitBetween: waitBetween,
		// Back-dated so the first check triggers an immediate sweep.
		lastCompleted: time.Now().Add(-time.Second),
	}

	s.mu.Lock()
	s.subtrees[rootID] = subtree
	s.mu.Unlock()

	s.logger.Printf("subscriptions: observing subtree %s (depth=%d)", rootID, cfg.Depth)
	return nil
}

// Unobserve stops observing rootID's subtree. A no-op if it isn't observed.
func (s *Sweeper) Unobserve(rootID types.ElementId) {
	s.mu.Lock()
	delete(s.subtrees, rootID)
	s.mu.Unlock()
	s.logger.Printf("subscriptions: stopped observing subtree %s", rootID)
}

// IsObserved reports whether rootID currently has an active observation.
func (s *Sweeper) IsObserved(rootID types.ElementId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subtrees[rootID]
	return ok
}

// SweepOnce runs a single synchronous sweep of rootID's subtree, bypassing
// the wait-between timer and worker pool. Returns false if rootID isn't
// currently observed. Exposed mainly so tests can exercise sweepElement
// deterministically instead of racing the background ticker.
func (s *Sweeper) SweepOnce(rootID types.ElementId) bool {
	s.mu.Lock()
	subtree, ok := s.subtrees[rootID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.sweep(subtree)
	return true
}

// Run drives the sweeper loop until ctx is canceled. Call it once from its
// own goroutine; it blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Sweeper) tick() {
	s.mu.Lock()
	due := make([]*observedSubtree, 0, len(s.subtrees))
	for _, subtree := range s.subtrees {
		due = append(due, subtree)
	}
	s.mu.Unlock()

	for _, subtree := range due {
		if subtree.inProgress.Load() {
			continue
		}
		subtree.mu.Lock()
		elapsed := time.Since(subtree.lastCompleted)
		subtree.mu.Unlock()
		if elapsed < subtree.waitBetween {
			continue
		}
		if !subtree.inProgress.CompareAndSwap(false, true) {
			continue
		}

		select {
		case s.workers <- struct{}{}:
			go func(st *observedSubtree) {
				defer func() { <-s.workers }()
				s.sweep(st)
			}(subtree)
		default:
			// All worker slots busy; try again next tick.
			subtree.inProgress.Store(false)
		}
	}
}

// sweep sweeps a single observed subtree to completion.
func (s *Sweeper) sweep(obs *observedSubtree) {
	start := time.Now()

	obs.mu.Lock()
	obs.changes = sweepChanges{}
	obs.mu.Unlock()

	var elem *registry.CachedElement
	var ok bool
	s.read(func(r *registry.Registry) { elem, ok = r.Element(obs.rootID) })
	if !ok {
		obs.inProgress.Store(false)
		obs.mu.Lock()
		obs.lastCompleted = time.Now()
		obs.mu.Unlock()
		return
	}

	s.sweepElement(obs, obs.rootID, elem.Handle, elem.WindowID, elem.PID, 0)

	obs.mu.Lock()
	changes := obs.changes
	obs.mu.Unlock()

	if !changes.isEmpty() {
		s.emit(types.Event{
			Kind:     types.EventSubtreeChanged,
			RootID:   obs.rootID,
			Added:    changes.added,
			Removed:  changes.removed,
			Modified: changes.modified,
		})
	}

	elapsed := time.Since(start)
	s.logger.Printf("subscriptions: swept subtree %s in %s (added=%d removed=%d modified=%d)",
		obs.rootID, elapsed, len(changes.added), len(changes.removed), len(changes.modified))
	monitoring.GetGlobalMetrics().RecordSweepDuration(elapsed)

	obs.inProgress.Store(false)
	obs.mu.Lock()
	obs.lastCompleted = time.Now()
	obs.mu.Unlock()
}

// sweepElement recursively refreshes a single element and its descendants,
// recording what changed into obs.changes.
func (s *Sweeper) sweepElement(obs *observedSubtree, id types.ElementId, handle platform.Handle, windowID types.WindowId, pid types.ProcessId, depth int) {
	if obs.depth > 0 && depth >= obs.depth {
		return
	}

	attrs := s.adapter.FetchAttributes(handle)
	if attrs.IsDead() {
		s.write(func(r *registry.Registry) { r.RemoveElement(id) })
		obs.mu.Lock()
		obs.changes.removed = append(obs.changes.removed, id)
		obs.mu.Unlock()
		return
	}

	var changed, found bool
	s.write(func(r *registry.Registry) { changed, found = r.RefreshElement(id, attrs) })
	if found && changed {
		obs.mu.Lock()
		obs.changes.modified = append(obs.changes.modified, id)
		obs.mu.Unlock()
	}

	childHandles := s.adapter.FetchChildren(handle)
	var cachedChildren []types.ElementId
	s.read(func(r *registry.Registry) { cachedChildren, _ = r.TreeChildrenKnown(id) })
	cachedSet := make(map[types.ElementId]struct{}, len(cachedChildren))
	for _, c := range cachedChildren {
		cachedSet[c] = struct{}{}
	}

	current := make([]types.ElementId, 0, len(childHandles))
	currentSet := make(map[types.ElementId]struct{}, len(childHandles))

	for _, childHandle := range childHandles {
		var childID types.ElementId
		var known bool
		s.read(func(r *registry.Registry) { childID, known = r.FindElement(childHandle) })
		if !known {
			childAttrs := s.adapter.FetchAttributes(childHandle)
			newID := s.idSeq.Next()
			s.write(func(r *registry.Registry) {
				childID = r.UpsertElement(registry.FromAttributes(newID, windowID, pid, false, childHandle, handle, childAttrs))
			})
			obs.mu.Lock()
			obs.changes.added = append(obs.changes.added, childID)
			obs.mu.Unlock()
		}

		current = append(current, childID)
		currentSet[childID] = struct{}{}

		s.sweepElement(obs, childID, childHandle, windowID, pid, depth+1)
	}

	for cached := range cachedSet {
		if _, stillThere := currentSet[cached]; !stillThere {
			s.write(func(r *registry.Registry) { r.RemoveElement(cached) })
			obs.mu.Lock()
			obs.changes.removed = append(obs.changes.removed, cached)
			obs.mu.Unlock()
		}
	}

	if !elementSetEqual(cachedSet, currentSet) {
		s.write(func(r *registry.Registry) { r.SetChildren(id, current) })
	}
}

func elementSetEqual(a, b map[types.ElementId]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
