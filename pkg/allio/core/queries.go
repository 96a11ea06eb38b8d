package core

import (
	"time"

	"github.com/watchcask/allio/pkg/allio/adapters"
	"github.com/watchcask/allio/pkg/allio/monitoring"
	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/recency"
	"github.com/watchcask/allio/pkg/allio/registry"
	"github.com/watchcask/allio/pkg/allio/types"
)

// Get returns id's current data, refetching from the platform first if rec
// isn't satisfied by the cached entry's age. Returns ErrElementNotFound if
// id isn't cached, or becomes dead during the refetch.
func (c *Core) Get(id types.ElementId, rec recency.Recency) (_ types.Element, err error) {
	defer func() { monitoring.GetGlobalMetrics().RecordRegistryOp("get", err == nil) }()
	var handle platform.Handle
	var age time.Duration
	var known bool
	c.read(func(r *registry.Registry) {
		elem, ok := r.Element(id)
		if !ok {
			return
		}
		known = true
		handle = elem.Handle
		age = time.Since(elem.LastRefreshed)
	})
	if !known {
		return types.Element{}, types.ErrElementNotFound(id)
	}

	if !rec.IsSatisfiedBy(age) {
		attrs := c.adapter.FetchAttributes(handle)
		if attrs.IsDead() {
			c.write(func(r *registry.Registry) { r.RemoveElement(id) })
			return types.Element{}, types.ErrElementNotFound(id)
		}
		c.write(func(r *registry.Registry) { r.RefreshElement(id, attrs) })
	}

	el, ok := c.buildElementLocked(id)
	if !ok {
		return types.Element{}, types.ErrElementNotFound(id)
	}
	return el, nil
}

func (c *Core) buildElementLocked(id types.ElementId) (types.Element, bool) {
	var el types.Element
	var ok bool
	c.read(func(r *registry.Registry) { el, ok = adapters.BuildElement(r, id) })
	return el, ok
}

// Children returns id's children, distinguishing never-loaded (nil) from
// loaded-empty ([]ElementId{}). recency.Any returns whatever the tree
// already knows, however stale; Current and an expired MaxAge refetch the
// child list from the platform, upserting newly discovered children and
// removing ones no longer present.
func (c *Core) Children(id types.ElementId, rec recency.Recency) (_ types.Children, err error) {
	defer func() { monitoring.GetGlobalMetrics().RecordRegistryOp("children", err == nil) }()
	var handle platform.Handle
	var windowID types.WindowId
	var pid types.ProcessId
	var age time.Duration
	var known bool
	c.read(func(r *registry.Registry) {
		elem, ok := r.Element(id)
		if !ok {
			return
		}
		known = true
		handle, windowID, pid = elem.Handle, elem.WindowID, elem.PID
		age = time.Since(elem.LastRefreshed)
	})
	if !known {
		return nil, types.ErrElementNotFound(id)
	}

	if rec.IsSatisfiedBy(age) {
		var children types.Children
		c.read(func(r *registry.Registry) {
			known, hasKnown := r.TreeChildrenKnown(id)
			if !hasKnown {
				return
			}
			if known == nil {
				children = types.Children{}
				return
			}
			children = known
		})
		return children, nil
	}

	childHandles := c.adapter.FetchChildren(handle)
	result := make(types.Children, 0, len(childHandles))
	for _, childHandle := range childHandles {
		childID := c.resolveChild(childHandle, windowID, pid, handle)
		result = append(result, childID)
	}
	c.write(func(r *registry.Registry) { r.SetChildren(id, result) })
	return result, nil
}

// resolveChild looks up childHandle's element id, upserting a fresh element
// for it (and requesting its baseline watch) if this is the first time
// it's been seen.
func (c *Core) resolveChild(childHandle platform.Handle, windowID types.WindowId, pid types.ProcessId, parentHandle platform.Handle) types.ElementId {
	var childID types.ElementId
	var exists bool
	c.read(func(r *registry.Registry) { childID, exists = r.FindElement(childHandle) })
	if exists {
		return childID
	}

	attrs := c.adapter.FetchAttributes(childHandle)
	newID := c.idSeq.Next()
	c.write(func(r *registry.Registry) {
		childID = r.UpsertElement(registry.FromAttributes(newID, windowID, pid, false, childHandle, parentHandle, attrs))
	})
	c.ensureWatched(childID)
	return childID
}

// Parent returns id's parent, if linked. A root element always reports no
// parent without touching the platform. recency.Any returns whatever the
// tree already knows; Current and an expired MaxAge ask the platform for
// id's parent handle and resolve it against already-cached elements
// (an unresolved-but-real OS parent that hasn't entered the cache yet is
// reported as "no parent" rather than synthesized).
func (c *Core) Parent(id types.ElementId, rec recency.Recency) (_ types.ElementId, _ bool, err error) {
	defer func() { monitoring.GetGlobalMetrics().RecordRegistryOp("parent", err == nil) }()
	var handle platform.Handle
	var isRoot bool
	var age time.Duration
	var known bool
	c.read(func(r *registry.Registry) {
		elem, ok := r.Element(id)
		if !ok {
			return
		}
		known = true
		handle, isRoot = elem.Handle, elem.IsRoot
		age = time.Since(elem.LastRefreshed)
	})
	if !known {
		return 0, false, types.ErrElementNotFound(id)
	}
	if isRoot {
		return 0, false, nil
	}

	if rec.IsSatisfiedBy(age) {
		var parentID types.ElementId
		var linked bool
		c.read(func(r *registry.Registry) { parentID, linked = r.TreeParent(id) })
		return parentID, linked, nil
	}

	parentHandle, hasParent := c.adapter.FetchParent(handle)
	if !hasParent {
		return 0, false, nil
	}
	var parentID types.ElementId
	var exists bool
	c.read(func(r *registry.Registry) { parentID, exists = r.FindElement(parentHandle) })
	if !exists {
		return 0, false, nil
	}
	return parentID, true, nil
}

// WindowRoot returns windowID's root element, resolving and caching it on
// first access. Because a window's root identity rarely changes once
// resolved, only recency.Current forces a re-resolution of an
// already-cached root; recency.Any and any MaxAge accept the cached root.
func (c *Core) WindowRoot(windowID types.WindowId, rec recency.Recency) (_ types.ElementId, err error) {
	defer func() { monitoring.GetGlobalMetrics().RecordRegistryOp("window_root", err == nil) }()
	var windowExists bool
	var handle platform.Handle
	var pid types.ProcessId
	var cachedRoot types.ElementId
	var hasCachedRoot bool
	c.read(func(r *registry.Registry) {
		w, ok := r.Window(windowID)
		if !ok {
			return
		}
		windowExists = true
		handle = w.Handle
		pid = w.ProcessID
		cachedRoot, hasCachedRoot = r.WindowRoot(windowID)
	})
	if !windowExists {
		return 0, types.ErrWindowNotFound(windowID)
	}
	if hasCachedRoot && !rec.RequiresFetch() {
		return cachedRoot, nil
	}

	if handle == nil {
		var info types.Window
		c.read(func(r *registry.Registry) {
			if w, ok := r.Window(windowID); ok {
				info = w.Info
			}
		})
		resolved, ok := c.adapter.FetchWindowHandle(info)
		if !ok {
			if hasCachedRoot {
				return cachedRoot, nil
			}
			return 0, types.ErrWindowNotFound(windowID)
		}
		handle = resolved
		c.write(func(r *registry.Registry) { r.SetWindowHandle(windowID, handle) })
	}

	attrs := c.adapter.FetchAttributes(handle)
	var rootID types.ElementId
	var exists bool
	c.read(func(r *registry.Registry) { rootID, exists = r.FindElement(handle) })

	if !exists {
		newID := c.idSeq.Next()
		c.write(func(r *registry.Registry) {
			rootID = r.UpsertElement(registry.FromAttributes(newID, windowID, pid, true, handle, nil, attrs))
			r.SetWindowRoot(windowID, rootID)
		})
		c.ensureWatched(rootID)
	} else {
		c.write(func(r *registry.Registry) {
			r.RefreshElement(rootID, attrs)
			r.SetWindowRoot(windowID, rootID)
		})
	}
	return rootID, nil
}

// ElementAtPoint hit-tests the frontmost window containing (x, y), then
// hit-tests within that window's accessibility tree. Returns
// ErrNoElementAtPosition if no window contains the point or the platform
// hit test finds nothing.
func (c *Core) ElementAtPoint(x, y float64) (_ types.Element, err error) {
	defer func() { monitoring.GetGlobalMetrics().RecordRegistryOp("element_at_point", err == nil) }()
	point := types.Point{X: x, Y: y}

	var winHandle platform.Handle
	var windowID types.WindowId
	var pid types.ProcessId
	var found bool
	c.read(func(r *registry.Registry) {
		for _, id := range r.ZOrder() {
			w, ok := r.Window(id)
			if !ok || !w.Info.Bounds.Contains(point) {
				continue
			}
			found = true
			windowID = id
			winHandle = w.Handle
			pid = w.ProcessID
			return
		}
	})
	if !found || winHandle == nil {
		return types.Element{}, types.ErrNoElementAtPosition(x, y)
	}

	hitHandle, ok := c.adapter.FetchElementAtPosition(winHandle, x, y)
	if !ok {
		return types.Element{}, types.ErrNoElementAtPosition(x, y)
	}

	var elemID types.ElementId
	var exists bool
	c.read(func(r *registry.Registry) { elemID, exists = r.FindElement(hitHandle) })

	attrs := c.adapter.FetchAttributes(hitHandle)
	if !exists {
		newID := c.idSeq.Next()
		c.write(func(r *registry.Registry) {
			elemID = r.UpsertElement(registry.FromAttributes(newID, windowID, pid, false, hitHandle, nil, attrs))
		})
		c.ensureWatched(elemID)
	} else {
		c.write(func(r *registry.Registry) { r.RefreshElement(elemID, attrs) })
	}

	el, ok := c.buildElementLocked(elemID)
	if !ok {
		return types.Element{}, types.ErrNoElementAtPosition(x, y)
	}
	return el, nil
}
