package registry

import (
	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/types"
)

// WindowUpdateResult reports what changed after UpdateWindows folds a fresh
// OS window enumeration into the registry.
type WindowUpdateResult struct {
	Added   []types.WindowId
	Removed []types.WindowId
	Changed []types.WindowId

	// RemovedProcessIDs carries the process id of each window in Removed,
	// for callers that need to check whether a pid still has any window
	// left once removal settles.
	RemovedProcessIDs []types.ProcessId
}

// UpdateWindows folds a fresh, front-to-back window enumeration into the
// registry: windows not seen before are added, windows no longer present
// are removed, and windows whose Info differs are updated. The incoming
// order becomes the new z-order. Emits WindowAdded/WindowChanged/
// WindowRemoved for whatever actually changed.
//
// skipRemoval suppresses the "remove windows absent from windows" step
// only — upsert, z-order, and the Added/Changed bookkeeping still run.
// Callers set it when the enumeration itself looks unreliable (an excluded
// overlay window momentarily missing, or any window reporting far
// off-screen bounds), so a transient glitch doesn't tear down windows that
// are still really there.
func (r *Registry) UpdateWindows(windows []types.Window, skipRemoval bool) WindowUpdateResult {
	var result WindowUpdateResult

	seen := make(map[types.WindowId]bool, len(windows))
	for _, w := range windows {
		seen[w.ID] = true
		if existing, ok := r.windows[w.ID]; ok {
			if existing.Info == w {
				continue
			}
			existing.Info = w
			result.Changed = append(result.Changed, w.ID)
			r.emitEvent(types.Event{Kind: types.EventWindowChanged, Window: &w})
			continue
		}

		r.windows[w.ID] = &CachedWindow{ProcessID: w.ProcessID, Info: w}
		result.Added = append(result.Added, w.ID)
		r.emitEvent(types.Event{Kind: types.EventWindowAdded, Window: &w})
	}

	if !skipRemoval {
		for id := range r.windows {
			if !seen[id] {
				result.Removed = append(result.Removed, id)
			}
		}
		for _, id := range result.Removed {
			pid := r.windows[id].ProcessID
			r.removeWindowInternal(id)
			result.RemovedProcessIDs = append(result.RemovedProcessIDs, pid)
		}
	}

	order := make([]types.WindowId, len(windows))
	for i, w := range windows {
		order[i] = w.ID
	}
	r.zOrder = order

	return result
}

// ProcessHasWindow reports whether pid still owns at least one cached
// window.
func (r *Registry) ProcessHasWindow(pid types.ProcessId) bool {
	for _, w := range r.windows {
		if w.ProcessID == pid {
			return true
		}
	}
	return false
}

func (r *Registry) removeWindowInternal(id types.WindowId) {
	w, ok := r.windows[id]
	if !ok {
		return
	}

	var orphaned []types.ElementId
	for elemID, elem := range r.elements {
		if elem.WindowID == id {
			orphaned = append(orphaned, elemID)
		}
	}
	for _, elemID := range orphaned {
		r.RemoveElement(elemID)
	}

	delete(r.windows, id)
	if w.Handle != nil {
		delete(r.windowHandleToID, w.Handle.Key())
	}
	r.emitEvent(types.Event{Kind: types.EventWindowRemoved, WindowID: id})
}

// Window looks up a cached window by id.
func (r *Registry) Window(id types.WindowId) (*CachedWindow, bool) {
	w, ok := r.windows[id]
	return w, ok
}

// Windows iterates over every cached window.
func (r *Registry) Windows(fn func(id types.WindowId, w *CachedWindow)) {
	for id, w := range r.windows {
		fn(id, w)
	}
}

// WindowIDs returns every cached window's id.
func (r *Registry) WindowIDs() []types.WindowId {
	ids := make([]types.WindowId, 0, len(r.windows))
	for id := range r.windows {
		ids = append(ids, id)
	}
	return ids
}

// SetWindowHandle records the resolved accessibility handle for a window.
func (r *Registry) SetWindowHandle(id types.WindowId, handle platform.Handle) {
	w, ok := r.windows[id]
	if !ok {
		return
	}
	w.Handle = handle
	r.windowHandleToID[handle.Key()] = id
}

// WindowByHandle looks up a window's id by its accessibility handle.
func (r *Registry) WindowByHandle(handle platform.Handle) (types.WindowId, bool) {
	id, ok := r.windowHandleToID[handle.Key()]
	return id, ok
}

// WindowRoot returns the window's cached root element id, if resolved.
func (r *Registry) WindowRoot(id types.WindowId) (types.ElementId, bool) {
	w, ok := r.windows[id]
	if !ok || w.RootElement == 0 {
		return 0, false
	}
	return w.RootElement, true
}

// SetWindowRoot caches a window's root element id once resolved.
func (r *Registry) SetWindowRoot(id types.WindowId, rootElement types.ElementId) {
	if w, ok := r.windows[id]; ok {
		w.RootElement = rootElement
	}
}
