// Package subscriptions implements per-element watches and per-subtree
// observation on top of a Registry. Watch/Unwatch/EnsureWatched take no
// lock themselves: each reads the registry, makes its platform call
// (CreateWatch, or Add/Remove on the watch handle) and writes the result
// back. Their callers (pkg/allio/core and pkg/allio/sync) hold the registry
// write lock for the whole call, platform call included. The Sweeper takes
// the lock itself and makes its platform calls with no lock held.
package subscriptions

import (
	"log"

	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/registry"
	"github.com/watchcask/allio/pkg/allio/role"
	"github.com/watchcask/allio/pkg/allio/types"
)

// EnsureWatched creates id's baseline destruction watch if it doesn't have
// one yet. Idempotent; a no-op if id is already watched or isn't cached.
// Core and the sync engine call it for the elements they discover (window
// roots, hit-test results, newly fetched children). Elements the Sweeper
// discovers are not passed to it and have no watch handle, so Watch on them
// logs and does nothing.
func EnsureWatched(r *registry.Registry, obs platform.Observer, sink platform.EventSink, logger *log.Logger, id types.ElementId) {
	elem, ok := r.Element(id)
	if !ok || elem.Watch != nil {
		return
	}

	watch, err := obs.CreateWatch(elem.Handle, id, []role.Notification{role.Destroyed}, sink)
	if err != nil {
		if logger != nil {
			logger.Printf("subscriptions: failed to create destruction watch for %s: %v", id, err)
		}
		return
	}
	r.SetElementWatch(id, watch)
}

// Watch adds the role-appropriate notifications for id (value/title/
// selection changes, depending on role) to its existing watch handle. A
// no-op if id's role has nothing extra worth watching. Returns
// ErrElementNotFound if id isn't cached; if id is cached but has no watch
// handle yet (EnsureWatched hasn't run for it), the requested notifications
// are dropped and logged rather than silently lost.
func Watch(r *registry.Registry, logger *log.Logger, id types.ElementId) error {
	elem, ok := r.Element(id)
	if !ok {
		return types.ErrElementNotFound(id)
	}
	notifs := role.ForWatching(elem.Role)
	if len(notifs) == 0 {
		return nil
	}

	watch, hadWatch := r.TakeElementWatch(id)
	if !hadWatch {
		if logger != nil {
			logger.Printf("subscriptions: element %s has no watch handle", id)
		}
		return nil
	}

	watch.Add(notifs)
	r.SetElementWatch(id, watch)
	return nil
}

// Unwatch removes the role-appropriate notifications for id from its watch
// handle, if any. The baseline Destroyed subscription set up by
// EnsureWatched is left untouched — Unwatch only undoes what Watch added.
func Unwatch(r *registry.Registry, id types.ElementId) error {
	elem, ok := r.Element(id)
	if !ok {
		return types.ErrElementNotFound(id)
	}
	notifs := role.ForWatching(elem.Role)

	watch, hadWatch := r.TakeElementWatch(id)
	if !hadWatch {
		return nil
	}

	watch.Remove(notifs)
	r.SetElementWatch(id, watch)
	return nil
}
