package registry

import (
	"time"

	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/types"
)

// UpsertElement inserts or updates an element by its platform handle.
//
// If an element already exists for this handle with the same parent, it is
// updated in place. If the parent handle differs from what's cached, the
// platform reparented the element out from under us — the public API has no
// notion of reparenting, so the old element (and its subtree) is destroyed
// and a fresh element is created in its place.
func (r *Registry) UpsertElement(elem *CachedElement) types.ElementId {
	handleKey := elem.Handle.Key()
	parentHandle := elem.ParentHandle
	isRoot := elem.IsRoot

	if existingID, ok := r.handleToID[handleKey]; ok {
		parentChanged := false
		if existing, ok := r.elements[existingID]; ok {
			parentChanged = !isRoot && !handleEqual(existing.ParentHandle, parentHandle)
		}

		if parentChanged {
			r.RemoveElement(existingID)
			// fall through: recreate below
		} else {
			elem.ID = existingID
			r.UpdateElement(existingID, elem)
			return existingID
		}
	}

	id := elem.ID
	r.handleToID[handleKey] = id
	r.elements[id] = elem

	if !isRoot && parentHandle != nil {
		parentKey := parentHandle.Key()
		if parentID, ok := r.handleToID[parentKey]; ok {
			r.tree.AddChild(parentID, id)
			r.EmitElementChanged(parentID)
		} else {
			r.waitingForParent[parentKey] = append(r.waitingForParent[parentKey], id)
		}
	}

	if orphans, ok := r.waitingForParent[handleKey]; ok {
		delete(r.waitingForParent, handleKey)
		for _, orphanID := range orphans {
			r.tree.AddChild(id, orphanID)
			r.EmitElementChanged(orphanID)
		}
	}

	r.emitElementAdded(id)
	return id
}

func handleEqual(a, b platform.Handle) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// UpdateElement replaces id's cached data with newElem, preserving the
// existing Handle and Watch and refreshing LastRefreshed. Emits
// ElementChanged if the semantic data differs.
func (r *Registry) UpdateElement(id types.ElementId, newElem *CachedElement) {
	oldElem, ok := r.elements[id]
	if !ok {
		return
	}

	changed := !oldElem.EqualSemantic(newElem)

	newElem.Handle = oldElem.Handle
	newElem.Watch = oldElem.Watch
	newElem.LastRefreshed = time.Now()

	r.elements[id] = newElem

	if changed {
		r.EmitElementChanged(id)
	}
}

// RemoveElement removes id and every descendant from the registry.
func (r *Registry) RemoveElement(id types.ElementId) {
	for _, removedID := range r.tree.RemoveSubtree(id) {
		r.removeElementInternal(removedID)
	}
}

func (r *Registry) removeElementInternal(id types.ElementId) {
	elem, ok := r.elements[id]
	if !ok {
		return
	}
	delete(r.elements, id)

	delete(r.handleToID, elem.Handle.Key())

	if elem.ParentHandle != nil {
		parentKey := elem.ParentHandle.Key()
		if waiting, ok := r.waitingForParent[parentKey]; ok {
			waiting = removeElementID(waiting, id)
			if len(waiting) == 0 {
				delete(r.waitingForParent, parentKey)
			} else {
				r.waitingForParent[parentKey] = waiting
			}
		}
	}
	delete(r.waitingForParent, elem.Handle.Key())
	elem.Watch = nil

	r.emitEvent(types.Event{Kind: types.EventElementRemoved, ElementID: id})
}

func removeElementID(ids []types.ElementId, target types.ElementId) []types.ElementId {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Element looks up a cached element by id.
func (r *Registry) Element(id types.ElementId) (*CachedElement, bool) {
	e, ok := r.elements[id]
	return e, ok
}

// Elements iterates over every cached element.
func (r *Registry) Elements(fn func(id types.ElementId, elem *CachedElement)) {
	for id, elem := range r.elements {
		fn(id, elem)
	}
}

// FindElement looks up a cached element's id by its platform handle.
func (r *Registry) FindElement(handle platform.Handle) (types.ElementId, bool) {
	id, ok := r.handleToID[handle.Key()]
	return id, ok
}

// SetChildren sets id's linked children to exactly the given (already
// cached) elements, in order. Unknown child ids are dropped. Emits
// ElementChanged if the set actually differs from what was linked, or if
// id's children had never been set (an empty list then marks them known).
func (r *Registry) SetChildren(id types.ElementId, children []types.ElementId) {
	if _, ok := r.elements[id]; !ok {
		return
	}

	validChildren := make([]types.ElementId, 0, len(children))
	for _, cid := range children {
		if _, ok := r.elements[cid]; ok {
			validChildren = append(validChildren, cid)
		}
	}

	if current, known := r.tree.ChildrenKnown(id); known && elementIDsEqual(current, validChildren) {
		return
	}

	// These children now have a resolved parent; stop waiting_for_parent
	// from re-linking them to a different one later.
	for _, childID := range validChildren {
		child, ok := r.elements[childID]
		if !ok || child.ParentHandle == nil {
			continue
		}
		parentKey := child.ParentHandle.Key()
		if waiting, ok := r.waitingForParent[parentKey]; ok {
			waiting = removeElementID(waiting, childID)
			if len(waiting) == 0 {
				delete(r.waitingForParent, parentKey)
			} else {
				r.waitingForParent[parentKey] = waiting
			}
		}
	}

	r.tree.SetChildren(id, validChildren)
	r.EmitElementChanged(id)
}

func elementIDsEqual(a, b []types.ElementId) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SetElementWatch attaches a watch handle to id.
func (r *Registry) SetElementWatch(id types.ElementId, watch platform.WatchHandle) {
	if elem, ok := r.elements[id]; ok {
		elem.Watch = watch
	}
}

// TakeElementWatch removes and returns id's watch handle, if any.
func (r *Registry) TakeElementWatch(id types.ElementId) (platform.WatchHandle, bool) {
	elem, ok := r.elements[id]
	if !ok || elem.Watch == nil {
		return nil, false
	}
	w := elem.Watch
	elem.Watch = nil
	return w, true
}
