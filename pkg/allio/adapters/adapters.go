// Package adapters builds the public, flat Element/Snapshot views that
// allio's core hands out, by projecting a Registry's cached state plus the
// tree's parent/child edges. Every function here is a pure read over the
// registry — none of them mutate anything.
package adapters

import (
	"github.com/watchcask/allio/pkg/allio/registry"
	"github.com/watchcask/allio/pkg/allio/types"
)

// BuildElement projects id's cached data into the public types.Element
// shape, resolving ParentID and Children from the tree. Returns false if id
// isn't cached.
func BuildElement(r *registry.Registry, id types.ElementId) (types.Element, bool) {
	cached, ok := r.Element(id)
	if !ok {
		return types.Element{}, false
	}

	parentID, _ := r.TreeParent(id)

	var children types.Children
	if known, ok := childrenFor(r, id); ok {
		children = known
	}

	return types.Element{
		ID:          cached.ID,
		WindowID:    cached.WindowID,
		PID:         cached.PID,
		IsRoot:      cached.IsRoot,
		ParentID:    parentID,
		Children:    children,
		Role:        cached.Role,
		PlatformRole: cached.PlatformRole,
		Label:       cached.Label,
		Description: cached.Description,
		Placeholder: cached.Placeholder,
		URL:         cached.URL,
		Value:       cached.Value,
		Bounds:      cached.Bounds,
		Focused:     cached.Focused,
		Disabled:    cached.Disabled,
		Selected:    cached.Selected,
		Expanded:    cached.Expanded,
		RowIndex:    cached.RowIndex,
		ColumnIndex: cached.ColumnIndex,
		RowCount:    cached.RowCount,
		ColumnCount: cached.ColumnCount,
		Actions:     cached.Actions,
		IsFallback:  cached.IsFallback,
	}, true
}

// childrenFor resolves id's children in the three-state encoding: the
// second return is false when the tree has never been told what id's
// children are (the public Children field must stay nil in that case), and
// true with a non-nil (possibly empty) slice otherwise.
func childrenFor(r *registry.Registry, id types.ElementId) (types.Children, bool) {
	children, known := r.TreeChildrenKnown(id)
	if !known {
		return nil, false
	}
	if children == nil {
		return types.Children{}, true
	}
	return children, true
}

// BuildSnapshot projects the full registry state into the public
// types.Snapshot shape sent to a new subscriber on connection.
func BuildSnapshot(r *registry.Registry) types.Snapshot {
	snapshot := types.Snapshot{
		ZOrder: append([]types.WindowId(nil), r.ZOrder()...),
	}

	r.Windows(func(_ types.WindowId, w *registry.CachedWindow) {
		window := w.Info
		snapshot.Windows = append(snapshot.Windows, window)
	})

	r.Elements(func(id types.ElementId, _ *registry.CachedElement) {
		if el, ok := BuildElement(r, id); ok {
			snapshot.Elements = append(snapshot.Elements, el)
		}
	})

	if focusedWindowID := r.FocusedWindow(); focusedWindowID != 0 {
		id := focusedWindowID
		snapshot.FocusedWindow = &id

		if w, ok := r.Window(focusedWindowID); ok {
			if proc, ok := r.Process(w.ProcessID); ok {
				if proc.FocusedElement != 0 {
					if el, ok := BuildElement(r, proc.FocusedElement); ok {
						snapshot.FocusedElement = &el
					}
				}
				snapshot.Selection = proc.LastSelection
			}
		}
	}

	if pos, ok := r.MousePosition(); ok {
		snapshot.MousePosition = &pos
	}

	return snapshot
}
