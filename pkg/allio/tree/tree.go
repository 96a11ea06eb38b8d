// Package tree is the single source of truth for parent-child relationships
// in the accessibility tree. All mutation goes through methods that keep the
// parent_of and children_of maps consistent with each other.
//
// Invariants:
//  1. Single parent: each child has exactly one parent for its lifetime.
//  2. Bidirectional consistency: if parentOf[child] == parent, then
//     childrenOf[parent] contains child, and vice versa.
//  3. No reparenting: once an element has a parent, it cannot be moved. A
//     platform-side reparent is handled by the registry destroying and
//     recreating the element, not by mutating the tree in place.
//
// Tree is not safe for concurrent use; callers (the registry) serialize
// access under their own lock.
package tree

import (
	"log"

	"github.com/watchcask/allio/pkg/allio/types"
)

// Tree holds the parent/child relationships for the accessibility tree.
type Tree struct {
	logger     *log.Logger
	parentOf   map[types.ElementId]types.ElementId
	childrenOf map[types.ElementId][]types.ElementId
}

// New builds an empty Tree. A nil logger defaults to log.Default().
func New(logger *log.Logger) *Tree {
	if logger == nil {
		logger = log.Default()
	}
	return &Tree{
		logger:     logger,
		parentOf:   make(map[types.ElementId]types.ElementId),
		childrenOf: make(map[types.ElementId][]types.ElementId),
	}
}

// Parent returns the id's parent, and whether it has one.
func (t *Tree) Parent(id types.ElementId) (types.ElementId, bool) {
	p, ok := t.parentOf[id]
	return p, ok
}

// Children returns id's children. The returned slice must not be mutated by
// the caller; it is nil if id has no tracked children.
func (t *Tree) Children(id types.ElementId) []types.ElementId {
	return t.childrenOf[id]
}

// HasChildren reports whether id has any registered children.
func (t *Tree) HasChildren(id types.ElementId) bool {
	return len(t.childrenOf[id]) > 0
}

// ChildrenKnown returns id's children and whether the tree has ever been
// told what they are — distinguishing "never populated" (known=false) from
// "populated, and there are none" (known=true, empty slice). Adapters use
// this to drive the public API's three-state Children encoding.
func (t *Tree) ChildrenKnown(id types.ElementId) (children []types.ElementId, known bool) {
	children, known = t.childrenOf[id]
	return children, known
}

// SetChildren replaces id's children wholesale. Children already parented to
// a different element are rejected (logged, left under their real parent) —
// that situation means a reparent was not detected upstream, which is a bug.
func (t *Tree) SetChildren(parent types.ElementId, children []types.ElementId) {
	if old, ok := t.childrenOf[parent]; ok {
		for _, child := range old {
			if t.parentOf[child] == parent {
				delete(t.parentOf, child)
			}
		}
	}

	accepted := make([]types.ElementId, 0, len(children))
	for _, child := range children {
		if existing, ok := t.parentOf[child]; ok && existing != parent {
			t.logger.Printf("tree: set_children: child %s already has parent %s, cannot set under %s", child, existing, parent)
			continue
		}
		t.parentOf[child] = parent
		accepted = append(accepted, child)
	}
	t.childrenOf[parent] = accepted
}

// AddChild links child under parent. Re-adding the same child under the same
// parent is a no-op. Adding a child that already has a different parent is
// rejected (logged) — reparenting should have been caught by the registry's
// upsert path and handled via destroy+recreate, not here.
func (t *Tree) AddChild(parent, child types.ElementId) {
	if existing, ok := t.parentOf[child]; ok {
		if existing == parent {
			return
		}
		t.logger.Printf("tree: add_child: child %s already has parent %s, cannot add to %s", child, existing, parent)
		return
	}

	t.parentOf[child] = parent
	t.childrenOf[parent] = append(t.childrenOf[parent], child)
}

// RemoveSubtree removes root and every descendant, returning the removed ids
// in removal order (root before its children). It is iterative to avoid
// stack overflow on deep trees.
func (t *Tree) RemoveSubtree(root types.ElementId) []types.ElementId {
	removed := make([]types.ElementId, 0)
	queue := []types.ElementId{root}

	for len(queue) > 0 {
		id := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		if parent, ok := t.parentOf[id]; ok {
			delete(t.parentOf, id)
			if siblings, ok := t.childrenOf[parent]; ok {
				t.childrenOf[parent] = removeID(siblings, id)
			}
		}

		if children, ok := t.childrenOf[id]; ok {
			delete(t.childrenOf, id)
			queue = append(queue, children...)
		}

		removed = append(removed, id)
	}

	return removed
}

func removeID(ids []types.ElementId, target types.ElementId) []types.ElementId {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
