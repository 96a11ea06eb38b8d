package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/watchcask/allio/pkg/allio/tree"
	"github.com/watchcask/allio/pkg/allio/types"
)

func id(n uint64) types.ElementId { return types.ElementId(n) }

func TestAddChild(t *testing.T) {
	tr := tree.New(nil)
	tr.AddChild(id(1), id(2))
	tr.AddChild(id(1), id(3))

	p, ok := tr.Parent(id(2))
	assert.True(t, ok)
	assert.Equal(t, id(1), p)

	p, ok = tr.Parent(id(3))
	assert.True(t, ok)
	assert.Equal(t, id(1), p)

	assert.Equal(t, []types.ElementId{id(2), id(3)}, tr.Children(id(1)))
}

func TestAddChildIdempotent(t *testing.T) {
	tr := tree.New(nil)
	tr.AddChild(id(1), id(2))
	tr.AddChild(id(1), id(2))

	p, _ := tr.Parent(id(2))
	assert.Equal(t, id(1), p)
	assert.Equal(t, []types.ElementId{id(2)}, tr.Children(id(1)))
}

func TestAddChildRejectsDifferentParent(t *testing.T) {
	tr := tree.New(nil)
	tr.AddChild(id(1), id(2))

	tr.AddChild(id(99), id(2))

	p, _ := tr.Parent(id(2))
	assert.Equal(t, id(1), p)
	assert.Empty(t, tr.Children(id(99)))
	assert.Equal(t, []types.ElementId{id(2)}, tr.Children(id(1)))
}

func TestSetChildrenReplaces(t *testing.T) {
	tr := tree.New(nil)
	tr.AddChild(id(1), id(2))
	tr.AddChild(id(1), id(3))

	tr.SetChildren(id(1), []types.ElementId{id(4), id(5)})

	_, ok := tr.Parent(id(2))
	assert.False(t, ok)
	_, ok = tr.Parent(id(3))
	assert.False(t, ok)

	p, _ := tr.Parent(id(4))
	assert.Equal(t, id(1), p)
	p, _ = tr.Parent(id(5))
	assert.Equal(t, id(1), p)
	assert.Equal(t, []types.ElementId{id(4), id(5)}, tr.Children(id(1)))
}

func TestSetChildrenRejectsAlreadyParented(t *testing.T) {
	tr := tree.New(nil)
	tr.AddChild(id(1), id(2))

	tr.SetChildren(id(99), []types.ElementId{id(2), id(3)})

	p, _ := tr.Parent(id(2))
	assert.Equal(t, id(1), p)
	p, _ = tr.Parent(id(3))
	assert.Equal(t, id(99), p)
	assert.Equal(t, []types.ElementId{id(2)}, tr.Children(id(1)))
}

func TestRemoveSubtree(t *testing.T) {
	tr := tree.New(nil)
	tr.AddChild(id(1), id(2))
	tr.AddChild(id(1), id(3))
	tr.AddChild(id(2), id(4))
	tr.AddChild(id(2), id(5))

	removed := tr.RemoveSubtree(id(2))

	assert.Contains(t, removed, id(2))
	assert.Contains(t, removed, id(4))
	assert.Contains(t, removed, id(5))
	assert.Len(t, removed, 3)

	assert.Equal(t, []types.ElementId{id(3)}, tr.Children(id(1)))
	p, ok := tr.Parent(id(3))
	assert.True(t, ok)
	assert.Equal(t, id(1), p)

	_, ok = tr.Parent(id(2))
	assert.False(t, ok)
	_, ok = tr.Parent(id(4))
	assert.False(t, ok)
	assert.Empty(t, tr.Children(id(2)))
}
