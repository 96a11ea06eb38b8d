package adapters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchcask/allio/pkg/allio/adapters"
	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/platform/mock"
	"github.com/watchcask/allio/pkg/allio/registry"
	"github.com/watchcask/allio/pkg/allio/role"
	"github.com/watchcask/allio/pkg/allio/types"
)

func newTestRegistry() *registry.Registry {
	var r *registry.Registry
	r = registry.New(nil, func(types.Event) {}, func(id types.ElementId) (types.Element, bool) {
		return adapters.BuildElement(r, id)
	})
	return r
}

func attrs(roleVal role.Role, label string) platform.ElementAttributes {
	return platform.ElementAttributes{Role: roleVal, PlatformRole: roleVal.String(), Title: &label}
}

func TestBuildElementChildrenNeverLoaded(t *testing.T) {
	r := newTestRegistry()
	r.UpsertElement(registry.FromAttributes(1, 1, 1, true, mock.NewHandle(1, "root"), nil, attrs(role.Window, "root")))

	el, ok := adapters.BuildElement(r, 1)
	require.True(t, ok)
	assert.Nil(t, el.Children)
}

func TestBuildElementChildrenKnownEmpty(t *testing.T) {
	r := newTestRegistry()
	r.UpsertElement(registry.FromAttributes(1, 1, 1, true, mock.NewHandle(1, "root"), nil, attrs(role.Window, "root")))
	r.SetChildren(1, nil)

	el, ok := adapters.BuildElement(r, 1)
	require.True(t, ok)
	require.NotNil(t, el.Children)
	assert.Empty(t, el.Children)
}

func TestBuildElementChildrenKnownPopulated(t *testing.T) {
	r := newTestRegistry()
	root := mock.NewHandle(1, "root")
	r.UpsertElement(registry.FromAttributes(1, 1, 1, true, root, nil, attrs(role.Window, "root")))
	r.UpsertElement(registry.FromAttributes(2, 1, 1, false, mock.NewHandle(1, "child"), root, attrs(role.Button, "ok")))

	el, ok := adapters.BuildElement(r, 1)
	require.True(t, ok)
	assert.Equal(t, types.Children{2}, el.Children)

	child, ok := adapters.BuildElement(r, 2)
	require.True(t, ok)
	assert.Equal(t, types.ElementId(1), child.ParentID)
}

func TestBuildElementMissing(t *testing.T) {
	r := newTestRegistry()
	_, ok := adapters.BuildElement(r, 999)
	assert.False(t, ok)
}

func TestBuildSnapshotAggregatesState(t *testing.T) {
	r := newTestRegistry()
	r.UpsertProcess(1, &registry.CachedProcess{})

	r.UpdateWindows([]types.Window{{ID: 1, ProcessID: 1}}, false)
	r.SetFocusedWindow(1)

	root := mock.NewHandle(1, "root")
	r.UpsertElement(registry.FromAttributes(10, 1, 1, true, root, nil, attrs(role.Window, "root")))
	r.SetFocusedElement(1, types.Element{ID: 10})
	r.SetSelection(1, 1, 10, "hi", nil)
	r.SetMousePosition(types.Point{X: 5, Y: 5})

	snap := adapters.BuildSnapshot(r)

	require.Len(t, snap.Windows, 1)
	require.Len(t, snap.Elements, 1)
	require.NotNil(t, snap.FocusedWindow)
	assert.Equal(t, types.WindowId(1), *snap.FocusedWindow)
	require.NotNil(t, snap.FocusedElement)
	assert.Equal(t, types.ElementId(10), snap.FocusedElement.ID)
	require.NotNil(t, snap.Selection)
	assert.Equal(t, "hi", snap.Selection.Text)
	require.NotNil(t, snap.MousePosition)
	assert.Equal(t, types.Point{X: 5, Y: 5}, *snap.MousePosition)
}
