package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchcask/allio/pkg/allio/core"
	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/platform/mock"
	"github.com/watchcask/allio/pkg/allio/recency"
	"github.com/watchcask/allio/pkg/allio/role"
	"github.com/watchcask/allio/pkg/allio/subscriptions"
	"github.com/watchcask/allio/pkg/allio/types"
)

func newTestCore(t *testing.T) (*core.Core, *mock.Adapter) {
	t.Helper()
	adapter := mock.New()
	c, err := core.New(adapter, core.Config{})
	require.NoError(t, err)
	return c, adapter
}

// setupWindow registers a single window, keyed rootHandle, with role r as
// its root accessibility node.
func setupWindow(adapter *mock.Adapter, r role.Role) (types.WindowId, mock.Handle) {
	rootHandle := mock.NewHandle(1, "root")
	adapter.Windows = []types.Window{{ID: 1, ProcessID: 1, Title: "Test"}}
	adapter.WindowHandles[1] = rootHandle
	adapter.AddNode(&mock.Node{Handle: rootHandle, Attrs: platform.ElementAttributes{Role: r}})
	return 1, rootHandle
}

func TestNewRejectsMissingPermissions(t *testing.T) {
	adapter := mock.New()
	adapter.Permissions = false

	_, err := core.New(adapter, core.Config{})
	require.Error(t, err)

	var aerr *types.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, types.ErrCodePermissionDenied, aerr.Code)
}

func TestWindowRootResolvesAndCaches(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, _ := setupWindow(adapter, role.Window)

	id, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)
	assert.NotZero(t, id)

	again, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestWindowRootUnknownWindow(t *testing.T) {
	c, _ := newTestCore(t)
	_, err := c.WindowRoot(99, recency.Any)
	require.Error(t, err)
}

func TestGetRefetchesOnCurrentRecency(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, rootHandle := setupWindow(adapter, role.Window)
	rootID, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	label := "updated"
	adapter.Nodes[rootHandle.Key()].Attrs.Title = &label

	el, err := c.Get(rootID, recency.Current)
	require.NoError(t, err)
	require.NotNil(t, el.Label)
	assert.Equal(t, "updated", *el.Label)
}

func TestGetUnknownElementReturnsError(t *testing.T) {
	c, _ := newTestCore(t)
	_, err := c.Get(999, recency.Any)
	require.Error(t, err)
}

func TestGetRemovesElementThatDiedSinceLastRefresh(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, rootHandle := setupWindow(adapter, role.Window)
	rootID, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	delete(adapter.Nodes, rootHandle.Key())

	_, err = c.Get(rootID, recency.Current)
	require.Error(t, err)

	_, err = c.Get(rootID, recency.Any)
	require.Error(t, err, "the dead element should have been evicted from the cache")
}

func TestChildrenDiscoversAndCaches(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, rootHandle := setupWindow(adapter, role.Window)
	rootID, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	childHandle := mock.NewHandle(1, "child")
	adapter.AddNode(&mock.Node{Handle: childHandle, Attrs: platform.ElementAttributes{Role: role.Button}})
	adapter.Nodes[rootHandle.Key()].Children = []mock.Handle{childHandle}

	children, err := c.Children(rootID, recency.Current)
	require.NoError(t, err)
	require.Len(t, children, 1)

	again, err := c.Children(rootID, recency.Any)
	require.NoError(t, err)
	assert.Equal(t, children, again)
}

func TestParentOfRootIsAlwaysNone(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, _ := setupWindow(adapter, role.Window)
	rootID, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	_, hasParent, err := c.Parent(rootID, recency.Any)
	require.NoError(t, err)
	assert.False(t, hasParent)
}

func TestParentLinksDiscoveredChildToItsParent(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, rootHandle := setupWindow(adapter, role.Window)
	rootID, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	childHandle := mock.NewHandle(1, "child")
	adapter.AddNode(&mock.Node{Handle: childHandle, Attrs: platform.ElementAttributes{Role: role.Button}})
	adapter.Nodes[rootHandle.Key()].Children = []mock.Handle{childHandle}

	children, err := c.Children(rootID, recency.Current)
	require.NoError(t, err)
	require.Len(t, children, 1)

	parentID, hasParent, err := c.Parent(children[0], recency.Any)
	require.NoError(t, err)
	require.True(t, hasParent)
	assert.Equal(t, rootID, parentID)
}

func TestSetRejectsNonWritableRole(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, _ := setupWindow(adapter, role.Window)
	rootID, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	err = c.Set(rootID, types.StringValue("x"))
	require.Error(t, err)

	var aerr *types.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, types.ErrCodeSetValueFailed, aerr.Code)
}

func TestSetWritesValueForWritableRole(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, _ := setupWindow(adapter, role.TextField)
	rootID, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	require.NoError(t, c.Set(rootID, types.StringValue("hello")))
}

func TestSetRejectsTypeMismatch(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, _ := setupWindow(adapter, role.TextField)
	rootID, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	err = c.Set(rootID, types.NumberValue(3))
	require.Error(t, err)

	var aerr *types.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, types.ErrCodeTypeMismatch, aerr.Code)
}

func TestSetUnknownElementReturnsError(t *testing.T) {
	c, _ := newTestCore(t)
	err := c.Set(999, types.StringValue("x"))
	require.Error(t, err)
}

func TestPerformUnknownElementReturnsError(t *testing.T) {
	c, _ := newTestCore(t)
	err := c.Perform(999, types.ActionPress)
	require.Error(t, err)
}

func TestPerformCallsAdapter(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, _ := setupWindow(adapter, role.Button)
	rootID, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	require.NoError(t, c.Perform(rootID, types.ActionPress))
}

func TestPerformPropagatesAdapterFailure(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, _ := setupWindow(adapter, role.Button)
	rootID, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	adapter.PerformErr = assertError("platform refused")
	err = c.Perform(rootID, types.ActionPress)
	require.Error(t, err)
}

type assertError string

func (e assertError) Error() string { return string(e) }

func TestObserveUnknownRootReturnsError(t *testing.T) {
	c, _ := newTestCore(t)
	err := c.Observe(999, subscriptions.ObserveConfig{})
	require.Error(t, err)
}

func TestObserveAndUnobserveKnownRoot(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, _ := setupWindow(adapter, role.Window)
	rootID, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	require.NoError(t, c.Observe(rootID, subscriptions.ObserveConfig{WaitBetween: time.Hour}))
	c.Unobserve(rootID)
}

func TestWatchAndUnwatchRoundtrip(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, _ := setupWindow(adapter, role.TextField)
	id, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	require.NoError(t, c.Watch(id))
	require.NoError(t, c.Unwatch(id))
}

func TestSnapshotReflectsRegisteredWindow(t *testing.T) {
	c, adapter := newTestCore(t)
	windowID, _ := setupWindow(adapter, role.Window)
	_, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Len(t, snap.Elements, 1)
}

func TestSubscribeReceivesElementAddedEvent(t *testing.T) {
	c, adapter := newTestCore(t)
	_, events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	windowID, _ := setupWindow(adapter, role.Window)
	_, err := c.WindowRoot(windowID, recency.Any)
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, types.EventElementAdded, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected an element added event")
	}
}

func TestElementAtPointHitTestsFrontmostWindow(t *testing.T) {
	c, adapter := newTestCore(t)
	adapter.Windows = []types.Window{{ID: 1, ProcessID: 1, Bounds: types.Bounds{Width: 800, Height: 600}}}
	rootHandle := mock.NewHandle(1, "root")
	adapter.WindowHandles[1] = rootHandle
	adapter.AddNode(&mock.Node{Handle: rootHandle, Attrs: platform.ElementAttributes{Role: role.Window}})

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	defer func() {
		cancel()
		c.Close()
	}()
	require.Eventually(t, func() bool {
		return len(c.Snapshot().Windows) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := c.WindowRoot(1, recency.Any)
	require.NoError(t, err)

	hitHandle := mock.NewHandle(1, "hit")
	adapter.AddNode(&mock.Node{Handle: hitHandle, Attrs: platform.ElementAttributes{Role: role.Button}})
	adapter.HitTestResult = &hitHandle

	el, err := c.ElementAtPoint(10, 10)
	require.NoError(t, err)
	assert.Equal(t, role.Button, el.Role)
}

func TestElementAtPointOutsideAnyWindowReturnsError(t *testing.T) {
	c, _ := newTestCore(t)
	_, err := c.ElementAtPoint(10, 10)
	require.Error(t, err)
}
