package sync_test

import (
	"context"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchcask/allio/pkg/allio/adapters"
	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/platform/mock"
	"github.com/watchcask/allio/pkg/allio/registry"
	"github.com/watchcask/allio/pkg/allio/role"
	allsync "github.com/watchcask/allio/pkg/allio/sync"
	"github.com/watchcask/allio/pkg/allio/subscriptions"
	"github.com/watchcask/allio/pkg/allio/types"
)

type stubSink struct{}

func (stubSink) OnElementEvent(platform.ElementEvent) {}

// sinkProxy lets a test hand the engine its own address as the Sink it
// passes to newly created observers, the same way core.Core hands itself
// to the engine it owns.
type sinkProxy struct {
	engine *allsync.Engine
}

func (p *sinkProxy) OnElementEvent(event platform.ElementEvent) {
	p.engine.OnElementEvent(event)
}

type fixtureOpts struct {
	excludePID       *types.ProcessId
	filterFullscreen bool
	filterOffscreen  bool
}

func newFixture(t *testing.T, opts fixtureOpts) (*allsync.Engine, *mock.Adapter, *registry.Registry) {
	t.Helper()
	var r *registry.Registry
	r = registry.New(nil, func(types.Event) {}, func(id types.ElementId) (types.Element, bool) {
		return adapters.BuildElement(r, id)
	})
	adapter := mock.New()
	var mu stdsync.RWMutex
	proxy := &sinkProxy{}
	engine := allsync.NewEngine(allsync.Config{
		Mu:               &mu,
		Registry:         r,
		Adapter:          adapter,
		Sink:             proxy,
		IDSeq:            &types.ElementIdSeq{},
		ExcludePID:       opts.excludePID,
		FilterFullscreen: opts.filterFullscreen,
		FilterOffscreen:  opts.filterOffscreen,
	})
	proxy.engine = engine
	return engine, adapter, r
}

func TestPollOnceDiscoversWindowAndProcess(t *testing.T) {
	engine, adapter, r := newFixture(t, fixtureOpts{})
	adapter.Windows = []types.Window{{ID: 1, ProcessID: 7, Focused: true}}

	engine.PollOnce()

	w, ok := r.Window(1)
	require.True(t, ok)
	assert.Equal(t, types.ProcessId(7), w.ProcessID)
	assert.Equal(t, types.WindowId(1), r.FocusedWindow())
	assert.True(t, r.HasProcess(7))
}

func TestPollOnceTracksMousePosition(t *testing.T) {
	engine, adapter, r := newFixture(t, fixtureOpts{})
	adapter.MousePos = types.Point{X: 42, Y: 24}

	engine.PollOnce()

	pos, ok := r.MousePosition()
	require.True(t, ok)
	assert.Equal(t, types.Point{X: 42, Y: 24}, pos)
}

func TestPollOnceFiltersFullscreenWindow(t *testing.T) {
	engine, adapter, r := newFixture(t, fixtureOpts{filterFullscreen: true})
	adapter.ScreenW, adapter.ScreenH = 1920, 1080
	adapter.Windows = []types.Window{{ID: 1, ProcessID: 1, Bounds: types.Bounds{Width: 1920, Height: 1080}}}

	engine.PollOnce()

	_, ok := r.Window(1)
	assert.False(t, ok)
}

func TestPollOnceStillUpsertsWindowsWhenExcludedWindowMissing(t *testing.T) {
	pid := types.ProcessId(99)
	engine, adapter, r := newFixture(t, fixtureOpts{excludePID: &pid})
	adapter.Windows = []types.Window{{ID: 1, ProcessID: 1}}

	engine.PollOnce()

	w, ok := r.Window(1)
	require.True(t, ok, "upsert should still run when the excluded overlay window isn't enumerated yet — only removal is suppressed")
	assert.Equal(t, types.ProcessId(1), w.ProcessID)
	assert.True(t, r.HasProcess(1), "new-process bootstrap should still run")
}

func TestPollOnceSkipsRemovalWhenExcludedWindowMissing(t *testing.T) {
	pid := types.ProcessId(99)
	engine, adapter, r := newFixture(t, fixtureOpts{excludePID: &pid})
	adapter.Windows = []types.Window{{ID: 1, ProcessID: 99}, {ID: 2, ProcessID: 1}}
	engine.PollOnce()
	_, ok := r.Window(2)
	require.True(t, ok)

	// The overlay window vanishes from this iteration's enumeration.
	adapter.Windows = []types.Window{{ID: 2, ProcessID: 1}}
	engine.PollOnce()

	_, ok = r.Window(2)
	assert.True(t, ok, "window 2 should survive since removal was suppressed, not just the overlay's own absence")
}

func TestPollOnceSkipsRemovalWhenAnyWindowIsOffscreen(t *testing.T) {
	engine, adapter, r := newFixture(t, fixtureOpts{})
	adapter.ScreenW, adapter.ScreenH = 1920, 1080
	adapter.Windows = []types.Window{{ID: 1, ProcessID: 1}}
	engine.PollOnce()
	_, ok := r.Window(1)
	require.True(t, ok)

	adapter.Windows = []types.Window{{ID: 2, ProcessID: 2, Bounds: types.Bounds{X: 5000}}}
	engine.PollOnce()

	_, ok = r.Window(1)
	assert.True(t, ok, "window 1 should survive since an off-screen window suppresses removal this iteration")
	_, ok = r.Window(2)
	assert.True(t, ok, "the off-screen window itself is still upserted — only removal is suppressed")
}

func TestPollOnceRemovesProcessWhenItsLastWindowGoes(t *testing.T) {
	engine, adapter, r := newFixture(t, fixtureOpts{})
	adapter.Windows = []types.Window{{ID: 1, ProcessID: 7}}
	engine.PollOnce()
	require.True(t, r.HasProcess(7))

	adapter.Windows = nil
	engine.PollOnce()

	assert.False(t, r.HasProcess(7), "a pid with no remaining window should be removed")
}

func TestPollOnceOffsetsWindowsByExcludedWindowPosition(t *testing.T) {
	pid := types.ProcessId(99)
	engine, adapter, r := newFixture(t, fixtureOpts{excludePID: &pid})
	adapter.Windows = []types.Window{
		{ID: 1, ProcessID: 99, Bounds: types.Bounds{X: 100, Y: 50}},
		{ID: 2, ProcessID: 1, Bounds: types.Bounds{X: 150, Y: 80}},
	}

	engine.PollOnce()

	w, ok := r.Window(2)
	require.True(t, ok)
	assert.Equal(t, 50.0, w.Info.Bounds.X)
	assert.Equal(t, 30.0, w.Info.Bounds.Y)
	_, excluded := r.Window(1)
	assert.False(t, excluded, "the excluded overlay window itself is never cached")
}

func TestOnElementEventDestroyedRemovesElement(t *testing.T) {
	engine, _, r := newFixture(t, fixtureOpts{})
	h := mock.NewHandle(1, "e")
	id := r.UpsertElement(registry.FromAttributes(1, 1, 1, true, h, nil, platform.ElementAttributes{Role: role.Window}))

	engine.OnElementEvent(platform.ElementEvent{Kind: platform.EventDestroyed, ElementID: id})

	_, ok := r.Element(id)
	assert.False(t, ok)
}

func TestOnElementEventChangedRefreshesAttributes(t *testing.T) {
	engine, adapter, r := newFixture(t, fixtureOpts{})
	h := mock.NewHandle(1, "e")
	adapter.AddNode(&mock.Node{Handle: h, Attrs: platform.ElementAttributes{Role: role.TextField}})
	id := r.UpsertElement(registry.FromAttributes(1, 1, 1, true, h, nil, platform.ElementAttributes{Role: role.TextField}))

	label := "changed"
	adapter.Nodes[h.Key()].Attrs.Title = &label

	engine.OnElementEvent(platform.ElementEvent{Kind: platform.EventChanged, ElementID: id})

	elem, ok := r.Element(id)
	require.True(t, ok)
	require.NotNil(t, elem.Label)
	assert.Equal(t, "changed", *elem.Label)
}

func TestOnElementEventChangedRemovesDeadElement(t *testing.T) {
	engine, adapter, r := newFixture(t, fixtureOpts{})
	h := mock.NewHandle(1, "e")
	adapter.AddNode(&mock.Node{Handle: h, Attrs: platform.ElementAttributes{Role: role.TextField}})
	id := r.UpsertElement(registry.FromAttributes(1, 1, 1, true, h, nil, platform.ElementAttributes{Role: role.TextField}))

	delete(adapter.Nodes, h.Key())

	engine.OnElementEvent(platform.ElementEvent{Kind: platform.EventChanged, ElementID: id})

	_, ok := r.Element(id)
	assert.False(t, ok)
}

func TestOnElementEventChildrenChangedDiscoversChild(t *testing.T) {
	engine, adapter, r := newFixture(t, fixtureOpts{})
	root := mock.NewHandle(1, "root")
	child := mock.NewHandle(1, "child")
	adapter.AddNode(&mock.Node{Handle: root, Children: []mock.Handle{child}, Attrs: platform.ElementAttributes{Role: role.Window}})
	adapter.AddNode(&mock.Node{Handle: child, Attrs: platform.ElementAttributes{Role: role.Button}})
	id := r.UpsertElement(registry.FromAttributes(1, 1, 1, true, root, nil, platform.ElementAttributes{Role: role.Window}))

	engine.OnElementEvent(platform.ElementEvent{Kind: platform.EventChildrenChanged, ElementID: id})

	children, known := r.TreeChildrenKnown(id)
	require.True(t, known)
	require.Len(t, children, 1)
}

func TestOnElementEventFocusChangedWatchesAlreadyWatchedWritableElement(t *testing.T) {
	engine, adapter, r := newFixture(t, fixtureOpts{})
	obs, err := adapter.CreateObserver(1, nil)
	require.NoError(t, err)
	r.UpsertProcess(1, &registry.CachedProcess{Observer: obs})

	field := mock.NewHandle(1, "field")
	focused := true
	id := r.UpsertElement(registry.FromAttributes(1, 1, 1, true, field, nil, platform.ElementAttributes{Role: role.TextField, Focused: &focused}))
	subscriptions.EnsureWatched(r, obs, stubSink{}, nil, id)

	engine.OnElementEvent(platform.ElementEvent{Kind: platform.EventFocusChanged, Handle: field})

	elem, ok := r.Element(id)
	require.True(t, ok)
	assert.NotNil(t, elem.Watch)

	proc, ok := r.Process(1)
	require.True(t, ok)
	assert.Equal(t, id, proc.FocusedElement)
}

func TestOnElementEventFocusChangedIgnoresElementNotSelfReportingFocused(t *testing.T) {
	engine, adapter, r := newFixture(t, fixtureOpts{})
	obs, err := adapter.CreateObserver(1, nil)
	require.NoError(t, err)
	r.UpsertProcess(1, &registry.CachedProcess{Observer: obs})

	field := mock.NewHandle(1, "field")
	notFocused := false
	r.UpsertElement(registry.FromAttributes(1, 1, 1, true, field, nil, platform.ElementAttributes{Role: role.TextField, Focused: &notFocused}))

	engine.OnElementEvent(platform.ElementEvent{Kind: platform.EventFocusChanged, Handle: field})

	proc, ok := r.Process(1)
	require.True(t, ok)
	assert.Zero(t, proc.FocusedElement)
}

func TestOnElementEventSelectionChangedRecordsSelection(t *testing.T) {
	engine, _, r := newFixture(t, fixtureOpts{})
	r.UpsertProcess(1, &registry.CachedProcess{})
	h := mock.NewHandle(1, "field")
	r.UpsertElement(registry.FromAttributes(1, 1, 1, true, h, nil, platform.ElementAttributes{Role: role.TextField}))

	engine.OnElementEvent(platform.ElementEvent{Kind: platform.EventSelectionChanged, Handle: h, Text: "hi"})

	proc, ok := r.Process(1)
	require.True(t, ok)
	require.NotNil(t, proc.LastSelection)
	assert.Equal(t, "hi", proc.LastSelection.Text)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	engine, _, _ := newFixture(t, fixtureOpts{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		engine.Run(ctx, time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
