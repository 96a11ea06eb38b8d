// Package mock provides an in-memory platform.Adapter for tests: no real
// OS calls, just a tree of handles the test sets up ahead of time.
package mock

import (
	"fmt"
	"sync"

	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/role"
	"github.com/watchcask/allio/pkg/allio/types"
)

// Handle is a mock platform.Handle keyed by a simple string id.
type Handle struct {
	pid types.ProcessId
	id  string
}

func (h Handle) PID() types.ProcessId { return h.pid }
func (h Handle) Key() string          { return fmt.Sprintf("%d:%s", h.pid, h.id) }

// NewHandle builds a mock handle for tests.
func NewHandle(pid types.ProcessId, id string) Handle {
	return Handle{pid: pid, id: id}
}

// Node is one element in the mock adapter's fake accessibility tree.
type Node struct {
	Handle   Handle
	Attrs    platform.ElementAttributes
	Children []Handle
	Parent   *Handle
	Window   *Handle
}

// Adapter is a fully in-memory platform.Adapter. Tests populate its fields
// directly (nodes via AddNode) before handing it to the core.
type Adapter struct {
	mu sync.Mutex

	Permissions   bool
	Windows       []types.Window
	WindowHandles map[types.WindowId]Handle
	ScreenW       float64
	ScreenH       float64
	MousePos      types.Point

	Nodes map[string]*Node // keyed by Handle.Key()

	observers map[types.ProcessId]*Observer

	SetValueErr    error
	PerformErr     error
	HitTestResult  *Handle
}

// New builds an empty mock adapter with permissions granted.
func New() *Adapter {
	return &Adapter{
		Permissions:   true,
		WindowHandles: make(map[types.WindowId]Handle),
		Nodes:         make(map[string]*Node),
		observers:     make(map[types.ProcessId]*Observer),
		ScreenW:       1920,
		ScreenH:       1080,
	}
}

// AddNode registers a node's handle, attributes, and static children.
func (a *Adapter) AddNode(n *Node) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Nodes[n.Handle.Key()] = n
}

func (a *Adapter) HasPermissions() bool { return a.Permissions }

func (a *Adapter) FetchWindows(excludePID *types.ProcessId) []types.Window {
	a.mu.Lock()
	defer a.mu.Unlock()
	if excludePID == nil {
		return append([]types.Window(nil), a.Windows...)
	}
	out := make([]types.Window, 0, len(a.Windows))
	for _, w := range a.Windows {
		if w.ProcessID != *excludePID {
			out = append(out, w)
		}
	}
	return out
}

func (a *Adapter) FetchScreenSize() (float64, float64) { return a.ScreenW, a.ScreenH }

func (a *Adapter) FetchMousePosition() types.Point { return a.MousePos }

func (a *Adapter) FetchWindowHandle(w types.Window) (platform.Handle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.WindowHandles[w.ID]
	return h, ok
}

func (a *Adapter) CreateObserver(pid types.ProcessId, sink platform.EventSink) (platform.Observer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	obs := &Observer{adapter: a, pid: pid, sink: sink}
	a.observers[pid] = obs
	return obs, nil
}

func (a *Adapter) EnableAccessibilityForPID(types.ProcessId) {}

func (a *Adapter) AppElement(pid types.ProcessId) platform.Handle {
	return Handle{pid: pid, id: "app"}
}

func (a *Adapter) node(h platform.Handle) (*Node, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	mh, ok := h.(Handle)
	if !ok {
		return nil, false
	}
	n, ok := a.Nodes[mh.Key()]
	return n, ok
}

func (a *Adapter) FetchChildren(h platform.Handle) []platform.Handle {
	n, ok := a.node(h)
	if !ok {
		return nil
	}
	out := make([]platform.Handle, len(n.Children))
	for i, c := range n.Children {
		out[i] = c
	}
	return out
}

func (a *Adapter) FetchParent(h platform.Handle) (platform.Handle, bool) {
	n, ok := a.node(h)
	if !ok || n.Parent == nil {
		return nil, false
	}
	return *n.Parent, true
}

func (a *Adapter) FetchAttributes(h platform.Handle) platform.ElementAttributes {
	n, ok := a.node(h)
	if !ok {
		return platform.ElementAttributes{Role: role.Unknown}
	}
	return n.Attrs
}

func (a *Adapter) SetValue(h platform.Handle, v types.Value) error {
	if a.SetValueErr != nil {
		return a.SetValueErr
	}
	n, ok := a.node(h)
	if !ok {
		return types.ErrElementNotFound(0)
	}
	n.Attrs.Value = &v
	return nil
}

func (a *Adapter) PerformAction(h platform.Handle, act types.Action) error {
	if a.PerformErr != nil {
		return a.PerformErr
	}
	if _, ok := a.node(h); !ok {
		return types.ErrElementNotFound(0)
	}
	return nil
}

func (a *Adapter) FetchElementAtPosition(h platform.Handle, x, y float64) (platform.Handle, bool) {
	if a.HitTestResult != nil {
		return *a.HitTestResult, true
	}
	return nil, false
}

func (a *Adapter) Window(h platform.Handle) (platform.Handle, bool) {
	n, ok := a.node(h)
	if !ok || n.Window == nil {
		return nil, false
	}
	return *n.Window, true
}

// Fire delivers an ElementEvent to the observer registered for pid, if any.
// Tests use this to simulate an OS notification arriving asynchronously.
func (a *Adapter) Fire(pid types.ProcessId, event platform.ElementEvent) {
	a.mu.Lock()
	obs, ok := a.observers[pid]
	a.mu.Unlock()
	if !ok {
		return
	}
	obs.sink.OnElementEvent(event)
}

// Observer is the mock platform.Observer: it just remembers which sink to
// deliver events to, via Adapter.Fire.
type Observer struct {
	adapter *Adapter
	pid     types.ProcessId
	sink    platform.EventSink
}

func (o *Observer) SubscribeAppNotifications(pid types.ProcessId, sink platform.EventSink) (platform.AppNotificationHandle, error) {
	return &watchHandle{}, nil
}

func (o *Observer) CreateWatch(h platform.Handle, id types.ElementId, initial []role.Notification, sink platform.EventSink) (platform.WatchHandle, error) {
	return &watchHandle{notifications: append([]role.Notification(nil), initial...)}, nil
}

type watchHandle struct {
	notifications []role.Notification
}

func (w *watchHandle) Add(notifs []role.Notification) int {
	w.notifications = append(w.notifications, notifs...)
	return len(w.notifications)
}

func (w *watchHandle) Remove(notifs []role.Notification) {
	remove := make(map[role.Notification]bool, len(notifs))
	for _, n := range notifs {
		remove[n] = true
	}
	out := w.notifications[:0]
	for _, n := range w.notifications {
		if !remove[n] {
			out = append(out, n)
		}
	}
	w.notifications = out
}

func (w *watchHandle) Close() error { return nil }
