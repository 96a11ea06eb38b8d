// Package registry is the single source of truth for cached accessibility
// data: processes, windows, and elements, plus the parent/child tree that
// ties them together. Every mutation goes through a Registry method so that
// indexes stay consistent and change events are always emitted — callers
// never poke at the maps directly.
package registry

import (
	"log"
	"slices"
	"time"

	"github.com/watchcask/allio/pkg/allio/platform"
	"github.com/watchcask/allio/pkg/allio/role"
	"github.com/watchcask/allio/pkg/allio/tree"
	"github.com/watchcask/allio/pkg/allio/types"
)

// CachedProcess is per-process state: the observer subscribed to its
// notifications, its app-level element handle, and the last focus/selection
// seen for it.
type CachedProcess struct {
	Observer      platform.Observer
	AppHandle     platform.Handle
	FocusedElement types.ElementId // zero = none focused
	LastSelection  *types.TextSelection

	// AppNotifications is closed when the process is removed.
	AppNotifications platform.AppNotificationHandle
}

// CachedWindow is per-window state.
type CachedWindow struct {
	ProcessID types.ProcessId
	Info      types.Window
	Handle    platform.Handle // nil if the window server can no longer resolve it
	// RootElement caches the window's root element id once WindowRoot has
	// resolved it once.
	RootElement types.ElementId
}

// CachedElement is the registry's internal record for one element: platform
// identity plus the semantic data callers actually see through types.Element.
type CachedElement struct {
	ID       types.ElementId
	WindowID types.WindowId
	PID      types.ProcessId
	IsRoot   bool

	Handle       platform.Handle
	ParentHandle platform.Handle // nil for root elements

	Role         role.Role
	PlatformRole string

	Label       *string
	Description *string
	Placeholder *string
	URL         *string

	Value *types.Value

	Bounds *types.Bounds

	Focused  *bool
	Disabled bool
	Selected *bool
	Expanded *bool

	RowIndex    *int
	ColumnIndex *int
	RowCount    *int
	ColumnCount *int

	Actions []types.Action

	Identifier *string

	IsFallback bool

	// Watch is the active destruction (and possibly value/title/selection)
	// subscription for this element, if any.
	Watch         platform.WatchHandle
	LastRefreshed time.Time
}

// FromAttributes builds a CachedElement from attributes fetched live from
// the platform adapter.
func FromAttributes(id types.ElementId, windowID types.WindowId, pid types.ProcessId, isRoot bool, handle, parentHandle platform.Handle, attrs platform.ElementAttributes) *CachedElement {
	return &CachedElement{
		ID:            id,
		WindowID:      windowID,
		PID:           pid,
		IsRoot:        isRoot,
		Handle:        handle,
		ParentHandle:  parentHandle,
		Role:          attrs.Role,
		PlatformRole:  attrs.PlatformRole,
		Label:         attrs.Title,
		Description:   attrs.Description,
		Placeholder:   attrs.Placeholder,
		URL:           attrs.URL,
		Value:         attrs.Value,
		Bounds:        attrs.Bounds,
		Focused:       attrs.Focused,
		Disabled:      attrs.Disabled,
		Selected:      attrs.Selected,
		Expanded:      attrs.Expanded,
		RowIndex:      attrs.RowIndex,
		ColumnIndex:   attrs.ColumnIndex,
		RowCount:      attrs.RowCount,
		ColumnCount:   attrs.ColumnCount,
		Actions:       attrs.Actions,
		Identifier:    attrs.Identifier,
		IsFallback:    false,
		LastRefreshed: time.Now(),
	}
}

// IsStale reports whether the element hasn't been refreshed within maxAge.
func (c *CachedElement) IsStale(maxAge time.Duration) bool {
	return time.Since(c.LastRefreshed) > maxAge
}

// Refresh overwrites c's semantic fields from freshly-fetched attributes.
// It preserves ID, Handle, ParentHandle and Watch, and bumps LastRefreshed.
func (c *CachedElement) Refresh(attrs platform.ElementAttributes) {
	c.Role = attrs.Role
	c.PlatformRole = attrs.PlatformRole
	c.Label = attrs.Title
	c.Description = attrs.Description
	c.Placeholder = attrs.Placeholder
	c.URL = attrs.URL
	c.Value = attrs.Value
	c.Bounds = attrs.Bounds
	c.Focused = attrs.Focused
	c.Disabled = attrs.Disabled
	c.Selected = attrs.Selected
	c.Expanded = attrs.Expanded
	c.RowIndex = attrs.RowIndex
	c.ColumnIndex = attrs.ColumnIndex
	c.RowCount = attrs.RowCount
	c.ColumnCount = attrs.ColumnCount
	c.Actions = attrs.Actions
	c.Identifier = attrs.Identifier
	c.IsFallback = false
	c.LastRefreshed = time.Now()
}

// EqualSemantic compares everything a caller can observe through
// types.Element: it excludes Handle, ParentHandle, Watch and LastRefreshed,
// which are registry bookkeeping rather than element data.
func (c *CachedElement) EqualSemantic(other *CachedElement) bool {
	return c.ID == other.ID &&
		c.WindowID == other.WindowID &&
		c.PID == other.PID &&
		c.IsRoot == other.IsRoot &&
		c.Role == other.Role &&
		c.PlatformRole == other.PlatformRole &&
		ptrEqual(c.Label, other.Label) &&
		ptrEqual(c.Description, other.Description) &&
		ptrEqual(c.Placeholder, other.Placeholder) &&
		ptrEqual(c.URL, other.URL) &&
		valueEqual(c.Value, other.Value) &&
		boundsEqual(c.Bounds, other.Bounds) &&
		ptrEqual(c.Focused, other.Focused) &&
		c.Disabled == other.Disabled &&
		ptrEqual(c.Selected, other.Selected) &&
		ptrEqual(c.Expanded, other.Expanded) &&
		ptrEqual(c.RowIndex, other.RowIndex) &&
		ptrEqual(c.ColumnIndex, other.ColumnIndex) &&
		ptrEqual(c.RowCount, other.RowCount) &&
		ptrEqual(c.ColumnCount, other.ColumnCount) &&
		slices.Equal(c.Actions, other.Actions) &&
		ptrEqual(c.Identifier, other.Identifier) &&
		c.IsFallback == other.IsFallback
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func valueEqual(a, b *types.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func boundsEqual(a, b *types.Bounds) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Registry caches everything allio knows about the accessibility tree
// across all watched processes and publishes change events through emit.
//
// Thread Safety: Registry is not safe for concurrent use on its own — the
// core package guards every call with its own RWMutex.
type Registry struct {
	logger *log.Logger
	emit   func(types.Event)
	// buildElement projects a cached element (plus its tree position) into
	// the public types.Element shape. Injected rather than imported to
	// avoid a package cycle between registry and the adapter package that
	// builds this projection.
	buildElement func(id types.ElementId) (types.Element, bool)

	processes map[types.ProcessId]*CachedProcess
	windows   map[types.WindowId]*CachedWindow
	elements  map[types.ElementId]*CachedElement

	tree *tree.Tree

	handleToID       map[string]types.ElementId
	waitingForParent map[string][]types.ElementId
	windowHandleToID map[string]types.WindowId

	focusedWindow types.WindowId // zero = none
	zOrder        []types.WindowId
	mousePosition *types.Point
}

// New builds an empty Registry. emit is called for every state-changing
// event; buildElement projects a cached element into its public shape for
// ElementAdded/ElementChanged payloads.
func New(logger *log.Logger, emit func(types.Event), buildElement func(types.ElementId) (types.Element, bool)) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		logger:           logger,
		emit:             emit,
		buildElement:     buildElement,
		processes:        make(map[types.ProcessId]*CachedProcess),
		windows:          make(map[types.WindowId]*CachedWindow),
		elements:         make(map[types.ElementId]*CachedElement),
		tree:             tree.New(logger),
		handleToID:       make(map[string]types.ElementId),
		waitingForParent: make(map[string][]types.ElementId),
		windowHandleToID: make(map[string]types.WindowId),
	}
}

func (r *Registry) emitEvent(event types.Event) {
	if r.emit != nil {
		r.emit(event)
	}
}

func (r *Registry) emitElementAdded(id types.ElementId) {
	if el, ok := r.buildElement(id); ok {
		r.emitEvent(types.Event{Kind: types.EventElementAdded, Element: &el})
	}
}

// EmitElementChanged builds and emits an ElementChanged event for id.
// Exported because sync handlers that mutate the registry through tree
// delegation (rather than UpsertElement/UpdateElement) need to trigger it
// directly too.
func (r *Registry) EmitElementChanged(id types.ElementId) {
	if el, ok := r.buildElement(id); ok {
		r.emitEvent(types.Event{Kind: types.EventElementChanged, Element: &el})
	}
}

// TreeParent returns id's parent in the tree, if linked.
func (r *Registry) TreeParent(id types.ElementId) (types.ElementId, bool) {
	return r.tree.Parent(id)
}

// TreeChildren returns id's linked children.
func (r *Registry) TreeChildren(id types.ElementId) []types.ElementId {
	return r.tree.Children(id)
}

// TreeHasChildren reports whether id has any linked children.
func (r *Registry) TreeHasChildren(id types.ElementId) bool {
	return r.tree.HasChildren(id)
}

// TreeSetChildren replaces id's linked children.
func (r *Registry) TreeSetChildren(parent types.ElementId, children []types.ElementId) {
	r.tree.SetChildren(parent, children)
}

// TreeChildrenKnown returns id's children and whether they have ever been
// populated (see tree.Tree.ChildrenKnown).
func (r *Registry) TreeChildrenKnown(id types.ElementId) ([]types.ElementId, bool) {
	return r.tree.ChildrenKnown(id)
}

// RefreshElement overwrites an already-cached element's attributes and
// reports whether anything a client observes through types.Element changed.
// Returns (changed, found).
func (r *Registry) RefreshElement(id types.ElementId, attrs platform.ElementAttributes) (bool, bool) {
	elem, ok := r.elements[id]
	if !ok {
		return false, false
	}

	oldValue, oldLabel := elem.Value, elem.Label
	oldBounds := elem.Bounds
	oldFocused, oldSelected, oldExpanded := elem.Focused, elem.Selected, elem.Expanded

	elem.Refresh(attrs)

	changed := !valueEqual(elem.Value, oldValue) ||
		!ptrEqual(elem.Label, oldLabel) ||
		!boundsEqual(elem.Bounds, oldBounds) ||
		!ptrEqual(elem.Focused, oldFocused) ||
		!ptrEqual(elem.Selected, oldSelected) ||
		!ptrEqual(elem.Expanded, oldExpanded)

	if changed {
		r.EmitElementChanged(id)
	}
	return changed, true
}

// SetFocusedWindow updates the focused window, emitting FocusWindow if it
// changed.
func (r *Registry) SetFocusedWindow(id types.WindowId) {
	if r.focusedWindow == id {
		return
	}
	r.focusedWindow = id
	r.emitEvent(types.Event{Kind: types.EventFocusWindow, WindowID: id})
}

// FocusedWindow returns the currently focused window id, or zero if none.
func (r *Registry) FocusedWindow() types.WindowId {
	return r.focusedWindow
}

// SetFocusedElement records the focused element for pid, emitting
// FocusElement if it changed. changed is false if pid is unknown or the
// element was already focused; previousID/hadPrevious describe what was
// focused before.
func (r *Registry) SetFocusedElement(pid types.ProcessId, element types.Element) (changed bool, previousID types.ElementId, hadPrevious bool) {
	process, ok := r.processes[pid]
	if !ok {
		return false, 0, false
	}

	previous := process.FocusedElement
	if previous == element.ID {
		return false, 0, false
	}

	process.FocusedElement = element.ID
	r.emitEvent(types.Event{
		Kind:              types.EventFocusElement,
		Element:           &element,
		PreviousElementID: previous,
	})
	return true, previous, previous != 0
}

// SetSelection records a text selection change for pid, emitting
// SelectionChanged if it differs from the last one seen.
func (r *Registry) SetSelection(pid types.ProcessId, windowID types.WindowId, elementID types.ElementId, text string, rng *types.TextRange) {
	newSelection := types.TextSelection{ElementID: elementID, Text: text, Range: rng}

	process, ok := r.processes[pid]
	if !ok {
		return
	}

	if process.LastSelection != nil && selectionEqual(*process.LastSelection, newSelection) {
		return
	}

	process.LastSelection = &newSelection
	r.emitEvent(types.Event{
		Kind:      types.EventSelectionChanged,
		WindowID:  windowID,
		ElementID: elementID,
		Text:      text,
		Range:     rng,
	})
}

func selectionEqual(a, b types.TextSelection) bool {
	if a.ElementID != b.ElementID || a.Text != b.Text {
		return false
	}
	if a.Range == nil || b.Range == nil {
		return a.Range == nil && b.Range == nil
	}
	return *a.Range == *b.Range
}

// SetMousePosition updates the cached mouse position, emitting MousePosition
// only if it moved by at least one point on either axis. This dead zone
// keeps a stationary-but-jittery pointer from flooding subscribers.
func (r *Registry) SetMousePosition(pos types.Point) {
	if r.mousePosition != nil && !pos.MovedFrom(*r.mousePosition, 1.0) {
		return
	}
	r.mousePosition = &pos
	r.emitEvent(types.Event{Kind: types.EventMousePosition, MousePosition: pos})
}

// MousePosition returns the last known mouse position, if any.
func (r *Registry) MousePosition() (types.Point, bool) {
	if r.mousePosition == nil {
		return types.Point{}, false
	}
	return *r.mousePosition, true
}

// ZOrder returns windows front to back.
func (r *Registry) ZOrder() []types.WindowId {
	return r.zOrder
}

// ElementCount returns the number of cached elements.
func (r *Registry) ElementCount() int { return len(r.elements) }

// WindowCount returns the number of cached windows.
func (r *Registry) WindowCount() int { return len(r.windows) }

// ProcessCount returns the number of cached processes.
func (r *Registry) ProcessCount() int { return len(r.processes) }

// WindowAtPoint returns the frontmost window whose bounds contain (x, y).
func (r *Registry) WindowAtPoint(x, y float64) (*CachedWindow, bool) {
	point := types.Point{X: x, Y: y}
	for _, id := range r.zOrder {
		if w, ok := r.windows[id]; ok && w.Info.Bounds.Contains(point) {
			return w, true
		}
	}
	return nil, false
}
