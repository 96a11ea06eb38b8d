// Package platform defines the contract between allio's core and a
// platform-specific accessibility backend. Core code only ever talks to
// these interfaces; it never imports OS-specific packages directly. A
// concrete adapter (e.g. a macOS AX backend) implements Adapter and feeds
// ElementEvents to whatever EventSink the core registers.
package platform

import (
	"github.com/watchcask/allio/pkg/allio/role"
	"github.com/watchcask/allio/pkg/allio/types"
)

// Handle is an opaque, platform-owned reference to a single accessibility
// element. Handles are cheap to copy/clone and must be stable for the
// lifetime of the underlying OS element.
//
// Key returns a comparable value suitable as a Go map key — the Go
// equivalent of the platform's cached hash plus equality check collapsed
// into one value (e.g. a process id/native pointer pair formatted as a
// string). Two handles referring to the same OS element must return equal
// keys; two handles referring to different elements should not.
type Handle interface {
	PID() types.ProcessId
	Key() string
}

// ElementAttributes is the cross-platform snapshot of a single element's
// data, as fetched live from the OS. All platform-specific detail (raw role
// strings, native attribute names) is translated into this shape by the
// adapter before it ever reaches the registry.
type ElementAttributes struct {
	Role         role.Role
	PlatformRole string

	Title       *string
	Value       *types.Value
	Description *string
	Placeholder *string
	URL         *string

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

	// Identifier is the platform accessibility identifier (AXIdentifier on
	// macOS), when the app sets one. May give stable identity across moves.
	Identifier *string
}

// IsDead reports whether attrs represents a destroyed/invalid element: no
// role was mapped and no platform role string was given either.
func (a ElementAttributes) IsDead() bool {
	return a.Role == role.Unknown && a.PlatformRole == ""
}

// ElementEventKind discriminates the payload carried by an ElementEvent.
type ElementEventKind int

const (
	// EventDestroyed reports that the OS destroyed an already-cached element.
	EventDestroyed ElementEventKind = iota
	// EventChanged reports a value/title/bounds/etc. notification for a
	// cached element.
	EventChanged
	// EventChildrenChanged reports that an element's children changed.
	EventChildrenChanged
	// EventFocusChanged reports application focus moving to a handle.
	EventFocusChanged
	// EventSelectionChanged reports a text selection change.
	EventSelectionChanged
)

// ElementEvent is what an Observer delivers to an EventSink when the OS
// fires a notification. Only the fields relevant to Kind are populated.
type ElementEvent struct {
	Kind ElementEventKind

	ElementID    types.ElementId  // EventDestroyed, EventChildrenChanged
	Notification role.Notification // EventChanged

	Handle Handle // EventFocusChanged, EventSelectionChanged

	Text  string           // EventSelectionChanged
	Range *types.TextRange // EventSelectionChanged
}

// EventSink receives ElementEvents from an Observer. The sync engine
// implements this to fold platform notifications into the registry.
type EventSink interface {
	OnElementEvent(event ElementEvent)
}

// WatchHandle tracks the set of notifications subscribed for one element.
// Closing it unsubscribes everything.
type WatchHandle interface {
	Add(notifications []role.Notification) int
	Remove(notifications []role.Notification)
	Close() error
}

// AppNotificationHandle tracks an application-level subscription (focus,
// selection). Closing it unsubscribes.
type AppNotificationHandle interface {
	Close() error
}

// Observer manages notification subscriptions for a single process.
type Observer interface {
	SubscribeAppNotifications(pid types.ProcessId, sink EventSink) (AppNotificationHandle, error)
	CreateWatch(h Handle, id types.ElementId, initial []role.Notification, sink EventSink) (WatchHandle, error)
}

// Adapter is the full contract a platform backend must satisfy. Every
// method that talks to the OS is synchronous; the sync engine is
// responsible for not holding the registry lock while calling it.
type Adapter interface {
	// HasPermissions reports whether the process has accessibility
	// permissions; if false, nothing else in Adapter may be called.
	HasPermissions() bool

	// FetchWindows lists all currently visible windows, excluding the given
	// pid if non-nil (used to exclude allio's own overlay window, if any).
	FetchWindows(excludePID *types.ProcessId) []types.Window

	// FetchScreenSize returns the main screen's width and height in points.
	FetchScreenSize() (width, height float64)

	// FetchMousePosition returns the current mouse position in screen
	// coordinates.
	FetchMousePosition() types.Point

	// FetchWindowHandle resolves the accessibility element handle backing a
	// window, if the window server can still find it.
	FetchWindowHandle(w types.Window) (Handle, bool)

	// CreateObserver builds a new Observer for a process's notifications.
	CreateObserver(pid types.ProcessId, sink EventSink) (Observer, error)

	// EnableAccessibilityForPID explicitly activates accessibility support
	// in processes that require it (Chromium/Electron apps).
	EnableAccessibilityForPID(pid types.ProcessId)

	// AppElement returns the root application element handle for a process.
	AppElement(pid types.ProcessId) Handle

	// FetchChildren returns h's child handles, or an empty slice if none.
	FetchChildren(h Handle) []Handle

	// FetchParent returns h's parent handle, or false for root elements.
	FetchParent(h Handle) (Handle, bool)

	// FetchAttributes fetches h's current attributes from the OS.
	FetchAttributes(h Handle) ElementAttributes

	// SetValue writes a typed value to h.
	SetValue(h Handle, v types.Value) error

	// PerformAction performs an action on h.
	PerformAction(h Handle, a types.Action) error

	// FetchElementAtPosition hit-tests within h's coordinate space.
	FetchElementAtPosition(h Handle, x, y float64) (Handle, bool)

	// Window returns the containing window element handle for h.
	Window(h Handle) (Handle, bool)
}
