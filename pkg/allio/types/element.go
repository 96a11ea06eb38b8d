package types

import "github.com/watchcask/allio/pkg/allio/role"

// Children encodes the element's child-loading state on the public API
// surface: nil means "children have not been loaded", a non-nil empty
// slice means "loaded, and there are none", and a non-nil non-empty slice
// is the loaded set of child ids.
type Children = []ElementId

// Element is the public, flat representation of a single accessibility
// node. Trees are derived client-side from ParentId/Children; the registry
// never stores a nested structure.
//
// Parent linkage:
//   - IsRoot=true, ParentId=0   → window root element
//   - IsRoot=false, ParentId!=0 → parent is loaded (linked)
//   - IsRoot=false, ParentId=0  → orphan (parent exists on the OS side but
//     has not been loaded into the registry yet)
type Element struct {
	ID       ElementId
	WindowID WindowId
	PID      ProcessId
	IsRoot   bool
	ParentID ElementId // zero value means "no parent loaded"

	Children Children // nil = not loaded, []ElementId{} = loaded-empty

	Role         role.Role
	PlatformRole string

	Label       *string
	Description *string
	Placeholder *string
	URL         *string

	Value *Value

	Bounds *Bounds

	Focused  *bool
	Disabled bool
	Selected *bool
	Expanded *bool

	RowIndex    *int
	ColumnIndex *int
	RowCount    *int
	ColumnCount *int

	Actions []Action

	// IsFallback marks a fallback container returned from a hit test against
	// a lazily-initializing toolkit (e.g. Electron/Chromium). Callers should
	// retry the hit test on the next frame to get the real element.
	IsFallback bool
}

// Window is the public representation of an on-screen window.
type Window struct {
	ID        WindowId
	Title     string
	AppName   string
	Bounds    Bounds
	Focused   bool
	ProcessID ProcessId
	// ZIndex is the window's position in front-to-back order: 0 is frontmost.
	ZIndex uint32
}
