package role

// Notification is an event the platform can fire for a watched element.
// Platform-specific notification strings (macOS kAX*Notification, Windows
// UIA events) are mapped onto Notification by the platform adapter.
type Notification int

const (
	// Destroyed fires when an element is no longer valid. Always subscribed
	// for every registered element so the registry can clean up.
	Destroyed Notification = iota
	// ValueChanged fires when an element's value changes.
	ValueChanged
	// TitleChanged fires when an element's title/label changes.
	TitleChanged
	// FocusChanged fires when focus moves to an element. Subscribed at the
	// application level, not per element.
	FocusChanged
	// SelectionChanged fires when the text or list selection within an
	// element changes. Subscribed at the application level.
	SelectionChanged
	// BoundsChanged fires when an element's position or size changes.
	BoundsChanged
	// ChildrenChanged fires when an element's children are added or removed.
	ChildrenChanged
)

// String returns the snake_case wire name for the notification.
func (n Notification) String() string {
	switch n {
	case Destroyed:
		return "destroyed"
	case ValueChanged:
		return "value_changed"
	case TitleChanged:
		return "title_changed"
	case FocusChanged:
		return "focus_changed"
	case SelectionChanged:
		return "selection_changed"
	case BoundsChanged:
		return "bounds_changed"
	case ChildrenChanged:
		return "children_changed"
	default:
		return "unknown"
	}
}

// Always lists the notifications subscribed for every registered element
// regardless of role.
var Always = []Notification{Destroyed}

// ForWatching returns the additional, role-dependent notifications to
// subscribe when an element is watched. It never includes Destroyed, which
// Always already covers.
func ForWatching(r Role) []Notification {
	var notifs []Notification

	if r.IsWritable() {
		notifs = append(notifs, ValueChanged)
	}
	if r == Window {
		notifs = append(notifs, TitleChanged)
	}
	if r.IsTextInput() {
		notifs = append(notifs, SelectionChanged)
	}

	return notifs
}

// IsAppLevel reports whether a notification is subscribed on the
// application element rather than per-element. The callback for an
// app-level notification receives the newly-focused or selection-changed
// element directly, not the element that was subscribed.
func (n Notification) IsAppLevel() bool {
	return n == FocusChanged || n == SelectionChanged
}
