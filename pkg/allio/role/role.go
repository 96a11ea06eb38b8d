// Package role defines the cross-platform semantic role of an accessibility
// element and the pure behavior functions derived from it. Platform-specific
// role strings (macOS AXRole, Windows UIA ControlType) are mapped onto Role
// by the platform adapter; nothing in this package talks to the OS.
package role

import "fmt"

// Role is the semantic UI role of an element, inspired by WAI-ARIA but
// simplified to what allio's components actually branch on.
type Role int

const (
	// Structural / containers
	Application Role = iota
	Window
	Document
	Group
	ScrollArea
	Toolbar

	// Navigation
	Menu
	MenuBar
	MenuItem
	Tab
	TabList

	// Collections
	List
	ListItem
	Table
	Row
	Cell
	Tree
	TreeItem

	// Interactive
	Button
	Link
	TextField
	TextArea
	SearchField
	ComboBox
	Checkbox
	Switch
	RadioButton
	Slider
	Stepper
	ProgressBar
	ColorWell

	// Static content
	StaticText
	Heading
	Image
	Separator

	// GenericGroup is a layout-only container with no semantic meaning,
	// mapped from a platform group role when there's no label or value.
	GenericGroup

	// GenericElement is a known platform element with no specific semantics
	// (e.g. a scrollbar): explicitly mapped, not Unknown, but pruned from
	// simplified tree views.
	GenericElement

	// Unknown marks a platform role string that did not map to anything
	// known. Its presence indicates a gap in the platform adapter's mapping.
	Unknown
)

// ValueType classifies the kind of value a role's elements carry.
type ValueType int

const (
	ValueTypeNone ValueType = iota
	ValueTypeString
	ValueTypeNumber
	ValueTypeBoolean
	ValueTypeColor
)

// String returns the lowercase wire name used across the JSON-RPC surface.
func (t ValueType) String() string {
	switch t {
	case ValueTypeNone:
		return "none"
	case ValueTypeString:
		return "string"
	case ValueTypeNumber:
		return "number"
	case ValueTypeBoolean:
		return "boolean"
	case ValueTypeColor:
		return "color"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// String returns the lowercase wire name for the role.
func (r Role) String() string {
	switch r {
	case Application:
		return "application"
	case Window:
		return "window"
	case Document:
		return "document"
	case Group:
		return "group"
	case ScrollArea:
		return "scrollarea"
	case Toolbar:
		return "toolbar"
	case Menu:
		return "menu"
	case MenuBar:
		return "menubar"
	case MenuItem:
		return "menuitem"
	case Tab:
		return "tab"
	case TabList:
		return "tablist"
	case List:
		return "list"
	case ListItem:
		return "listitem"
	case Table:
		return "table"
	case Row:
		return "row"
	case Cell:
		return "cell"
	case Tree:
		return "tree"
	case TreeItem:
		return "treeitem"
	case Button:
		return "button"
	case Link:
		return "link"
	case TextField:
		return "textfield"
	case TextArea:
		return "textarea"
	case SearchField:
		return "searchfield"
	case ComboBox:
		return "combobox"
	case Checkbox:
		return "checkbox"
	case Switch:
		return "switch"
	case RadioButton:
		return "radiobutton"
	case Slider:
		return "slider"
	case Stepper:
		return "stepper"
	case ProgressBar:
		return "progressbar"
	case ColorWell:
		return "colorwell"
	case StaticText:
		return "statictext"
	case Heading:
		return "heading"
	case Image:
		return "image"
	case Separator:
		return "separator"
	case GenericGroup:
		return "genericgroup"
	case GenericElement:
		return "genericelement"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}
