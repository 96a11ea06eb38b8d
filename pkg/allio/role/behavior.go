package role

// ValueType returns the expected value type for elements with this role.
//
//	ValueType(TextField) == ValueTypeString
//	ValueType(Checkbox)  == ValueTypeBoolean
//	ValueType(Slider)    == ValueTypeNumber
//	ValueType(Button)    == ValueTypeNone
func (r Role) ValueType() ValueType {
	switch r {
	case TextField, TextArea, SearchField, ComboBox:
		return ValueTypeString
	case Checkbox, Switch, RadioButton:
		return ValueTypeBoolean
	case Slider, ProgressBar, Stepper:
		return ValueTypeNumber
	case ColorWell:
		return ValueTypeColor
	default:
		return ValueTypeNone
	}
}

// ExpectsInteger reports whether a role's numeric value should be treated
// as a whole number (Stepper) rather than continuous (Slider, ProgressBar).
func (r Role) ExpectsInteger() bool {
	return r == Stepper
}

// IsWritable reports whether values can be written to elements with this
// role, i.e. whether it has any value type at all.
func (r Role) IsWritable() bool {
	return r.ValueType() != ValueTypeNone
}

// AutoWatchOnFocus reports whether elements with this role should be
// watched for value changes automatically while focused — true for text
// inputs, where callers typically want to track typing in real time.
func (r Role) AutoWatchOnFocus() bool {
	return r.ValueType() == ValueTypeString
}

// IsFocusable reports whether elements with this role can typically
// receive keyboard focus.
func (r Role) IsFocusable() bool {
	switch r {
	case Application, Window, Document,
		Button, Link, MenuItem,
		TextField, TextArea, SearchField, ComboBox,
		Checkbox, Switch, RadioButton,
		Slider, Stepper, ColorWell,
		Tab,
		List, Table, Tree:
		return true
	default:
		return false
	}
}

// IsContainer reports whether elements with this role typically contain
// other elements.
func (r Role) IsContainer() bool {
	switch r {
	case Application, Window, Document, Group, ScrollArea, Toolbar,
		Menu, MenuBar, TabList, List, Table, Tree, Row,
		GenericGroup, GenericElement:
		return true
	default:
		return false
	}
}

// IsGeneric reports whether this is a generic/placeholder role that may be
// pruned from simplified tree views.
func (r Role) IsGeneric() bool {
	switch r {
	case GenericGroup, GenericElement, Unknown:
		return true
	default:
		return false
	}
}

// IsInteractive reports whether elements with this role can be clicked or
// activated by the user.
func (r Role) IsInteractive() bool {
	switch r {
	case Button, Link, MenuItem, Tab,
		TextField, TextArea, SearchField, ComboBox,
		Checkbox, Switch, RadioButton,
		Slider, Stepper, ColorWell,
		ListItem, TreeItem, Cell:
		return true
	default:
		return false
	}
}

// IsTextInput reports whether this role is a text input element.
func (r Role) IsTextInput() bool {
	switch r {
	case TextField, TextArea, SearchField, ComboBox:
		return true
	default:
		return false
	}
}

// CanHaveValue reports whether elements with this role can carry a
// meaningful value attribute, including read-only values like ProgressBar
// (which has a value but is not directly writable in the same sense as the
// writable roles — see IsWritable).
func (r Role) CanHaveValue() bool {
	switch r {
	case TextField, TextArea, SearchField, ComboBox,
		Checkbox, Switch, RadioButton,
		Slider, Stepper, ProgressBar, ColorWell:
		return true
	default:
		return false
	}
}
