package types

import (
	"encoding/json"
	"fmt"

	"github.com/watchcask/allio/pkg/allio/role"
)

// ValueType re-exports role.ValueType so callers of the types package don't
// need a second import for it.
type ValueType = role.ValueType

const (
	ValueTypeNone    = role.ValueTypeNone
	ValueTypeString  = role.ValueTypeString
	ValueTypeNumber  = role.ValueTypeNumber
	ValueTypeBoolean = role.ValueTypeBoolean
	ValueTypeColor   = role.ValueTypeColor
)

// Color is an RGBA color with components in [0.0, 1.0].
type Color struct {
	R float64
	G float64
	B float64
	A float64
}

// RGB builds an opaque Color (A = 1.0).
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1.0}
}

// Value is a tagged union over the value kinds an element can carry.
// Exactly one of the accessor methods below matches the value held; the
// zero Value has Kind ValueTypeNone.
type Value struct {
	Kind    ValueType
	str     string
	num     float64
	boolean bool
	color   Color
}

// StringValue builds a string Value.
func StringValue(s string) Value { return Value{Kind: ValueTypeString, str: s} }

// NumberValue builds a numeric Value. Integers are stored as whole float64s.
func NumberValue(n float64) Value { return Value{Kind: ValueTypeNumber, num: n} }

// BooleanValue builds a boolean Value.
func BooleanValue(b bool) Value { return Value{Kind: ValueTypeBoolean, boolean: b} }

// ColorValue builds a color Value.
func ColorValue(c Color) Value { return Value{Kind: ValueTypeColor, color: c} }

// AsString returns the string payload and whether Kind is ValueTypeString.
func (v Value) AsString() (string, bool) {
	return v.str, v.Kind == ValueTypeString
}

// AsFloat64 returns the numeric payload and whether Kind is ValueTypeNumber.
func (v Value) AsFloat64() (float64, bool) {
	return v.num, v.Kind == ValueTypeNumber
}

// AsInt64 returns the numeric payload truncated to int64, and whether Kind
// is ValueTypeNumber.
func (v Value) AsInt64() (int64, bool) {
	return int64(v.num), v.Kind == ValueTypeNumber
}

// AsBool returns the boolean payload and whether Kind is ValueTypeBoolean.
func (v Value) AsBool() (bool, bool) {
	return v.boolean, v.Kind == ValueTypeBoolean
}

// AsColor returns the color payload and whether Kind is ValueTypeColor.
func (v Value) AsColor() (Color, bool) {
	return v.color, v.Kind == ValueTypeColor
}

// wireValue is the JSON shape for a Value: kind plus whichever field
// matches it, the rest omitted.
type wireValue struct {
	Kind    string   `json:"kind"`
	String  *string  `json:"string,omitempty"`
	Number  *float64 `json:"number,omitempty"`
	Boolean *bool    `json:"boolean,omitempty"`
	Color   *Color   `json:"color,omitempty"`
}

// MarshalJSON encodes Value as {"kind": "...", <kind>: <payload>}.
func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Kind: v.Kind.String()}
	switch v.Kind {
	case ValueTypeString:
		w.String = &v.str
	case ValueTypeNumber:
		w.Number = &v.num
	case ValueTypeBoolean:
		w.Boolean = &v.boolean
	case ValueTypeColor:
		w.Color = &v.color
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the {"kind": "...", <kind>: <payload>} shape
// MarshalJSON produces.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "string":
		if w.String == nil {
			return fmt.Errorf("types: value kind %q missing string payload", w.Kind)
		}
		*v = StringValue(*w.String)
	case "number":
		if w.Number == nil {
			return fmt.Errorf("types: value kind %q missing number payload", w.Kind)
		}
		*v = NumberValue(*w.Number)
	case "boolean":
		if w.Boolean == nil {
			return fmt.Errorf("types: value kind %q missing boolean payload", w.Kind)
		}
		*v = BooleanValue(*w.Boolean)
	case "color":
		if w.Color == nil {
			return fmt.Errorf("types: value kind %q missing color payload", w.Kind)
		}
		*v = ColorValue(*w.Color)
	case "none", "":
		*v = Value{}
	default:
		return fmt.Errorf("types: unknown value kind %q", w.Kind)
	}
	return nil
}

// String renders the value for display: integers without a decimal point,
// colors as CSS rgba(), booleans as true/false.
func (v Value) String() string {
	switch v.Kind {
	case ValueTypeString:
		return v.str
	case ValueTypeNumber:
		if v.num == float64(int64(v.num)) {
			return fmt.Sprintf("%d", int64(v.num))
		}
		return fmt.Sprintf("%g", v.num)
	case ValueTypeBoolean:
		return fmt.Sprintf("%t", v.boolean)
	case ValueTypeColor:
		c := v.color
		return fmt.Sprintf("rgba(%d, %d, %d, %g)",
			int(c.R*255+0.5), int(c.G*255+0.5), int(c.B*255+0.5), c.A)
	default:
		return ""
	}
}
