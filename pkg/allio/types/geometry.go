package types

// Point is a screen coordinate in the platform's native units.
type Point struct {
	X float64
	Y float64
}

// Bounds is an axis-aligned rectangle, origin at the top-left.
type Bounds struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains reports whether p falls within b, inclusive of the edges.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.Width && p.Y >= b.Y && p.Y <= b.Y+b.Height
}

// Empty reports whether b has zero (or negative) area.
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Matches reports whether b and other agree within margin on every field.
func (b Bounds) Matches(other Bounds, margin float64) bool {
	return absFloat64(b.X-other.X) <= margin &&
		absFloat64(b.Y-other.Y) <= margin &&
		absFloat64(b.Width-other.Width) <= margin &&
		absFloat64(b.Height-other.Height) <= margin
}

// MovedFrom reports whether p differs from other by at least threshold on
// either axis.
func (p Point) MovedFrom(other Point, threshold float64) bool {
	return absFloat64(p.X-other.X) >= threshold || absFloat64(p.Y-other.Y) >= threshold
}

func absFloat64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
