// Package recency specifies how up-to-date a value must be when read,
// making staleness an explicit part of allio's read API rather than hiding
// it behind get/fetch naming conventions.
package recency

import "time"

// Recency is how fresh a cached value must be before a read is satisfied
// from the cache, versus requiring a platform fetch.
//
//	core.Get(id, recency.Any)              // cache, might be stale
//	core.Get(id, recency.Current)          // always hits the platform
//	core.Get(id, recency.MaxAgeMS(100))    // fetch if older than 100ms
type Recency struct {
	kind   kind
	maxAge time.Duration
}

type kind int

const (
	kindAny kind = iota
	kindCurrent
	kindMaxAge
)

// Any accepts a cached value of any age. No platform calls.
var Any = Recency{kind: kindAny}

// Current always requires a platform fetch; the cache is never trusted.
var Current = Recency{kind: kindCurrent}

// MaxAge accepts a cached value only if it is no older than d.
func MaxAge(d time.Duration) Recency {
	return Recency{kind: kindMaxAge, maxAge: d}
}

// MaxAgeMS is a convenience constructor for MaxAge in milliseconds.
func MaxAgeMS(ms int) Recency {
	return MaxAge(time.Duration(ms) * time.Millisecond)
}

// MaxAgeSec is a convenience constructor for MaxAge in seconds.
func MaxAgeSec(s int) Recency {
	return MaxAge(time.Duration(s) * time.Second)
}

// IsSatisfiedBy reports whether a cached value with the given age meets
// this recency requirement.
func (r Recency) IsSatisfiedBy(age time.Duration) bool {
	switch r.kind {
	case kindAny:
		return true
	case kindCurrent:
		return false
	case kindMaxAge:
		return age <= r.maxAge
	default:
		return false
	}
}

// RequiresFetch reports whether this recency level always requires a
// platform call, regardless of cache age.
func (r Recency) RequiresFetch() bool {
	return r.kind == kindCurrent
}

// MightRequireFetch reports whether this recency level could require a
// platform call, depending on cache age.
func (r Recency) MightRequireFetch() bool {
	return r.kind != kindAny
}

// String renders the recency for logging.
func (r Recency) String() string {
	switch r.kind {
	case kindAny:
		return "Any"
	case kindCurrent:
		return "Current"
	case kindMaxAge:
		return "MaxAge(" + r.maxAge.String() + ")"
	default:
		return "Recency(?)"
	}
}
