package validation

import "time"

// Interval is a half-open range [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two intervals collide: they are equal, or a start
// or an end of one lies strictly inside the other.
func Overlaps(a, b Interval) bool {
	if a.Start.Equal(b.Start) && a.End.Equal(b.End) {
		return true
	}
	return strictlyInside(b.Start, a) ||
		strictlyInside(a.Start, b) ||
		strictlyInside(b.End, a) ||
		strictlyInside(a.End, b)
}

func strictlyInside(t time.Time, in Interval) bool {
	return t.After(in.Start) && t.Before(in.End)
}

// datesIntersect reports whether the inclusive date ranges share a day
func datesIntersect(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}
