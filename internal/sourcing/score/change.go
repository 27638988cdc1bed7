package score

import "math"

// MaxChange is the finite value reported for an unbounded change.
const MaxChange = 1e6

// Change is a relative month-over-month movement.
type Change struct {
	Ratio     float64
	Unbounded bool // previous was 0 and current was not
}

// MonthOverMonth returns (current-previous)/previous. Zero to zero is no
// change; zero to nonzero is Unbounded.
func MonthOverMonth(current, previous float64) Change {
	if previous == 0 {
		if current == 0 {
			return Change{}
		}
		return Change{Unbounded: true}
	}
	return Change{Ratio: (current - previous) / previous}
}

// Value returns the ratio, or MaxChange when unbounded.
func (c Change) Value() float64 {
	if c.Unbounded {
		return MaxChange
	}
	return c.Ratio
}

// Exceeds reports whether the change is above limit. Unbounded always exceeds.
func (c Change) Exceeds(limit float64) bool {
	return c.Unbounded || c.Ratio > limit
}

// finite replaces NaN and infinities with 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	v = finite(v)
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// fraction reads a percent-like field that may be either 0-1 or 0-100.
func fraction(v float64) float64 {
	v = finite(v)
	if v > 1 {
		v /= 100
	}
	return clamp01(v)
}
