// Package normalize scales numeric samples to [0,1] relative to the batch
// they come from.
//
// Column is the step applied to every scoring pillar: winsorize the sample at
// the 5th/95th percentiles, then min-max scale it.
package normalize

import "sort"

// Default winsorizing percentiles.
const (
	DefaultLow  = 0.05
	DefaultHigh = 0.95
)

// Winsorize clamps each value into [sorted[floor(low*n)], sorted[floor(high*n)]].
// Output order matches input order. Empty input returns an empty slice.
func Winsorize(values []float64, low, high float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	lo := sorted[percentileIndex(low, len(sorted))]
	hi := sorted[percentileIndex(high, len(sorted))]

	for i, v := range values {
		switch {
		case v < lo:
			out[i] = lo
		case v > hi:
			out[i] = hi
		default:
			out[i] = v
		}
	}
	return out
}

// WinsorizeDefault winsorizes at the 5th and 95th percentiles.
func WinsorizeDefault(values []float64) []float64 {
	return Winsorize(values, DefaultLow, DefaultHigh)
}

func percentileIndex(p float64, n int) int {
	idx := int(p * float64(n))
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

// MinMax maps each value to (v-min)/(max-min), or 1 minus that when invert
// is set. A constant sample maps every value to exactly 0.5.
func MinMax(values []float64, invert bool) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	if hi == lo {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}

	span := hi - lo
	for i, v := range values {
		x := (v - lo) / span
		if invert {
			x = 1 - x
		}
		out[i] = x
	}
	return out
}

// Column winsorizes then min-max scales one pillar's raw values.
func Column(values []float64, invert bool) []float64 {
	return MinMax(WinsorizeDefault(values), invert)
}
