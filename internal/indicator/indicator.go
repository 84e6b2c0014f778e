// Package indicator provides pure technical-indicator functions over close
// price slices. Every function returns slices with the same length as its
// input; positions inside the warm-up window hold NaN, never a fabricated
// value. The functions perform no I/O and keep no state.
package indicator

import "math"

// Defined reports whether an indicator value is past its warm-up window.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
