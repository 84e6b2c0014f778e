package indicator

import "math"

// Bollinger computes the middle band (trailing SMA), and upper/lower bands at
// k sample standard deviations around it. Sample deviation (n-1 divisor) is
// used to keep numeric parity with the reference implementation. The first
// window-1 positions are NaN.
func Bollinger(close []float64, window int, k float64) (upper, middle, lower []float64) {
	n := len(close)
	upper = nanSlice(n)
	lower = nanSlice(n)
	middle = SMA(close, window)
	if window <= 1 || window > n {
		return upper, middle, lower
	}

	var sum, sumSq float64
	for i, v := range close {
		sum += v
		sumSq += v * v
		if i >= window {
			old := close[i-window]
			sum -= old
			sumSq -= old * old
		}
		if i < window-1 {
			continue
		}
		w := float64(window)
		mean := sum / w
		variance := (sumSq - w*mean*mean) / (w - 1)
		if variance < 0 {
			variance = 0 // guard against catastrophic cancellation
		}
		std := math.Sqrt(variance)
		upper[i] = middle[i] + k*std
		lower[i] = middle[i] - k*std
	}
	return upper, middle, lower
}
