package indicator

// SMA computes the trailing simple moving average with the given window.
// The first window-1 positions are NaN.
func SMA(close []float64, window int) []float64 {
	out := nanSlice(len(close))
	if window <= 0 || window > len(close) {
		return out
	}
	var sum float64
	for i, v := range close {
		sum += v
		if i >= window {
			sum -= close[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}
