package indicator

// MACD computes the MACD line (fast EMA minus slow EMA), its signal line
// (EMA of the MACD line with the signal span), and the histogram (line minus
// signal). Because the EMAs are seeded with the first observation, all three
// outputs are defined from index 0; crossover checks therefore only need one
// prior bar.
func MACD(close []float64, fast, slow, signal int) (line, sig, hist []float64) {
	n := len(close)
	line = nanSlice(n)
	sig = nanSlice(n)
	hist = nanSlice(n)
	if fast <= 0 || slow <= 0 || signal <= 0 || n == 0 {
		return line, sig, hist
	}

	emaFast := EMA(close, fast)
	emaSlow := EMA(close, slow)
	for i := 0; i < n; i++ {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig = EMA(line, signal)
	for i := 0; i < n; i++ {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}
