package indicator

// RSI computes the Relative Strength Index over a trailing window of price
// deltas: average clipped gain divided by average clipped loss, mapped to
// 0-100 via 100 - 100/(1+rs). Values are defined from index period onward
// (the first delta only exists at index 1).
//
// Edge cases: zero average loss with positive gains reads 100; a window with
// neither gains nor losses (flat prices) reads the neutral 50.
func RSI(close []float64, period int) []float64 {
	out := nanSlice(len(close))
	if period <= 0 || len(close) < period+1 {
		return out
	}

	gains := make([]float64, len(close))
	losses := make([]float64, len(close))
	for i := 1; i < len(close); i++ {
		delta := close[i] - close[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(close); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}
