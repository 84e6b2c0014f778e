package indicator

// EMA computes the exponential moving average with alpha = 2/(span+1),
// seeded with the first observation rather than a simple-average warm-up.
// The seeding convention changes the first ~span outputs and is part of the
// engine's numeric contract; every value from index 0 is defined.
func EMA(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	prev := values[0]
	out[0] = prev
	for i := 1; i < len(values); i++ {
		prev = prev*(1-alpha) + values[i]*alpha
		out[i] = prev
	}
	return out
}
