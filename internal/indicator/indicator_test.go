package indicator_test

import (
	"math"
	"testing"

	"github.com/quantbench/stratbot/internal/indicator"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMAValues(t *testing.T) {
	closes := []float64{11, 12, 13, 14, 20, 16}
	got := indicator.SMA(closes, 3)
	want := []float64{math.NaN(), math.NaN(), 12, 13, 47.0 / 3, 50.0 / 3}
	for i := range closes {
		if i < 2 {
			if indicator.Defined(got[i]) {
				t.Fatalf("index %d: expected NaN during warm-up, got %v", i, got[i])
			}
			continue
		}
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestSMAWindowLargerThanInput(t *testing.T) {
	got := indicator.SMA([]float64{1, 2}, 5)
	for i, v := range got {
		if indicator.Defined(v) {
			t.Fatalf("index %d: expected NaN, got %v", i, v)
		}
	}
}

func TestEMASeededByFirstValue(t *testing.T) {
	// span 3 -> alpha 0.5
	got := indicator.EMA([]float64{1, 2, 3}, 3)
	want := []float64{1, 1.5, 2.25}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestRSIWarmup(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 15}
	got := indicator.RSI(closes, 3)
	for i := 0; i < 3; i++ {
		if indicator.Defined(got[i]) {
			t.Fatalf("index %d: expected NaN during warm-up, got %v", i, got[i])
		}
	}
	for i := 3; i < len(closes); i++ {
		if !indicator.Defined(got[i]) {
			t.Fatalf("index %d: expected defined value", i)
		}
	}
}

func TestRSIAllGainsReadsHundred(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14}
	got := indicator.RSI(closes, 3)
	if !almostEqual(got[4], 100) {
		t.Fatalf("monotonic rise: got %v want 100", got[4])
	}
}

func TestRSIFlatSeriesReadsNeutral(t *testing.T) {
	closes := []float64{50, 50, 50, 50, 50, 50}
	got := indicator.RSI(closes, 3)
	for i := 3; i < len(closes); i++ {
		if !almostEqual(got[i], 50) {
			t.Fatalf("index %d: flat series RSI got %v want 50", i, got[i])
		}
	}
}

func TestRSIKnownValue(t *testing.T) {
	// deltas: +1, -0.5, +1; window 2 at index 2: avgGain 0.5, avgLoss 0.25.
	closes := []float64{10, 11, 10.5, 11.5}
	got := indicator.RSI(closes, 2)
	want := 100 - 100/(1+2.0)
	if !almostEqual(got[2], want) {
		t.Fatalf("index 2: got %v want %v", got[2], want)
	}
}

func TestMACDFlatSeriesConvergesToZero(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	line, sig, hist := indicator.MACD(closes, 12, 26, 9)
	for i := range closes {
		if !almostEqual(line[i], 0) || !almostEqual(sig[i], 0) || !almostEqual(hist[i], 0) {
			t.Fatalf("index %d: flat series MACD got line=%v sig=%v hist=%v", i, line[i], sig[i], hist[i])
		}
	}
}

func TestMACDDefinedFromStart(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10}
	line, sig, hist := indicator.MACD(closes, 2, 4, 3)
	for i := range closes {
		if !indicator.Defined(line[i]) || !indicator.Defined(sig[i]) || !indicator.Defined(hist[i]) {
			t.Fatalf("index %d: seeded EMA should define MACD from index 0", i)
		}
	}
	if !almostEqual(line[0], 0) {
		t.Fatalf("index 0: MACD line should start at 0, got %v", line[0])
	}
}

func TestBollingerKnownValues(t *testing.T) {
	closes := []float64{1, 2, 3, 4}
	upper, middle, lower := indicator.Bollinger(closes, 3, 2)

	if indicator.Defined(upper[1]) || indicator.Defined(middle[1]) || indicator.Defined(lower[1]) {
		t.Fatal("index 1: expected NaN during warm-up")
	}
	// window {1,2,3}: mean 2, sample std 1.
	if !almostEqual(middle[2], 2) || !almostEqual(upper[2], 4) || !almostEqual(lower[2], 0) {
		t.Fatalf("index 2: got upper=%v middle=%v lower=%v", upper[2], middle[2], lower[2])
	}
	// window {2,3,4}: mean 3, sample std 1.
	if !almostEqual(middle[3], 3) || !almostEqual(upper[3], 5) || !almostEqual(lower[3], 1) {
		t.Fatalf("index 3: got upper=%v middle=%v lower=%v", upper[3], middle[3], lower[3])
	}
}

func TestIndicatorsDoNotLookAhead(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 15, 16, 17}
	fullSMA := indicator.SMA(closes, 3)
	fullRSI := indicator.RSI(closes, 3)

	// Truncating the future must not change past values.
	cut := closes[:5]
	cutSMA := indicator.SMA(cut, 3)
	cutRSI := indicator.RSI(cut, 3)
	for i := range cut {
		if indicator.Defined(fullSMA[i]) != indicator.Defined(cutSMA[i]) ||
			(indicator.Defined(fullSMA[i]) && !almostEqual(fullSMA[i], cutSMA[i])) {
			t.Fatalf("sma index %d changed when future bars were removed", i)
		}
		if indicator.Defined(fullRSI[i]) != indicator.Defined(cutRSI[i]) ||
			(indicator.Defined(fullRSI[i]) && !almostEqual(fullRSI[i], cutRSI[i])) {
			t.Fatalf("rsi index %d changed when future bars were removed", i)
		}
	}
}
