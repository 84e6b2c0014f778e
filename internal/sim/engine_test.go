package sim_test

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/quantbench/stratbot/internal/domain"
	"github.com/quantbench/stratbot/internal/sim"
)

func mkFrame(closes []float64, buys, sells []int) domain.SignalFrame {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c, High: c, Low: c, Close: c,
			Volume: 1000,
		}
	}
	frame := domain.SignalFrame{
		IndicatorFrame: domain.IndicatorFrame{Series: domain.PriceSeries{Symbol: "TEST", Bars: bars}},
		BuySignal:      make([]bool, len(closes)),
		SellSignal:     make([]bool, len(closes)),
		Position:       make([]domain.PositionState, len(closes)),
	}
	for _, i := range buys {
		frame.BuySignal[i] = true
	}
	for _, i := range sells {
		frame.SellSignal[i] = true
	}
	return frame
}

func TestEquityCurveMatchesSeriesLength(t *testing.T) {
	engine := sim.NewEngine(10000, 0.001)
	frame := mkFrame([]float64{10, 11, 12, 11, 10}, []int{1}, []int{3})
	res, err := engine.Run(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Equity) != frame.Series.Len() {
		t.Fatalf("equity curve length %d != series length %d", len(res.Equity), frame.Series.Len())
	}
}

func TestRoundTripLedger(t *testing.T) {
	engine := sim.NewEngine(10000, 0.001)
	frame := mkFrame([]float64{100, 100, 120, 120}, []int{1}, []int{2})
	res, err := engine.Run(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// floor(10000 / (100*1.001)) = 99 shares, cost 9909.9.
	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 closed trade, got %d", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.Shares != 99 {
		t.Fatalf("expected 99 shares, got %d", tr.Shares)
	}
	cost := 99 * 100 * 1.001
	proceeds := 99 * 120 * 0.999
	if math.Abs(tr.RealizedPnL-(proceeds-cost)) > 1e-9 {
		t.Fatalf("pnl: got %v want %v", tr.RealizedPnL, proceeds-cost)
	}
	wantCommission := 99*100*0.001 + 99*120*0.001
	if math.Abs(tr.CommissionPaid-wantCommission) > 1e-9 {
		t.Fatalf("commission: got %v want %v", tr.CommissionPaid, wantCommission)
	}
	if math.Abs(res.FinalCash-(10000-cost+proceeds)) > 1e-9 {
		t.Fatalf("final cash: got %v want %v", res.FinalCash, 10000-cost+proceeds)
	}
	if res.Open != nil {
		t.Fatal("no position should remain open")
	}
}

func TestCashConservationAndNonNegativity(t *testing.T) {
	engine := sim.NewEngine(5000, 0.002)
	frame := mkFrame([]float64{50, 48, 52, 60, 55, 58, 61}, []int{1, 4}, []int{3, 6})
	res, err := engine.Run(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, p := range res.Equity {
		want := p.Cash + float64(p.SharesHeld)*p.MarkPrice
		if math.Abs(p.PortfolioValue-want) > 1e-9 {
			t.Fatalf("index %d: portfolio value %v != cash+shares*mark %v", i, p.PortfolioValue, want)
		}
		if p.Cash < 0 {
			t.Fatalf("index %d: cash went negative: %v", i, p.Cash)
		}
		if p.SharesHeld < 0 {
			t.Fatalf("index %d: shares went negative: %d", i, p.SharesHeld)
		}
	}
}

func TestIllegalSignalsAreNoOps(t *testing.T) {
	engine := sim.NewEngine(10000, 0.001)
	// Sell while flat, then double buy, then double sell.
	frame := mkFrame([]float64{10, 10, 10, 10, 10, 10}, []int{2, 3}, []int{1, 4, 5})
	res, err := engine.Run(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("expected exactly 1 round trip, got %d", len(res.Trades))
	}
	if res.Equity[3].SharesHeld == 0 {
		t.Fatal("position should be held between buy and sell")
	}
	if res.Open != nil {
		t.Fatal("second sell must be a no-op on a flat ledger")
	}
}

func TestInsufficientCashBuysNothing(t *testing.T) {
	engine := sim.NewEngine(50, 0.001)
	frame := mkFrame([]float64{100, 100, 100}, []int{1}, nil)
	res, err := engine.Run(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 0 || res.Open != nil {
		t.Fatal("no trade should occur when cash cannot cover one share")
	}
	for i, p := range res.Equity {
		if p.SharesHeld != 0 || math.Abs(p.PortfolioValue-50) > 1e-9 {
			t.Fatalf("index %d: portfolio should stay flat at initial cash", i)
		}
	}
}

func TestOpenPositionNotForceLiquidated(t *testing.T) {
	engine := sim.NewEngine(10000, 0.001)
	frame := mkFrame([]float64{100, 100, 110}, []int{1}, nil)
	res, err := engine.Run(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Fatal("an open position must not appear in the closed-trade log")
	}
	if res.Open == nil {
		t.Fatal("position entered at bar 1 should still be open at series end")
	}
	last := res.Equity[len(res.Equity)-1]
	if last.SharesHeld != res.Open.Shares {
		t.Fatalf("last equity point should mark the open position: %d != %d", last.SharesHeld, res.Open.Shares)
	}
}

func TestMarkHappensBeforeTrade(t *testing.T) {
	engine := sim.NewEngine(10000, 0.001)
	frame := mkFrame([]float64{100, 100, 120}, []int{1}, nil)
	res, err := engine.Run(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The equity point at the buy bar reflects pre-trade holdings.
	if res.Equity[1].SharesHeld != 0 || math.Abs(res.Equity[1].Cash-10000) > 1e-9 {
		t.Fatal("equity point at the buy bar must be marked before the trade executes")
	}
	if res.Equity[2].SharesHeld == 0 {
		t.Fatal("equity point after the buy bar must carry the position")
	}
}

func TestDeterminism(t *testing.T) {
	engine := sim.NewEngine(10000, 0.001)
	frame := mkFrame([]float64{50, 48, 52, 60, 55, 58, 61, 59, 63}, []int{1, 5}, []int{4, 8})
	a, err := engine.Run(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := engine.Run(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs must produce bit-identical results")
	}
}

func TestRejectsMalformedInput(t *testing.T) {
	engine := sim.NewEngine(10000, 0.001)

	empty := domain.SignalFrame{IndicatorFrame: domain.IndicatorFrame{Series: domain.PriceSeries{Symbol: "TEST"}}}
	if _, err := engine.Run(empty); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty series: expected ErrInvalidInput, got %v", err)
	}

	frame := mkFrame([]float64{10, 11, 12}, nil, nil)
	frame.Series.Bars[2].Timestamp = frame.Series.Bars[0].Timestamp
	if _, err := engine.Run(frame); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("non-monotonic timestamps: expected ErrInvalidInput, got %v", err)
	}

	frame = mkFrame([]float64{10, 11, 12}, nil, nil)
	frame.Series.Bars[1].Close = -5
	if _, err := engine.Run(frame); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("non-positive price: expected ErrInvalidInput, got %v", err)
	}

	frame = mkFrame([]float64{10, 11, 12}, nil, nil)
	frame.BuySignal = frame.BuySignal[:1]
	if _, err := engine.Run(frame); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("mismatched signal columns: expected ErrInvalidInput, got %v", err)
	}
}
