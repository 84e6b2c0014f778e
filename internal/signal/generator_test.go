package signal_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/quantbench/stratbot/internal/domain"
	"github.com/quantbench/stratbot/internal/signal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mkSeries(closes ...float64) domain.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c, High: c, Low: c, Close: c,
			Volume: 1000,
		}
	}
	return domain.PriceSeries{Symbol: "TEST", Bars: bars}
}

// vShape is flat, then falls sharply, then recovers past the old high. A
// 3-period RSI reads below 30 on the fall and above 70 on the recovery.
func vShape() domain.PriceSeries {
	closes := []float64{100, 100, 100, 100, 96, 92, 88, 92, 96, 100, 104, 108, 112}
	return mkSeries(closes...)
}

func rsiOnlyConfig() domain.StrategyConfig {
	cfg := domain.DefaultStrategyConfig()
	cfg.RSIPeriod = 3
	cfg.UseRSI = true
	cfg.UseMACD = false
	cfg.CombineLogic = domain.CombineOR
	return cfg
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	cfg := domain.DefaultStrategyConfig()
	cfg.RSIOversold = 80
	cfg.RSIOverbought = 20
	g := signal.NewGenerator(cfg, testLogger())
	if _, err := g.Generate(vShape()); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerateRejectsEmptySeries(t *testing.T) {
	g := signal.NewGenerator(domain.DefaultStrategyConfig(), testLogger())
	if _, err := g.Generate(domain.PriceSeries{Symbol: "TEST"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestShortSeriesYieldsNoSignals(t *testing.T) {
	// Far shorter than any warm-up window: signals degrade to none, no error.
	g := signal.NewGenerator(domain.DefaultStrategyConfig(), testLogger())
	frame, err := g.Generate(mkSeries(100, 101, 102))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range frame.BuySignal {
		if frame.BuySignal[i] || frame.SellSignal[i] {
			t.Fatalf("index %d: signal fired during warm-up", i)
		}
		if frame.Position[i] != domain.PositionFlat {
			t.Fatalf("index %d: expected FLAT during warm-up", i)
		}
	}
}

func TestSingleRoundTripOnVShape(t *testing.T) {
	g := signal.NewGenerator(rsiOnlyConfig(), testLogger())
	frame, err := g.Generate(vShape())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buys, sells := 0, 0
	buyIdx, sellIdx := -1, -1
	for i := range frame.BuySignal {
		if frame.BuySignal[i] {
			buys++
			buyIdx = i
		}
		if frame.SellSignal[i] {
			sells++
			sellIdx = i
		}
	}
	if buys != 1 || sells != 1 {
		t.Fatalf("expected exactly one buy and one sell, got %d/%d", buys, sells)
	}
	if buyIdx >= sellIdx {
		t.Fatalf("buy at %d must precede sell at %d", buyIdx, sellIdx)
	}
	if frame.Series.Bars[sellIdx].Close <= frame.Series.Bars[buyIdx].Close {
		t.Fatalf("sell price %v should exceed buy price %v on the recovery",
			frame.Series.Bars[sellIdx].Close, frame.Series.Bars[buyIdx].Close)
	}
}

func TestPositionStateMachineInvariants(t *testing.T) {
	g := signal.NewGenerator(rsiOnlyConfig(), testLogger())
	frame, err := g.Generate(vShape())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prev := domain.PositionFlat
	for i := range frame.Position {
		if frame.BuySignal[i] && prev != domain.PositionFlat {
			t.Fatalf("index %d: buy fired while not FLAT", i)
		}
		if frame.SellSignal[i] && prev != domain.PositionLong {
			t.Fatalf("index %d: sell fired while not LONG", i)
		}
		if frame.BuySignal[i] && frame.Position[i] != domain.PositionLong {
			t.Fatalf("index %d: buy must transition to LONG", i)
		}
		if frame.SellSignal[i] && frame.Position[i] != domain.PositionFlat {
			t.Fatalf("index %d: sell must transition to FLAT", i)
		}
		if !frame.BuySignal[i] && !frame.SellSignal[i] && i > 0 && frame.Position[i] != prev {
			t.Fatalf("index %d: state changed without a signal", i)
		}
		prev = frame.Position[i]
	}
}

func TestANDRequiresAllEnabledConditions(t *testing.T) {
	// A monotonic decline drives RSI oversold but never produces a MACD
	// cross above: AND yields zero buys, OR buys on RSI alone.
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 200 - float64(i)*3
	}
	series := mkSeries(closes...)

	cfg := domain.DefaultStrategyConfig()
	cfg.RSIPeriod = 3
	cfg.UseRSI = true
	cfg.UseMACD = true

	cfg.CombineLogic = domain.CombineAND
	andFrame, err := signal.NewGenerator(cfg, testLogger()).Generate(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range andFrame.BuySignal {
		if andFrame.BuySignal[i] {
			t.Fatalf("index %d: AND fired a buy without a MACD crossover", i)
		}
	}

	cfg.CombineLogic = domain.CombineOR
	orFrame, err := signal.NewGenerator(cfg, testLogger()).Generate(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orBuys := 0
	for i := range orFrame.BuySignal {
		if orFrame.BuySignal[i] {
			orBuys++
		}
	}
	if orBuys == 0 {
		t.Fatal("OR should fire on the RSI sub-condition alone")
	}
}

func TestSellCombinationIsAlwaysOR(t *testing.T) {
	// AND buy logic with RSI+MACD enabled. A small up-tick inside a deep
	// decline produces a MACD cross above while RSI is still oversold, so the
	// entry satisfies both. The exit must then fire on RSI overbought alone,
	// with no MACD crossunder anywhere on the rally.
	cfg := domain.DefaultStrategyConfig()
	cfg.RSIPeriod = 3
	cfg.MACDFast = 2
	cfg.MACDSlow = 4
	cfg.MACDSignal = 2
	cfg.CombineLogic = domain.CombineAND

	closes := []float64{100, 94, 88, 82, 76, 77, 83, 89, 95, 101}
	frame, err := signal.NewGenerator(cfg, testLogger()).Generate(mkSeries(closes...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entered, sells := false, 0
	for i := range frame.Position {
		if frame.Position[i] == domain.PositionLong {
			entered = true
		}
		if frame.SellSignal[i] {
			sells++
			// The rally never crosses the MACD line back under its signal.
			if frame.MACD[i] < frame.MACDSignal[i] && frame.MACD[i-1] >= frame.MACDSignal[i-1] {
				t.Fatalf("index %d: exit coincided with a crossunder; fixture is not isolating RSI", i)
			}
		}
	}
	if !entered {
		t.Fatal("fixture must produce an entry")
	}
	if sells == 0 {
		t.Fatal("sell must fire on a single bearish sub-condition even under AND buy logic")
	}
}

func TestDisabledIndicatorsDegradeToRemainingRules(t *testing.T) {
	cfg := domain.DefaultStrategyConfig()
	cfg.UseRSI = false
	cfg.UseMACD = false
	cfg.UseMA = true
	cfg.MAFastWindow = 3
	cfg.CombineLogic = domain.CombineAND

	// Close crossing above its 3-bar SMA fires the MA rule alone.
	closes := []float64{100, 98, 96, 94, 92, 100, 108, 116, 110, 100, 90, 80}
	frame, err := signal.NewGenerator(cfg, testLogger()).Generate(mkSeries(closes...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buys := 0
	for i := range frame.BuySignal {
		if frame.BuySignal[i] {
			buys++
		}
	}
	if buys == 0 {
		t.Fatal("MA-only AND config should still fire on the MA rule")
	}
}
