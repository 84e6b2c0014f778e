// Package signal turns indicator state into per-bar buy/sell decisions under
// a single-position state machine. Decisions at bar t only read data at or
// before t; there is no lookahead.
package signal

import (
	"fmt"
	"log/slog"

	"github.com/quantbench/stratbot/internal/domain"
	"github.com/quantbench/stratbot/internal/indicator"
)

// Generator evaluates a strategy configuration against a price series.
type Generator struct {
	cfg    domain.StrategyConfig
	logger *slog.Logger
}

// NewGenerator creates a Generator for the given strategy configuration.
func NewGenerator(cfg domain.StrategyConfig, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "signal")),
	}
}

// BuildFrame computes every indicator column for the series. Warm-up
// positions are NaN.
func (g *Generator) BuildFrame(series domain.PriceSeries) domain.IndicatorFrame {
	closes := series.Closes()
	frame := domain.IndicatorFrame{Series: series}

	frame.RSI = indicator.RSI(closes, g.cfg.RSIPeriod)
	frame.MACD, frame.MACDSignal, frame.MACDHistogram =
		indicator.MACD(closes, g.cfg.MACDFast, g.cfg.MACDSlow, g.cfg.MACDSignal)
	frame.SMAFast = indicator.SMA(closes, g.cfg.MAFastWindow)
	frame.SMASlow = indicator.SMA(closes, g.cfg.MASlowWindow)
	frame.BBUpper, frame.BBMiddle, frame.BBLower =
		indicator.Bollinger(closes, g.cfg.BollWindow, g.cfg.BollStdDev)

	return frame
}

// Generate validates the inputs, builds the indicator frame, and walks the
// FLAT/LONG state machine over it. A short series simply produces no signals;
// it is not an error.
func (g *Generator) Generate(series domain.PriceSeries) (domain.SignalFrame, error) {
	if err := g.cfg.Validate(); err != nil {
		return domain.SignalFrame{}, fmt.Errorf("signal: %w", err)
	}
	if err := series.Validate(); err != nil {
		return domain.SignalFrame{}, fmt.Errorf("signal: %w", err)
	}

	frame := domain.SignalFrame{IndicatorFrame: g.BuildFrame(series)}
	n := series.Len()
	frame.BuySignal = make([]bool, n)
	frame.SellSignal = make([]bool, n)
	frame.Position = make([]domain.PositionState, n)

	state := domain.PositionFlat
	buys, sells := 0, 0
	// Start at 1: the MACD crossover rule needs a prior bar, and the state
	// machine starts FLAT on the first bar by definition.
	for t := 1; t < n; t++ {
		buy, sell := g.evaluate(frame.IndicatorFrame, t)

		switch {
		case state == domain.PositionFlat && buy:
			frame.BuySignal[t] = true
			state = domain.PositionLong
			buys++
		case state == domain.PositionLong && sell:
			frame.SellSignal[t] = true
			state = domain.PositionFlat
			sells++
		}
		frame.Position[t] = state
	}

	g.logger.Debug("signals generated",
		slog.String("symbol", series.Symbol),
		slog.Int("bars", n),
		slog.Int("buy_signals", buys),
		slog.Int("sell_signals", sells),
	)
	return frame, nil
}

// evaluate returns the combined buy and sell conditions at bar t. Undefined
// (warm-up) indicator values never satisfy a condition. Buy sub-conditions
// combine per CombineLogic; sell sub-conditions always combine with OR so a
// single bearish reading exits the position.
func (g *Generator) evaluate(f domain.IndicatorFrame, t int) (buy, sell bool) {
	closes := f.Series.Bars[t].Close

	var rsiBuy, rsiSell bool
	if g.cfg.UseRSI && indicator.Defined(f.RSI[t]) {
		rsiBuy = f.RSI[t] < g.cfg.RSIOversold
		rsiSell = f.RSI[t] > g.cfg.RSIOverbought
	}

	var macdBuy, macdSell bool
	if g.cfg.UseMACD && t >= 1 &&
		indicator.Defined(f.MACD[t]) && indicator.Defined(f.MACDSignal[t]) &&
		indicator.Defined(f.MACD[t-1]) && indicator.Defined(f.MACDSignal[t-1]) {
		macdBuy = f.MACD[t] > f.MACDSignal[t] && f.MACD[t-1] <= f.MACDSignal[t-1]
		macdSell = f.MACD[t] < f.MACDSignal[t] && f.MACD[t-1] >= f.MACDSignal[t-1]
	}

	var maBuy, maSell bool
	if g.cfg.UseMA && indicator.Defined(f.SMAFast[t]) {
		maBuy = closes > f.SMAFast[t]
		maSell = closes < f.SMAFast[t]
	}

	if g.cfg.CombineLogic == domain.CombineAND {
		// Disabled indicators are neutral for AND combination.
		buy = (!g.cfg.UseRSI || rsiBuy) &&
			(!g.cfg.UseMACD || macdBuy) &&
			(!g.cfg.UseMA || maBuy)
	} else {
		buy = rsiBuy || macdBuy || maBuy
	}
	sell = rsiSell || macdSell || maSell
	return buy, sell
}
