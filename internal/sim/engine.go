// Package sim executes a signal frame against a cash/shares ledger in a
// single deterministic forward pass.
package sim

import (
	"fmt"
	"math"

	"github.com/quantbench/stratbot/internal/domain"
)

const (
	defaultInitialCapital = 10000
	defaultCommissionRate = 0.001
)

// Engine holds the immutable run parameters. Each call to Run owns a fresh
// ledger, so one Engine may be shared across concurrent runs.
type Engine struct {
	initialCapital float64
	commissionRate float64
}

// NewEngine creates an Engine. Non-positive capital and negative commission
// fall back to the defaults (10000 and 0.001).
func NewEngine(initialCapital, commissionRate float64) *Engine {
	if initialCapital <= 0 {
		initialCapital = defaultInitialCapital
	}
	if commissionRate < 0 {
		commissionRate = defaultCommissionRate
	}
	return &Engine{initialCapital: initialCapital, commissionRate: commissionRate}
}

// Result is the immutable outcome of one simulation pass.
type Result struct {
	Equity domain.EquityCurve
	Trades []domain.Trade
	// Open is the position still held at series end, if any. By design it is
	// not force-liquidated; the equity curve marks it to market and the
	// closed-trade log excludes it.
	Open      *domain.OpenPosition
	FinalCash float64
}

// Run walks the frame bar by bar. Per bar, in order: mark holdings at the
// close into an equity point, then honor a buy signal if flat, then a sell
// signal if long. Signals that are not legal for the current state are
// ignored as no-ops. Input is validated up front; partial results are never
// returned.
func (e *Engine) Run(frame domain.SignalFrame) (Result, error) {
	if err := e.validate(frame); err != nil {
		return Result{}, err
	}

	n := frame.Series.Len()
	equity := make(domain.EquityCurve, 0, n)
	var trades []domain.Trade
	var open *domain.OpenPosition

	cash := e.initialCapital
	var shares int64

	for t := 0; t < n; t++ {
		bar := frame.Series.Bars[t]
		price := bar.Close

		equity = append(equity, domain.EquityPoint{
			Timestamp:      bar.Timestamp,
			Cash:           cash,
			SharesHeld:     shares,
			MarkPrice:      price,
			PortfolioValue: cash + float64(shares)*price,
		})

		switch {
		case frame.BuySignal[t] && shares == 0:
			// Integer shares affordable with commission included up front.
			qty := int64(math.Floor(cash / (price * (1 + e.commissionRate))))
			if qty < 1 {
				continue // cannot afford a single share; stay flat
			}
			cost := float64(qty) * price * (1 + e.commissionRate)
			cash -= cost
			shares = qty
			open = &domain.OpenPosition{
				EntryTime:  bar.Timestamp,
				EntryPrice: price,
				Shares:     qty,
				Cost:       cost,
			}

		case frame.SellSignal[t] && shares > 0:
			gross := float64(shares) * price
			proceeds := gross * (1 - e.commissionRate)
			exitCommission := gross * e.commissionRate
			entryCommission := open.Cost - float64(open.Shares)*open.EntryPrice

			trades = append(trades, domain.Trade{
				EntryTime:      open.EntryTime,
				EntryPrice:     open.EntryPrice,
				ExitTime:       bar.Timestamp,
				ExitPrice:      price,
				Shares:         open.Shares,
				CommissionPaid: entryCommission + exitCommission,
				RealizedPnL:    proceeds - open.Cost,
			})
			cash += proceeds
			shares = 0
			open = nil
		}
	}

	return Result{
		Equity:    equity,
		Trades:    trades,
		Open:      open,
		FinalCash: cash,
	}, nil
}

// InitialCapital returns the configured starting cash.
func (e *Engine) InitialCapital() float64 { return e.initialCapital }

func (e *Engine) validate(frame domain.SignalFrame) error {
	if err := frame.Series.Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	n := frame.Series.Len()
	if len(frame.BuySignal) != n || len(frame.SellSignal) != n {
		return fmt.Errorf("sim: signal columns length %d/%d do not match series length %d: %w",
			len(frame.BuySignal), len(frame.SellSignal), n, domain.ErrInvalidInput)
	}
	return nil
}
