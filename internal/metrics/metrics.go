// Package metrics aggregates an equity curve and closed-trade log into a
// performance report. All functions are pure; rounding happens only when the
// final report is assembled.
package metrics

import (
	"math"

	"github.com/quantbench/stratbot/internal/domain"
)

// tradingDaysPerYear is the annualization factor for daily bars.
const tradingDaysPerYear = 252

// defaultAnnualRiskFree is the annual risk-free rate used for Sharpe when the
// caller does not configure one.
const defaultAnnualRiskFree = 0.02

// Calculator computes performance reports. The zero value is not usable;
// construct with NewCalculator.
type Calculator struct {
	annualRiskFree float64
}

// NewCalculator creates a Calculator with the given annual risk-free rate.
// A negative rate falls back to the 2% default.
func NewCalculator(annualRiskFree float64) Calculator {
	if annualRiskFree < 0 {
		annualRiskFree = defaultAnnualRiskFree
	}
	return Calculator{annualRiskFree: annualRiskFree}
}

// Report computes the full performance report from an equity curve and the
// closed trades. An empty curve yields a zero report.
func (c Calculator) Report(equity domain.EquityCurve, trades []domain.Trade) domain.PerformanceReport {
	var r domain.PerformanceReport
	if len(equity) == 0 {
		return r
	}

	returns := Returns(equity)
	totalReturn := equity[len(equity)-1].PortfolioValue/equity[0].PortfolioValue - 1
	vol := stdev(returns) * math.Sqrt(tradingDaysPerYear)
	sharpe := c.sharpe(returns)
	maxDD := MaxDrawdown(equity)

	wins, losses := 0, 0
	var pnlSum float64
	for _, t := range trades {
		pnlSum += t.RealizedPnL
		if t.RealizedPnL > 0 {
			wins++
		} else {
			losses++
		}
	}

	winRate := 0.0
	if wins+losses > 0 {
		winRate = float64(wins) / float64(wins+losses)
	}
	winLoss := 0.0
	switch {
	case wins+losses == 0:
		winLoss = 0
	case losses == 0:
		winLoss = math.Inf(1)
	default:
		winLoss = float64(wins) / float64(losses)
	}
	avgPnL := 0.0
	if len(trades) > 0 {
		avgPnL = pnlSum / float64(len(trades))
	}

	r.TotalReturnPct = round2(totalReturn * 100)
	r.SharpeRatio = round3(sharpe)
	r.MaxDrawdownPct = round2(maxDD * 100)
	r.VolatilityPct = round2(vol * 100)
	r.WinRatePct = round2(winRate * 100)
	r.WinLossRatio = round3(winLoss)
	r.TotalTrades = len(trades)
	r.AvgTradePnL = round2(avgPnL)
	r.FinalValue = round2(equity[len(equity)-1].PortfolioValue)
	return r
}

// Returns computes the periodic return series r[t] = v[t]/v[t-1] - 1. The
// result has one fewer element than the curve; it is empty for curves with
// fewer than two points.
func Returns(equity domain.EquityCurve) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for t := 1; t < len(equity); t++ {
		out = append(out, equity[t].PortfolioValue/equity[t-1].PortfolioValue-1)
	}
	return out
}

// MaxDrawdown returns the deepest decline from a running peak as a negative
// fraction (0 when the curve never declines).
func MaxDrawdown(equity domain.EquityCurve) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0].PortfolioValue
	worst := 0.0
	for _, p := range equity {
		if p.PortfolioValue > peak {
			peak = p.PortfolioValue
		}
		dd := (p.PortfolioValue - peak) / peak
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// sharpe is the annualized mean excess return over the return volatility,
// defined as 0 when the volatility is 0.
func (c Calculator) sharpe(returns []float64) float64 {
	sd := stdev(returns)
	if sd == 0 {
		return 0
	}
	rfDaily := c.annualRiskFree / tradingDaysPerYear
	var excess float64
	for _, r := range returns {
		excess += r - rfDaily
	}
	meanExcess := excess / float64(len(returns))
	return math.Sqrt(tradingDaysPerYear) * meanExcess / sd
}

// stdev is the sample standard deviation (n-1 divisor), 0 for fewer than two
// observations.
func stdev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1))
}

func round2(v float64) float64 { return roundTo(v, 100) }
func round3(v float64) float64 { return roundTo(v, 1000) }

func roundTo(v, scale float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.Round(v*scale) / scale
}
