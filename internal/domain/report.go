package domain

import (
	"encoding/json"
	"math"
)

// PerformanceReport is the read-only metrics snapshot for a completed run.
// Percentages and currency amounts are rounded to 2 decimal places, ratios to
// 3; rounding happens only when the report is built, never inside the
// intermediate math. WinLossRatio is +Inf when there are wins and no losses.
type PerformanceReport struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	VolatilityPct  float64 `json:"volatility_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	WinLossRatio   float64 `json:"win_loss_ratio"`
	TotalTrades    int     `json:"total_trades"`
	AvgTradePnL    float64 `json:"avg_trade_pnl"`
	FinalValue     float64 `json:"final_value"`
}

// reportJSON mirrors PerformanceReport with the win/loss ratio widened so the
// +Inf sentinel survives JSON, which has no encoding for infinity.
type reportJSON struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	VolatilityPct  float64 `json:"volatility_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	WinLossRatio   any     `json:"win_loss_ratio"`
	TotalTrades    int     `json:"total_trades"`
	AvgTradePnL    float64 `json:"avg_trade_pnl"`
	FinalValue     float64 `json:"final_value"`
}

// MarshalJSON encodes an infinite win/loss ratio as the string "inf".
func (r PerformanceReport) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		TotalReturnPct: r.TotalReturnPct,
		SharpeRatio:    r.SharpeRatio,
		MaxDrawdownPct: r.MaxDrawdownPct,
		VolatilityPct:  r.VolatilityPct,
		WinRatePct:     r.WinRatePct,
		WinLossRatio:   r.WinLossRatio,
		TotalTrades:    r.TotalTrades,
		AvgTradePnL:    r.AvgTradePnL,
		FinalValue:     r.FinalValue,
	}
	if math.IsInf(r.WinLossRatio, 1) {
		out.WinLossRatio = "inf"
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both the numeric and the "inf" string encoding.
func (r *PerformanceReport) UnmarshalJSON(data []byte) error {
	var in reportJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.TotalReturnPct = in.TotalReturnPct
	r.SharpeRatio = in.SharpeRatio
	r.MaxDrawdownPct = in.MaxDrawdownPct
	r.VolatilityPct = in.VolatilityPct
	r.WinRatePct = in.WinRatePct
	r.TotalTrades = in.TotalTrades
	r.AvgTradePnL = in.AvgTradePnL
	r.FinalValue = in.FinalValue
	switch v := in.WinLossRatio.(type) {
	case float64:
		r.WinLossRatio = v
	case string:
		r.WinLossRatio = math.Inf(1)
	}
	return nil
}
