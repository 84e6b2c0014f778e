package domain

import "time"

// Trade is one completed round trip: an entry and its matching exit.
// Commission from both legs is included in RealizedPnL. A trade is only
// appended to the log once closed; a position still open at series end never
// becomes a Trade.
type Trade struct {
	EntryTime      time.Time `json:"entry_time"`
	EntryPrice     float64   `json:"entry_price"`
	ExitTime       time.Time `json:"exit_time"`
	ExitPrice      float64   `json:"exit_price"`
	Shares         int64     `json:"shares"`
	CommissionPaid float64   `json:"commission_paid"`
	RealizedPnL    float64   `json:"realized_pnl"`
}

// OpenPosition is the ledger state of a position that has been entered but
// not yet exited. Cost includes the entry commission.
type OpenPosition struct {
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	Shares     int64     `json:"shares"`
	Cost       float64   `json:"cost"`
}

// EquityPoint is the mark-to-market snapshot taken once per bar, before any
// trade on that bar executes.
type EquityPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	Cash           float64   `json:"cash"`
	SharesHeld     int64     `json:"shares_held"`
	MarkPrice      float64   `json:"mark_price"`
	PortfolioValue float64   `json:"portfolio_value"`
}

// EquityCurve is the canonical record of wealth over time, one point per bar.
type EquityCurve []EquityPoint
