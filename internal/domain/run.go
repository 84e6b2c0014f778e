package domain

import "time"

// RunStatus tracks the lifecycle of a persisted backtest run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// BacktestRun is the persisted record of one simulation: its inputs, the
// resulting report, and bookkeeping metadata.
type BacktestRun struct {
	ID             string            `json:"id"`
	Symbol         string            `json:"symbol"`
	Start          time.Time         `json:"start"`
	End            time.Time         `json:"end"`
	InitialCapital float64           `json:"initial_capital"`
	CommissionRate float64           `json:"commission_rate"`
	Strategy       StrategyConfig    `json:"strategy"`
	Status         RunStatus         `json:"status"`
	Report         PerformanceReport `json:"report"`
	CreatedAt      time.Time         `json:"created_at"`
}

// RunEvent is broadcast over the WebSocket hub as a run progresses.
type RunEvent struct {
	Type   string             `json:"type"` // "run_started", "run_completed", "run_failed"
	RunID  string             `json:"run_id"`
	Symbol string             `json:"symbol"`
	Report *PerformanceReport `json:"report,omitempty"`
	Error  string             `json:"error,omitempty"`
	At     time.Time          `json:"at"`
}

// EventSink receives run lifecycle events. Implementations must not block the
// simulation; drop rather than stall.
type EventSink interface {
	Publish(ev RunEvent)
}
