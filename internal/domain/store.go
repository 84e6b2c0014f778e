package domain

import (
	"context"
	"time"
)

// RunStore persists backtest run records.
type RunStore interface {
	Insert(ctx context.Context, run BacktestRun) error
	GetByID(ctx context.Context, id string) (BacktestRun, error)
	ListRecent(ctx context.Context, limit int) ([]BacktestRun, error)
}

// TradeStore persists the closed-trade log of a run.
type TradeStore interface {
	InsertBatch(ctx context.Context, runID string, trades []Trade) error
	ListByRun(ctx context.Context, runID string) ([]Trade, error)
}

// BarSource supplies historical daily bars for a symbol over a closed date
// range. Implementations own their retry/timeout policy; the core does no I/O.
type BarSource interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) (PriceSeries, error)
}

// SeriesCache stores fetched price series keyed by symbol and range.
// Get returns ErrNotFound on a miss.
type SeriesCache interface {
	Get(ctx context.Context, symbol string, start, end time.Time) (PriceSeries, error)
	Set(ctx context.Context, series PriceSeries, start, end time.Time) error
}

// ResultsArchiver uploads the full artifacts of a completed run (equity
// curve, trade log, report) to blob storage.
type ResultsArchiver interface {
	ArchiveRun(ctx context.Context, run BacktestRun, equity EquityCurve, trades []Trade) error
}
