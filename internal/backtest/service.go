// Package backtest orchestrates a full run: fetch bars, generate signals,
// simulate the ledger, compute the report, then persist and publish.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quantbench/stratbot/internal/domain"
	"github.com/quantbench/stratbot/internal/metrics"
	"github.com/quantbench/stratbot/internal/signal"
	"github.com/quantbench/stratbot/internal/sim"
)

// Service runs backtests. The stores, archiver, and event sink are optional;
// a nil collaborator simply skips that step, so the same Service serves both
// the one-shot CLI path and the fully wired server path.
type Service struct {
	source   domain.BarSource
	runs     domain.RunStore
	trades   domain.TradeStore
	archiver domain.ResultsArchiver
	events   domain.EventSink
	calc     metrics.Calculator
	logger   *slog.Logger
}

// NewService creates a Service. source is required; the rest may be nil.
func NewService(
	source domain.BarSource,
	runs domain.RunStore,
	trades domain.TradeStore,
	archiver domain.ResultsArchiver,
	events domain.EventSink,
	calc metrics.Calculator,
	logger *slog.Logger,
) *Service {
	return &Service{
		source:   source,
		runs:     runs,
		trades:   trades,
		archiver: archiver,
		events:   events,
		calc:     calc,
		logger:   logger.With(slog.String("component", "backtest")),
	}
}

// RunRequest describes one backtest.
type RunRequest struct {
	Symbol         string
	Start          time.Time
	End            time.Time
	InitialCapital float64
	CommissionRate float64
	Strategy       domain.StrategyConfig
}

// Validate checks the request fields that the downstream stages do not.
func (r RunRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("backtest: symbol is required: %w", domain.ErrInvalidInput)
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("backtest: end must be after start: %w", domain.ErrInvalidInput)
	}
	return r.Strategy.Validate()
}

// RunResult carries everything a caller might want from a completed run.
type RunResult struct {
	Run    domain.BacktestRun
	Frame  domain.SignalFrame
	Equity domain.EquityCurve
	Trades []domain.Trade
	Open   *domain.OpenPosition
}

// Run executes the full pipeline for one request. Persistence and archival
// failures after a successful simulation are returned as errors, but the
// event sink is always told how the run ended.
func (s *Service) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	if err := req.Validate(); err != nil {
		return RunResult{}, err
	}

	runID := uuid.New().String()
	s.publish(domain.RunEvent{
		Type:   "run_started",
		RunID:  runID,
		Symbol: req.Symbol,
		At:     time.Now().UTC(),
	})

	result, err := s.execute(ctx, runID, req)
	if err != nil {
		s.publish(domain.RunEvent{
			Type:   "run_failed",
			RunID:  runID,
			Symbol: req.Symbol,
			Error:  err.Error(),
			At:     time.Now().UTC(),
		})
		s.recordFailure(ctx, runID, req)
		return RunResult{}, err
	}

	report := result.Run.Report
	s.publish(domain.RunEvent{
		Type:   "run_completed",
		RunID:  runID,
		Symbol: req.Symbol,
		Report: &report,
		At:     time.Now().UTC(),
	})
	return result, nil
}

func (s *Service) execute(ctx context.Context, runID string, req RunRequest) (RunResult, error) {
	series, err := s.source.FetchDaily(ctx, req.Symbol, req.Start, req.End)
	if err != nil {
		return RunResult{}, fmt.Errorf("backtest: fetch %s: %w", req.Symbol, err)
	}

	gen := signal.NewGenerator(req.Strategy, s.logger)
	frame, err := gen.Generate(series)
	if err != nil {
		return RunResult{}, err
	}

	engine := sim.NewEngine(req.InitialCapital, req.CommissionRate)
	simResult, err := engine.Run(frame)
	if err != nil {
		return RunResult{}, err
	}

	run := domain.BacktestRun{
		ID:             runID,
		Symbol:         req.Symbol,
		Start:          req.Start,
		End:            req.End,
		InitialCapital: engine.InitialCapital(),
		CommissionRate: req.CommissionRate,
		Strategy:       req.Strategy,
		Status:         domain.RunStatusCompleted,
		Report:         s.calc.Report(simResult.Equity, simResult.Trades),
		CreatedAt:      time.Now().UTC(),
	}

	s.logger.Info("run completed",
		slog.String("run_id", runID),
		slog.String("symbol", req.Symbol),
		slog.Int("bars", series.Len()),
		slog.Int("trades", len(simResult.Trades)),
		slog.Float64("total_return_pct", run.Report.TotalReturnPct),
	)

	if s.runs != nil {
		if err := s.runs.Insert(ctx, run); err != nil {
			return RunResult{}, fmt.Errorf("backtest: persist run %s: %w", runID, err)
		}
	}
	if s.trades != nil {
		if err := s.trades.InsertBatch(ctx, runID, simResult.Trades); err != nil {
			return RunResult{}, fmt.Errorf("backtest: persist trades for run %s: %w", runID, err)
		}
	}
	if s.archiver != nil {
		if err := s.archiver.ArchiveRun(ctx, run, simResult.Equity, simResult.Trades); err != nil {
			return RunResult{}, fmt.Errorf("backtest: archive run %s: %w", runID, err)
		}
	}

	return RunResult{
		Run:    run,
		Frame:  frame,
		Equity: simResult.Equity,
		Trades: simResult.Trades,
		Open:   simResult.Open,
	}, nil
}

// recordFailure best-effort persists a failed run so the history shows it.
func (s *Service) recordFailure(ctx context.Context, runID string, req RunRequest) {
	if s.runs == nil {
		return
	}
	run := domain.BacktestRun{
		ID:             runID,
		Symbol:         req.Symbol,
		Start:          req.Start,
		End:            req.End,
		InitialCapital: req.InitialCapital,
		CommissionRate: req.CommissionRate,
		Strategy:       req.Strategy,
		Status:         domain.RunStatusFailed,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.runs.Insert(ctx, run); err != nil {
		s.logger.Warn("failed to record failed run",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) publish(ev domain.RunEvent) {
	if s.events == nil {
		return
	}
	s.events.Publish(ev)
}
