package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantbench/stratbot/internal/backtest"
	"github.com/quantbench/stratbot/internal/domain"
	"github.com/quantbench/stratbot/internal/report"
	"github.com/quantbench/stratbot/internal/server"
	"github.com/quantbench/stratbot/internal/server/handler"
	"github.com/quantbench/stratbot/internal/server/ws"
	"github.com/quantbench/stratbot/internal/sweep"
)

// baseRequest builds the RunRequest shared by backtest and sweep modes from
// the configuration.
func (a *App) baseRequest() (backtest.RunRequest, error) {
	start, end, err := a.cfg.Backtest.Range()
	if err != nil {
		return backtest.RunRequest{}, err
	}
	return backtest.RunRequest{
		Symbol:         a.cfg.Backtest.Symbol,
		Start:          start,
		End:            end,
		InitialCapital: a.cfg.Backtest.InitialCapital,
		CommissionRate: a.cfg.Backtest.CommissionRate,
		Strategy:       a.cfg.Strategy.ToDomain(),
	}, nil
}

func (a *App) newService(deps *Dependencies, events domain.EventSink) *backtest.Service {
	return backtest.NewService(
		deps.Source, deps.Runs, deps.Trades, deps.Archiver, events, deps.Calc, a.logger,
	)
}

// BacktestMode executes a single run and prints the resulting report as JSON
// on stdout.
func (a *App) BacktestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting backtest mode",
		slog.String("symbol", a.cfg.Backtest.Symbol),
	)

	req, err := a.baseRequest()
	if err != nil {
		return err
	}

	svc := a.newService(deps, nil)
	result, err := svc.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("app: backtest: %w", err)
	}

	if result.Open != nil {
		a.logger.InfoContext(ctx, "position still open at series end",
			slog.Time("entry_time", result.Open.EntryTime),
			slog.Float64("entry_price", result.Open.EntryPrice),
			slog.Int64("shares", result.Open.Shares),
		)
	}

	out, err := report.MarshalRunJSON(result.Run)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

// SweepMode fans the configured grid out over the backtest service and prints
// the ranked outcomes as JSON on stdout.
func (a *App) SweepMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sweep mode",
		slog.String("symbol", a.cfg.Backtest.Symbol),
	)

	req, err := a.baseRequest()
	if err != nil {
		return err
	}

	logics := make([]domain.CombineLogic, 0, len(a.cfg.Sweep.CombineLogics))
	for _, l := range a.cfg.Sweep.CombineLogics {
		logics = append(logics, domain.CombineLogic(strings.ToUpper(l)))
	}
	grid := sweep.Grid{
		RSIPeriods:    a.cfg.Sweep.RSIPeriods,
		RSIOversold:   a.cfg.Sweep.RSIOversold,
		RSIOverbought: a.cfg.Sweep.RSIOverbought,
		MAFastWindows: a.cfg.Sweep.MAFastWindows,
		CombineLogics: logics,
	}

	svc := a.newService(deps, nil)
	sweeper := sweep.NewSweeper(svc, a.cfg.Sweep.Parallelism, a.logger)
	outcomes, err := sweeper.Run(ctx, req, grid)
	if err != nil {
		return fmt.Errorf("app: sweep: %w", err)
	}

	if len(outcomes) > 0 {
		best := outcomes[0]
		a.logger.InfoContext(ctx, "sweep finished",
			slog.Int("grid_points", len(outcomes)),
			slog.Float64("best_sharpe", best.Report.SharpeRatio),
			slog.Float64("best_total_return_pct", best.Report.TotalReturnPct),
		)
	}

	out, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("app: marshal sweep outcomes: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

// ServeMode runs the HTTP + WebSocket API until the context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode",
		slog.Int("port", a.cfg.Server.Port),
	)

	hub := ws.NewHub(a.logger)
	svc := a.newService(deps, hub)

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(a.logger),
		Backtest: handler.NewBacktestHandler(svc, a.logger),
	}
	if deps.Runs != nil && deps.Trades != nil {
		handlers.Runs = handler.NewRunHandler(deps.Runs, deps.Trades, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, handlers, hub, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
