// Package sweep runs a strategy across a parameter grid and ranks the
// outcomes. Each backtest owns its own ledger, so runs execute in parallel
// under a bounded errgroup.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/quantbench/stratbot/internal/backtest"
	"github.com/quantbench/stratbot/internal/domain"
)

const defaultParallelism = 4

// Runner executes a single backtest. *backtest.Service satisfies it.
type Runner interface {
	Run(ctx context.Context, req backtest.RunRequest) (backtest.RunResult, error)
}

// Grid enumerates the strategy parameters to vary. Empty slices keep the base
// request's value for that parameter.
type Grid struct {
	RSIPeriods    []int
	RSIOversold   []float64
	RSIOverbought []float64
	MAFastWindows []int
	CombineLogics []domain.CombineLogic
}

// Expand produces one StrategyConfig per grid point, starting from base.
func (g Grid) Expand(base domain.StrategyConfig) []domain.StrategyConfig {
	configs := []domain.StrategyConfig{base}

	configs = expandInt(configs, g.RSIPeriods, func(c *domain.StrategyConfig, v int) { c.RSIPeriod = v })
	configs = expandFloat(configs, g.RSIOversold, func(c *domain.StrategyConfig, v float64) { c.RSIOversold = v })
	configs = expandFloat(configs, g.RSIOverbought, func(c *domain.StrategyConfig, v float64) { c.RSIOverbought = v })
	configs = expandInt(configs, g.MAFastWindows, func(c *domain.StrategyConfig, v int) { c.MAFastWindow = v })

	if len(g.CombineLogics) > 0 {
		next := make([]domain.StrategyConfig, 0, len(configs)*len(g.CombineLogics))
		for _, c := range configs {
			for _, logic := range g.CombineLogics {
				c.CombineLogic = logic
				next = append(next, c)
			}
		}
		configs = next
	}
	return configs
}

func expandInt(configs []domain.StrategyConfig, vals []int, set func(*domain.StrategyConfig, int)) []domain.StrategyConfig {
	if len(vals) == 0 {
		return configs
	}
	next := make([]domain.StrategyConfig, 0, len(configs)*len(vals))
	for _, c := range configs {
		for _, v := range vals {
			set(&c, v)
			next = append(next, c)
		}
	}
	return next
}

func expandFloat(configs []domain.StrategyConfig, vals []float64, set func(*domain.StrategyConfig, float64)) []domain.StrategyConfig {
	if len(vals) == 0 {
		return configs
	}
	next := make([]domain.StrategyConfig, 0, len(configs)*len(vals))
	for _, c := range configs {
		for _, v := range vals {
			set(&c, v)
			next = append(next, c)
		}
	}
	return next
}

// Outcome is one grid point's result.
type Outcome struct {
	Strategy domain.StrategyConfig    `json:"strategy"`
	Report   domain.PerformanceReport `json:"report"`
	RunID    string                   `json:"run_id"`
}

// Sweeper fans a base request out over a grid.
type Sweeper struct {
	runner      Runner
	parallelism int
	logger      *slog.Logger
}

// NewSweeper creates a Sweeper. Non-positive parallelism falls back to the
// default of 4.
func NewSweeper(runner Runner, parallelism int, logger *slog.Logger) *Sweeper {
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	return &Sweeper{
		runner:      runner,
		parallelism: parallelism,
		logger:      logger.With(slog.String("component", "sweep")),
	}
}

// Run executes every grid point and returns the outcomes sorted by Sharpe
// ratio, best first. The first run error cancels the remaining runs.
func (s *Sweeper) Run(ctx context.Context, base backtest.RunRequest, grid Grid) ([]Outcome, error) {
	configs := grid.Expand(base.Strategy)
	s.logger.Info("sweep starting",
		slog.String("symbol", base.Symbol),
		slog.Int("grid_points", len(configs)),
		slog.Int("parallelism", s.parallelism),
	)

	outcomes := make([]Outcome, len(configs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i, cfg := range configs {
		g.Go(func() error {
			req := base
			req.Strategy = cfg
			result, err := s.runner.Run(ctx, req)
			if err != nil {
				return fmt.Errorf("sweep: grid point %d: %w", i, err)
			}
			outcomes[i] = Outcome{
				Strategy: cfg,
				Report:   result.Run.Report,
				RunID:    result.Run.ID,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].Report.SharpeRatio > outcomes[j].Report.SharpeRatio
	})
	return outcomes, nil
}
