package sweep_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/quantbench/stratbot/internal/backtest"
	"github.com/quantbench/stratbot/internal/domain"
	"github.com/quantbench/stratbot/internal/sweep"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubRunner returns a report whose Sharpe is derived from the strategy's
// RSI period, so ranking is observable.
type stubRunner struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (r *stubRunner) Run(_ context.Context, req backtest.RunRequest) (backtest.RunResult, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.fail {
		return backtest.RunResult{}, errors.New("boom")
	}
	return backtest.RunResult{
		Run: domain.BacktestRun{
			ID: "run",
			Report: domain.PerformanceReport{
				SharpeRatio: float64(req.Strategy.RSIPeriod),
			},
		},
	}, nil
}

func baseRequest() backtest.RunRequest {
	return backtest.RunRequest{
		Symbol:   "TEST",
		Strategy: domain.DefaultStrategyConfig(),
	}
}

func TestGridExpandCartesianProduct(t *testing.T) {
	grid := sweep.Grid{
		RSIPeriods:  []int{7, 14, 21},
		RSIOversold: []float64{25, 30},
	}
	configs := grid.Expand(domain.DefaultStrategyConfig())
	if len(configs) != 6 {
		t.Fatalf("expected 6 grid points, got %d", len(configs))
	}
	seen := map[[2]float64]bool{}
	for _, c := range configs {
		seen[[2]float64{float64(c.RSIPeriod), c.RSIOversold}] = true
	}
	if len(seen) != 6 {
		t.Fatalf("expected 6 distinct combinations, got %d", len(seen))
	}
}

func TestGridExpandEmptyKeepsBase(t *testing.T) {
	base := domain.DefaultStrategyConfig()
	configs := sweep.Grid{}.Expand(base)
	if len(configs) != 1 || configs[0] != base {
		t.Fatalf("empty grid should yield just the base config, got %v", configs)
	}
}

func TestSweepRanksBySharpeDescending(t *testing.T) {
	runner := &stubRunner{}
	s := sweep.NewSweeper(runner, 2, testLogger())

	grid := sweep.Grid{RSIPeriods: []int{7, 21, 14}}
	outcomes, err := s.Run(context.Background(), baseRequest(), grid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if runner.calls != 3 {
		t.Fatalf("expected 3 runs, got %d", runner.calls)
	}
	for i := 1; i < len(outcomes); i++ {
		if outcomes[i].Report.SharpeRatio > outcomes[i-1].Report.SharpeRatio {
			t.Fatalf("outcomes not sorted by sharpe: %v", outcomes)
		}
	}
	if outcomes[0].Strategy.RSIPeriod != 21 {
		t.Fatalf("best outcome should be period 21, got %d", outcomes[0].Strategy.RSIPeriod)
	}
}

func TestSweepPropagatesRunError(t *testing.T) {
	runner := &stubRunner{fail: true}
	s := sweep.NewSweeper(runner, 2, testLogger())

	_, err := s.Run(context.Background(), baseRequest(), sweep.Grid{RSIPeriods: []int{7, 14}})
	if err == nil {
		t.Fatal("expected error from failing runner")
	}
}
