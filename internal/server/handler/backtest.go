package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/quantbench/stratbot/internal/backtest"
	"github.com/quantbench/stratbot/internal/domain"
)

// BacktestRunner executes one backtest request.
type BacktestRunner interface {
	Run(ctx context.Context, req backtest.RunRequest) (backtest.RunResult, error)
}

// BacktestHandler triggers backtests over the API.
type BacktestHandler struct {
	runner BacktestRunner
	logger *slog.Logger
}

// NewBacktestHandler creates a BacktestHandler.
func NewBacktestHandler(runner BacktestRunner, logger *slog.Logger) *BacktestHandler {
	return &BacktestHandler{
		runner: runner,
		logger: logHandler(logger, "backtest"),
	}
}

// backtestRequest is the JSON body for POST /api/backtest. Dates use the
// YYYY-MM-DD layout; a missing strategy falls back to the defaults.
type backtestRequest struct {
	Symbol         string                 `json:"symbol"`
	Start          string                 `json:"start"`
	End            string                 `json:"end"`
	InitialCapital float64                `json:"initial_capital"`
	CommissionRate float64                `json:"commission_rate"`
	Strategy       *domain.StrategyConfig `json:"strategy,omitempty"`
}

// RunBacktest executes a backtest synchronously and returns the run record
// plus any position still open at series end.
// POST /api/backtest
func (h *BacktestHandler) RunBacktest(w http.ResponseWriter, r *http.Request) {
	var body backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	const layout = "2006-01-02"
	start, err := time.Parse(layout, body.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(layout, body.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}

	strategy := domain.DefaultStrategyConfig()
	if body.Strategy != nil {
		strategy = *body.Strategy
	}

	req := backtest.RunRequest{
		Symbol:         body.Symbol,
		Start:          start,
		End:            end,
		InitialCapital: body.InitialCapital,
		CommissionRate: body.CommissionRate,
		Strategy:       strategy,
	}

	result, err := h.runner.Run(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "no price data for symbol in range")
		return
	case err != nil:
		h.logger.Error("run backtest",
			slog.String("symbol", body.Symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "backtest failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run":           result.Run,
		"open_position": result.Open,
	})
}
