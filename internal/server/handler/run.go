package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/quantbench/stratbot/internal/domain"
)

// RunHandler serves persisted run history endpoints.
type RunHandler struct {
	runs   domain.RunStore
	trades domain.TradeStore
	logger *slog.Logger
}

// NewRunHandler creates a RunHandler.
func NewRunHandler(runs domain.RunStore, trades domain.TradeStore, logger *slog.Logger) *RunHandler {
	return &RunHandler{
		runs:   runs,
		trades: trades,
		logger: logHandler(logger, "runs"),
	}
}

// ListRuns returns the most recent runs.
// GET /api/runs?limit=50
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.ListRecent(r.Context(), parseLimit(r))
	if err != nil {
		h.logger.Error("list runs", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []domain.BacktestRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// GetRun returns one run with its closed trades.
// GET /api/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")

	run, err := h.runs.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		h.logger.Error("get run", slog.String("run_id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	trades, err := h.trades.ListByRun(r.Context(), id)
	if err != nil {
		h.logger.Error("list run trades", slog.String("run_id", id), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get run trades")
		return
	}
	if trades == nil {
		trades = []domain.Trade{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run":    run,
		"trades": trades,
	})
}
