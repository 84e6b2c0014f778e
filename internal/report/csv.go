// Package report renders run outputs (equity curve, trade log, performance
// report) for export. The core owns no file format; these renderers are the
// boundary where values get formatted, consumed by the archiver and the HTTP
// layer.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/quantbench/stratbot/internal/domain"
)

// WriteEquityCSV writes the equity curve with one row per bar.
func WriteEquityCSV(w io.Writer, equity domain.EquityCurve) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "cash", "shares_held", "mark_price", "portfolio_value"}); err != nil {
		return fmt.Errorf("report: write equity header: %w", err)
	}
	for _, p := range equity {
		row := []string{
			p.Timestamp.UTC().Format(time.RFC3339),
			formatMoney(p.Cash),
			strconv.FormatInt(p.SharesHeld, 10),
			formatMoney(p.MarkPrice),
			formatMoney(p.PortfolioValue),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("report: write equity row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: flush equity csv: %w", err)
	}
	return nil
}

// WriteTradesCSV writes the closed-trade log with one row per round trip.
func WriteTradesCSV(w io.Writer, trades []domain.Trade) error {
	cw := csv.NewWriter(w)
	header := []string{
		"entry_time", "entry_price", "exit_time", "exit_price",
		"shares", "commission_paid", "realized_pnl",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("report: write trades header: %w", err)
	}
	for _, t := range trades {
		row := []string{
			t.EntryTime.UTC().Format(time.RFC3339),
			formatMoney(t.EntryPrice),
			t.ExitTime.UTC().Format(time.RFC3339),
			formatMoney(t.ExitPrice),
			strconv.FormatInt(t.Shares, 10),
			formatMoney(t.CommissionPaid),
			formatMoney(t.RealizedPnL),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("report: write trade row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: flush trades csv: %w", err)
	}
	return nil
}

// FormatRatio renders a ratio value, using "inf" for the sentinel produced
// when every closed trade was a winner.
func FormatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
