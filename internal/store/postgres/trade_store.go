package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantbench/stratbot/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const tradeSelectCols = `entry_time, entry_price, exit_time, exit_price,
	shares, commission_paid, realized_pnl`

// InsertBatch inserts a run's closed trades using a pgx Batch.
func (s *TradeStore) InsertBatch(ctx context.Context, runID string, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO run_trades (
			run_id, entry_time, entry_price, exit_time, exit_price,
			shares, commission_paid, realized_pnl
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, t := range trades {
		batch.Queue(query,
			runID, t.EntryTime, t.EntryPrice, t.ExitTime, t.ExitPrice,
			t.Shares, t.CommissionPaid, t.RealizedPnL,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range trades {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert trade batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListByRun returns a run's trades in entry order.
func (s *TradeStore) ListByRun(ctx context.Context, runID string) ([]domain.Trade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeSelectCols+` FROM run_trades WHERE run_id = $1 ORDER BY entry_time ASC`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades for run %s: %w", runID, err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(
			&t.EntryTime, &t.EntryPrice, &t.ExitTime, &t.ExitPrice,
			&t.Shares, &t.CommissionPaid, &t.RealizedPnL,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list trades for run %s: %w", runID, err)
	}
	return trades, nil
}

// Compile-time interface check.
var _ domain.TradeStore = (*TradeStore)(nil)
