package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantbench/stratbot/internal/domain"
)

// RunStore implements domain.RunStore using PostgreSQL. Strategy and report
// are stored as JSONB so schema churn in either does not need a migration.
type RunStore struct {
	pool *pgxpool.Pool
}

// NewRunStore creates a new RunStore backed by the given connection pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

const runSelectCols = `id, symbol, range_start, range_end, initial_capital,
	commission_rate, strategy, status, report, created_at`

// Insert persists a run record.
func (s *RunStore) Insert(ctx context.Context, run domain.BacktestRun) error {
	strategy, err := json.Marshal(run.Strategy)
	if err != nil {
		return fmt.Errorf("postgres: encode strategy for run %s: %w", run.ID, err)
	}
	report, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("postgres: encode report for run %s: %w", run.ID, err)
	}

	const query = `
		INSERT INTO runs (
			id, symbol, range_start, range_end, initial_capital,
			commission_rate, strategy, status, report, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = s.pool.Exec(ctx, query,
		run.ID, run.Symbol, run.Start, run.End, run.InitialCapital,
		run.CommissionRate, strategy, string(run.Status), report, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert run %s: %w", run.ID, err)
	}
	return nil
}

// GetByID returns a run by its ID. It returns domain.ErrNotFound when the run
// does not exist.
func (s *RunStore) GetByID(ctx context.Context, id string) (domain.BacktestRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+runSelectCols+` FROM runs WHERE id = $1`, id)

	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.BacktestRun{}, fmt.Errorf("postgres: run %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.BacktestRun{}, fmt.Errorf("postgres: get run %s: %w", id, err)
	}
	return run, nil
}

// ListRecent returns the most recently created runs, newest first.
func (s *RunStore) ListRecent(ctx context.Context, limit int) ([]domain.BacktestRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+runSelectCols+` FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.BacktestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (domain.BacktestRun, error) {
	var (
		run      domain.BacktestRun
		status   string
		strategy []byte
		report   []byte
	)
	if err := row.Scan(
		&run.ID, &run.Symbol, &run.Start, &run.End, &run.InitialCapital,
		&run.CommissionRate, &strategy, &status, &report, &run.CreatedAt,
	); err != nil {
		return domain.BacktestRun{}, err
	}
	run.Status = domain.RunStatus(status)
	if err := json.Unmarshal(strategy, &run.Strategy); err != nil {
		return domain.BacktestRun{}, fmt.Errorf("decode strategy: %w", err)
	}
	if len(report) > 0 {
		if err := json.Unmarshal(report, &run.Report); err != nil {
			return domain.BacktestRun{}, fmt.Errorf("decode report: %w", err)
		}
	}
	return run, nil
}

// Compile-time interface check.
var _ domain.RunStore = (*RunStore)(nil)
