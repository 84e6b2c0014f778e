package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/quantbench/stratbot/internal/blob/s3"
	"github.com/quantbench/stratbot/internal/cache/redis"
	"github.com/quantbench/stratbot/internal/config"
	"github.com/quantbench/stratbot/internal/data"
	"github.com/quantbench/stratbot/internal/domain"
	"github.com/quantbench/stratbot/internal/metrics"
	"github.com/quantbench/stratbot/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. Optional collaborators (stores, cache, archiver) are
// nil when their config section is disabled; the backtest service treats nil
// as "skip that step".
type Dependencies struct {
	Source   domain.BarSource
	Runs     domain.RunStore
	Trades   domain.TradeStore
	Archiver domain.ResultsArchiver
	Calc     metrics.Calculator
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Calc: metrics.NewCalculator(cfg.Backtest.RiskFreeRate),
	}

	// --- Data source (always required) ---
	fetcher := data.NewFetcher(data.FetcherConfig{
		BaseURL: cfg.Data.BaseURL,
		Timeout: cfg.Data.Timeout.Duration,
	}, logger)
	deps.Source = fetcher

	// --- Redis series cache (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		cache := redis.NewSeriesCache(redisClient, cfg.Redis.SeriesTTL.Duration)
		deps.Source = data.NewCachedSource(fetcher, cache, logger)
	}

	// --- PostgreSQL run/trade stores (optional) ---
	if cfg.Database.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Runs = postgres.NewRunStore(pool)
		deps.Trades = postgres.NewTradeStore(pool)
	}

	// --- S3 results archiver (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	return deps, cleanup, nil
}
