package data

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/quantbench/stratbot/internal/domain"
)

// CachedSource fronts a BarSource with a SeriesCache. Cache failures degrade
// to a direct fetch; a run never fails because the cache is down.
type CachedSource struct {
	source domain.BarSource
	cache  domain.SeriesCache
	logger *slog.Logger
}

// NewCachedSource wraps source with cache.
func NewCachedSource(source domain.BarSource, cache domain.SeriesCache, logger *slog.Logger) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache,
		logger: logger.With(slog.String("component", "data_cache")),
	}
}

// FetchDaily serves from the cache when possible, otherwise fetches and
// back-fills the cache.
func (c *CachedSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	series, err := c.cache.Get(ctx, symbol, start, end)
	if err == nil {
		c.logger.Debug("series cache hit", slog.String("symbol", symbol))
		return series, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		c.logger.Warn("series cache read failed, falling back to fetch",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
	}

	series, err = c.source.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return domain.PriceSeries{}, err
	}

	if err := c.cache.Set(ctx, series, start, end); err != nil {
		c.logger.Warn("series cache write failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
	}
	return series, nil
}

// Compile-time interface check.
var _ domain.BarSource = (*CachedSource)(nil)
