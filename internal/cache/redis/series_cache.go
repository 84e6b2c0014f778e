package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quantbench/stratbot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Daily bars are immutable once the session closes, so a generous TTL is safe.
const defaultSeriesTTL = 24 * time.Hour

// SeriesCache implements domain.SeriesCache using Redis string values.
// Each series is stored JSON-encoded at key "series:{symbol}:{start}:{end}".
type SeriesCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSeriesCache creates a SeriesCache backed by the given Client. A
// non-positive ttl falls back to the default.
func NewSeriesCache(c *Client, ttl time.Duration) *SeriesCache {
	if ttl <= 0 {
		ttl = defaultSeriesTTL
	}
	return &SeriesCache{rdb: c.Underlying(), ttl: ttl}
}

func seriesKey(symbol string, start, end time.Time) string {
	const layout = "2006-01-02"
	return "series:" + symbol + ":" + start.Format(layout) + ":" + end.Format(layout)
}

// Get retrieves a cached series. It returns domain.ErrNotFound when the key
// does not exist.
func (sc *SeriesCache) Get(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	key := seriesKey(symbol, start, end)
	payload, err := sc.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PriceSeries{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("redis: get series %s: %w", symbol, err)
	}

	var series domain.PriceSeries
	if err := json.Unmarshal(payload, &series); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("redis: decode series %s: %w", symbol, err)
	}
	return series, nil
}

// Set stores a series under its symbol and date range.
func (sc *SeriesCache) Set(ctx context.Context, series domain.PriceSeries, start, end time.Time) error {
	payload, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("redis: encode series %s: %w", series.Symbol, err)
	}
	key := seriesKey(series.Symbol, start, end)
	if err := sc.rdb.Set(ctx, key, payload, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set series %s: %w", series.Symbol, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SeriesCache = (*SeriesCache)(nil)
