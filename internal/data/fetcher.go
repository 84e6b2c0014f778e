// Package data supplies historical price series from an external OHLCV
// service. It is a collaborator of the simulation core, not part of it: the
// core only ever sees a validated in-memory PriceSeries.
package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quantbench/stratbot/internal/domain"
)

const (
	defaultTimeout = 15 * time.Second
	dateLayout     = "2006-01-02"
)

// FetcherConfig holds the data service endpoint parameters.
type FetcherConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Fetcher retrieves daily OHLCV bars over HTTP. The endpoint is expected to
// return CSV with a "date,open,high,low,close,volume" header, one row per
// trading day, oldest first.
type Fetcher struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher for the configured endpoint.
func NewFetcher(cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		logger:  logger.With(slog.String("component", "data")),
	}
}

// FetchDaily retrieves bars for symbol in [start, end]. Rows with missing or
// unparseable fields are dropped, matching the reference behavior of cleaning
// the feed before use. An empty result is an error: the caller always needs
// at least one bar.
func (f *Fetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("start", start.Format(dateLayout))
	q.Set("end", end.Format(dateLayout))
	reqURL := f.baseURL + "/daily?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("data: build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("data: fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.PriceSeries{}, fmt.Errorf("data: symbol %s: %w", symbol, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.PriceSeries{}, fmt.Errorf("data: fetch %s: unexpected status %d", symbol, resp.StatusCode)
	}

	series, dropped, err := parseCSV(resp.Body, symbol)
	if err != nil {
		return domain.PriceSeries{}, err
	}
	if dropped > 0 {
		f.logger.Warn("dropped malformed bars",
			slog.String("symbol", symbol),
			slog.Int("dropped", dropped),
		)
	}
	if len(series.Bars) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("data: no bars for %s in range: %w", symbol, domain.ErrNotFound)
	}
	if err := series.Validate(); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("data: feed for %s: %w", symbol, err)
	}

	f.logger.Debug("fetched series",
		slog.String("symbol", symbol),
		slog.Int("bars", len(series.Bars)),
	)
	return series, nil
}

func parseCSV(r io.Reader, symbol string) (domain.PriceSeries, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	series := domain.PriceSeries{Symbol: symbol}
	dropped := 0
	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.PriceSeries{}, 0, fmt.Errorf("data: read csv for %s: %w", symbol, err)
		}
		if first {
			first = false
			continue // header
		}
		if len(record) < 6 {
			dropped++
			continue
		}
		ts, err := time.Parse(dateLayout, record[0])
		if err != nil {
			dropped++
			continue
		}
		vals := make([]float64, 5)
		ok := true
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			dropped++
			continue
		}
		series.Bars = append(series.Bars, domain.PriceBar{
			Timestamp: ts.UTC(),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	return series, dropped, nil
}

// Compile-time interface check.
var _ domain.BarSource = (*Fetcher)(nil)
