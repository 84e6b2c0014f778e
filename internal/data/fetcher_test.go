package data_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quantbench/stratbot/internal/data"
	"github.com/quantbench/stratbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleCSV = `date,open,high,low,close,volume
2024-01-02,100,102,99,101,50000
2024-01-03,101,104,100,103,61000
2024-01-04,103,105,bad,104,59000
2024-01-05,104,106,103,105,48000
`

func TestFetchDailyParsesAndDropsMalformedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/daily" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("unexpected symbol %q", got)
		}
		if got := r.URL.Query().Get("start"); got != "2024-01-01" {
			t.Errorf("unexpected start %q", got)
		}
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	f := data.NewFetcher(data.FetcherConfig{BaseURL: srv.URL}, testLogger())
	series, err := f.FetchDaily(context.Background(),
		"AAPL",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series.Bars) != 3 {
		t.Fatalf("expected 3 bars (1 malformed dropped), got %d", len(series.Bars))
	}
	if series.Bars[0].Close != 101 || series.Bars[2].Close != 105 {
		t.Fatalf("unexpected closes: %+v", series.Bars)
	}
	if series.Symbol != "AAPL" {
		t.Fatalf("unexpected symbol %q", series.Symbol)
	}
}

func TestFetchDailyEmptyPayloadIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "date,open,high,low,close,volume\n")
	}))
	defer srv.Close()

	f := data.NewFetcher(data.FetcherConfig{BaseURL: srv.URL}, testLogger())
	_, err := f.FetchDaily(context.Background(), "NONE",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchDailyUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := data.NewFetcher(data.FetcherConfig{BaseURL: srv.URL}, testLogger())
	_, err := f.FetchDaily(context.Background(), "AAPL",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	if err == nil {
		t.Fatal("expected error on 500 response")
	}
}

// memCache is an in-memory SeriesCache for exercising CachedSource.
type memCache struct {
	store map[string]domain.PriceSeries
	fail  bool
}

func (m *memCache) key(symbol string, start, end time.Time) string {
	return symbol + start.Format("2006-01-02") + end.Format("2006-01-02")
}

func (m *memCache) Get(_ context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	if m.fail {
		return domain.PriceSeries{}, errors.New("cache down")
	}
	s, ok := m.store[m.key(symbol, start, end)]
	if !ok {
		return domain.PriceSeries{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memCache) Set(_ context.Context, series domain.PriceSeries, start, end time.Time) error {
	if m.fail {
		return errors.New("cache down")
	}
	m.store[m.key(series.Symbol, start, end)] = series
	return nil
}

type countingSource struct {
	calls  int
	series domain.PriceSeries
}

func (c *countingSource) FetchDaily(context.Context, string, time.Time, time.Time) (domain.PriceSeries, error) {
	c.calls++
	return c.series, nil
}

func TestCachedSourceServesSecondFetchFromCache(t *testing.T) {
	series := domain.PriceSeries{Symbol: "AAPL", Bars: []domain.PriceBar{{
		Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:      100, High: 102, Low: 99, Close: 101, Volume: 1,
	}}}
	src := &countingSource{series: series}
	cache := &memCache{store: map[string]domain.PriceSeries{}}
	cs := data.NewCachedSource(src, cache, testLogger())

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		got, err := cs.FetchDaily(context.Background(), "AAPL", start, end)
		if err != nil {
			t.Fatalf("fetch %d: unexpected error: %v", i, err)
		}
		if len(got.Bars) != 1 {
			t.Fatalf("fetch %d: unexpected series %+v", i, got)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected 1 upstream fetch, got %d", src.calls)
	}
}

func TestCachedSourceDegradesWhenCacheFails(t *testing.T) {
	series := domain.PriceSeries{Symbol: "AAPL", Bars: []domain.PriceBar{{
		Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:      100, High: 102, Low: 99, Close: 101, Volume: 1,
	}}}
	src := &countingSource{series: series}
	cs := data.NewCachedSource(src, &memCache{fail: true}, testLogger())

	_, err := cs.FetchDaily(context.Background(), "AAPL",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("cache failure must not fail the fetch: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected upstream fetch, got %d calls", src.calls)
	}
}
