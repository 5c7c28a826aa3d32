package collector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"TrendScreener/internal/calculator"
	"TrendScreener/internal/model"
	"TrendScreener/internal/strategy"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars  map[string][]model.OHLCV
	Errs  map[string]error
	Delay time.Duration

	calls atomic.Int64
	mu    sync.Mutex
	seen  map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(ctx context.Context, symbol string, _ time.Duration) ([]model.OHLCV, error) {
	m.calls.Add(1)
	m.mu.Lock()
	if m.seen == nil {
		m.seen = make(map[string]int)
	}
	m.seen[symbol]++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	bars, ok := m.Bars[symbol]
	if !ok {
		return nil, ErrTickerNotFound
	}
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}
	out := make([]model.OHLCV, len(bars))
	copy(out, bars)
	return out, nil
}

// Calls returns the number of fetches made so far.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

// CallsFor returns the number of fetches made for symbol.
func (m *MockFetcher) CallsFor(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[symbol]
}

// BarsFromCloses builds one daily bar per close, the last one dated end.
func BarsFromCloses(closes []float64, end time.Time) []model.OHLCV {
	end = end.UTC().Truncate(24 * time.Hour)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(len(closes) - 1 - i)),
			Open:   c,
			High:   c * 1.005,
			Low:    c * 0.995,
			Close:  c,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches one ticker's history and screens it.
type Collector struct {
	Fetcher  Fetcher
	Lookback time.Duration
}

// NewCollector creates a new Collector. A non-positive lookback falls back
// to DefaultLookback.
func NewCollector(fetcher Fetcher, lookback time.Duration) *Collector {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Collector{Fetcher: fetcher, Lookback: lookback}
}

// Fetch returns the price series for ticker.
func (c *Collector) Fetch(ctx context.Context, ticker string) (model.PriceSeries, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, ticker, c.Lookback)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("fetch daily bars: %w", err)
	}
	if len(bars) == 0 {
		return model.PriceSeries{}, fmt.Errorf("fetch daily bars: %s: %w", ticker, ErrEmptySeries)
	}
	return model.PriceSeries{Symbol: ticker, Bars: bars, FetchedAt: time.Now()}, nil
}

// Screen fetches ticker, computes its indicators and classifies the latest bar.
// A returned error is always a fetch failure; short history is reported
// through ScreeningResult.Insufficient instead.
func (c *Collector) Screen(ctx context.Context, ticker string) (model.ScreeningResult, error) {
	series, err := c.Fetch(ctx, ticker)
	if err != nil {
		return model.ScreeningResult{Ticker: ticker}, err
	}
	ind := calculator.Compute(series)
	return strategy.Classify(ticker, ind), nil
}
