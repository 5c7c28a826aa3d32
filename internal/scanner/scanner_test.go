package scanner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendScreener/internal/collector"
	"TrendScreener/internal/metrics"
	"TrendScreener/internal/model"
	"TrendScreener/internal/universe"
)

var end = time.Date(2024, 8, 13, 0, 0, 0, 0, time.UTC)

func zigzag(n int) []float64 {
	out := []float64{100}
	for i := 1; i < n; i++ {
		if i%2 == 1 {
			out = append(out, out[i-1]+2)
		} else {
			out = append(out, out[i-1]-1)
		}
	}
	return out
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func fiveTickers() *collector.MockFetcher {
	return &collector.MockFetcher{
		Bars: map[string][]model.OHLCV{
			"AAPL":  collector.BarsFromCloses(zigzag(60), end),
			"MSFT":  collector.BarsFromCloses(zigzag(80), end),
			"INTC":  collector.BarsFromCloses(linear(60, 50, -0.5), end),
			"NEWCO": collector.BarsFromCloses(zigzag(10), end),
		},
		Errs: map[string]error{
			"TSLA": fmt.Errorf("upstream: %w", collector.ErrNetwork),
		},
	}
}

type failingUniverse struct{}

func (failingUniverse) Name() string { return "broken" }
func (failingUniverse) ListTickers(context.Context) ([]string, error) {
	return nil, fmt.Errorf("%w: wikipedia returned 503", universe.ErrSourceUnavailable)
}

// blockingFetcher stalls one symbol until its context ends and tracks the
// peak number of concurrent fetches.
type blockingFetcher struct {
	collector.Fetcher
	block string

	mu       sync.Mutex
	inFlight int
	peak     int
}

func (b *blockingFetcher) FetchDailyBars(ctx context.Context, symbol string, lookback time.Duration) ([]model.OHLCV, error) {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight > b.peak {
		b.peak = b.inFlight
	}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.inFlight--
		b.mu.Unlock()
	}()

	if symbol == b.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	time.Sleep(5 * time.Millisecond)
	return b.Fetcher.FetchDailyBars(ctx, symbol, lookback)
}

func TestRun_IsolatesFailures(t *testing.T) {
	m := metrics.New()
	s := New(collector.NewCollector(fiveTickers(), 0), Options{Concurrency: 3}, m)

	report := s.Run(context.Background(), "static", []string{"TSLA", "MSFT", "AAPL", "NEWCO", "INTC", "AAPL"})

	assert.Equal(t, 5, report.Universe)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []string{"AAPL", "MSFT"}, report.Bullish)
	assert.Equal(t, []string{"NEWCO"}, report.Insufficient)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "TSLA", report.Skipped[0].Ticker)
	assert.Equal(t, "network", report.Skipped[0].Reason)

	require.Len(t, report.Results, 4)
	for i, want := range []string{"AAPL", "INTC", "MSFT", "NEWCO"} {
		assert.Equal(t, want, report.Results[i].Ticker)
	}

	sum := report.Summary()
	assert.Equal(t, model.Summary{Universe: 5, Classified: 3, Bullish: 2, Insufficient: 1, Skipped: 1}, sum)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestRunUniverse_FatalOnUniverseFailure(t *testing.T) {
	mock := fiveTickers()
	s := New(collector.NewCollector(mock, 0), Options{}, nil)

	report, err := s.RunUniverse(context.Background(), failingUniverse{})
	require.Error(t, err)
	assert.ErrorIs(t, err, universe.ErrSourceUnavailable)
	require.NotNil(t, report)
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Bullish)
	assert.Empty(t, report.Skipped)
	assert.Zero(t, mock.Calls(), "no ticker is fetched without a universe")
}

func TestRunUniverse_Static(t *testing.T) {
	s := New(collector.NewCollector(fiveTickers(), 0), Options{Concurrency: 2}, nil)
	report, err := s.RunUniverse(context.Background(), universe.NewStatic([]string{"aapl", "tsla", "intc", "msft", "newco"}))
	require.NoError(t, err)
	assert.Equal(t, "static", report.Source)
	assert.Equal(t, []string{"AAPL", "MSFT"}, report.Bullish)
	assert.Len(t, report.Skipped, 1)
	assert.Len(t, report.Results, 4)
}

func TestRun_SlowTickerTimesOutAlone(t *testing.T) {
	f := &blockingFetcher{Fetcher: fiveTickers(), block: "AAPL"}
	s := New(collector.NewCollector(f, 0), Options{Concurrency: 2, FetchTimeout: 100 * time.Millisecond}, nil)

	report := s.Run(context.Background(), "static", []string{"AAPL", "MSFT", "INTC", "NEWCO"})

	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "AAPL", report.Skipped[0].Ticker)
	assert.Equal(t, "timeout", report.Skipped[0].Reason)
	assert.Equal(t, []string{"MSFT"}, report.Bullish)
	assert.Len(t, report.Results, 3)
	assert.LessOrEqual(t, f.peak, 2)
}

func TestRun_CanceledPassAccountsForEveryTicker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(collector.NewCollector(fiveTickers(), 0), Options{Concurrency: 4}, nil)
	tickers := []string{"AAPL", "MSFT", "INTC", "NEWCO", "TSLA"}
	report := s.Run(ctx, "static", tickers)
	assert.Equal(t, len(tickers), len(report.Results)+len(report.Skipped))
}

func TestRun_Empty(t *testing.T) {
	s := New(collector.NewCollector(fiveTickers(), 0), Options{}, nil)
	report := s.Run(context.Background(), "static", nil)
	assert.Equal(t, 0, report.Universe)
	assert.Empty(t, report.Results)
	assert.Equal(t, DefaultConcurrency, s.Options.Concurrency)
	assert.Equal(t, DefaultFetchTimeout, s.Options.FetchTimeout)
}

type panicFetcher struct{ collector.Fetcher }

func (panicFetcher) FetchDailyBars(context.Context, string, time.Duration) ([]model.OHLCV, error) {
	panic("provider bug")
}

func TestRun_PanicIsolated(t *testing.T) {
	s := New(collector.NewCollector(panicFetcher{Fetcher: fiveTickers()}, 0), Options{}, nil)
	report := s.Run(context.Background(), "static", []string{"AAPL"})
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "panic", report.Skipped[0].Reason)
}
