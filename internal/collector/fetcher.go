package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"TrendScreener/internal/model"
)

// DefaultLookback is roughly six months of daily history.
const DefaultLookback = 182 * 24 * time.Hour

// Per-ticker fetch failures. Each one is recovered by the caller and reported
// as a skipped ticker, never escalated.
var (
	ErrTickerNotFound = errors.New("ticker not found")
	ErrRateLimited    = errors.New("rate limited")
	ErrNetwork        = errors.New("network error")
	ErrEmptySeries    = errors.New("empty series")
)

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	// FetchDailyBars returns daily bars covering lookback up to now,
	// ascending by time with no duplicate timestamps.
	FetchDailyBars(ctx context.Context, symbol string, lookback time.Duration) ([]model.OHLCV, error)
	Name() string
}

// Classify maps a fetch error to a short skip reason.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrTickerNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrEmptySeries):
		return "empty_series"
	case errors.Is(err, ErrNetwork):
		return "network"
	default:
		return "error"
	}
}

// statusError converts a non-200 HTTP status into the fetch error taxonomy.
func statusError(provider string, code int, body []byte) error {
	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", provider, ErrTickerNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", provider, ErrRateLimited)
	}
	if len(body) > 200 {
		body = body[:200]
	}
	if code >= 500 {
		return fmt.Errorf("%s: %w: status %d, body: %s", provider, ErrNetwork, code, string(body))
	}
	return fmt.Errorf("%s: status %d, body: %s", provider, code, string(body))
}

// NewHTTPClient builds a client with the given timeout and optional proxy.
func NewHTTPClient(timeout time.Duration, proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// normalizeBars sorts bars ascending and drops duplicate timestamps,
// keeping the later entry.
func normalizeBars(bars []model.OHLCV) []model.OHLCV {
	sortBars(bars)
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
