package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"TrendScreener/internal/model"
)

// RESTFetcher implements Fetcher against a generic daily-bars REST API that
// returns a JSON array of {timestamp, open, high, low, close, volume}.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter
	Now     func() time.Time
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration, requestsPerSecond float64) *RESTFetcher {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  NewHTTPClient(timeout, proxyURL),
		Limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		Now:     time.Now,
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

func (f *RESTFetcher) FetchDailyBars(ctx context.Context, symbol string, lookback time.Duration) ([]model.OHLCV, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rest %s: %w: %w", symbol, ErrRateLimited, err)
		}
	}

	now := f.Now()
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("from", now.Add(-lookback).Format(time.DateOnly))
	params.Set("to", now.Format(time.DateOnly))
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("rest %s: %w", symbol, ctx.Err())
		}
		return nil, fmt.Errorf("rest %s: %w: %w", symbol, ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rest %s: %w: read body: %w", symbol, ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("rest "+symbol, resp.StatusCode, body)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("rest %s: decode bars: invalid json", symbol)
	}

	items := gjson.ParseBytes(body).Array()
	bars := make([]model.OHLCV, 0, len(items))
	for _, item := range items {
		// Bars without a numeric close or a timestamp carry no price.
		ts, c := item.Get("timestamp"), item.Get("close")
		if ts.Type != gjson.Number || c.Type != gjson.Number {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts.Int(), 0).UTC(),
			Open:   item.Get("open").Float(),
			High:   item.Get("high").Float(),
			Low:    item.Get("low").Float(),
			Close:  c.Float(),
			Volume: item.Get("volume").Float(),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("rest %s: %w", symbol, ErrEmptySeries)
	}
	return normalizeBars(bars), nil
}
