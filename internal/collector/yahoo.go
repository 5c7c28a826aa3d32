package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"TrendScreener/internal/model"
)

// YahooBaseURL is the Yahoo Finance chart API host.
const YahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
	Aliases map[string]string // maps internal symbol to Yahoo ticker
	Now     func() time.Time
}

// NewYahooFetcher creates a Yahoo fetcher allowing requestsPerSecond calls.
func NewYahooFetcher(proxyURL string, timeout time.Duration, requestsPerSecond float64) *YahooFetcher {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &YahooFetcher{
		BaseURL: YahooBaseURL,
		Client:  NewHTTPClient(timeout, proxyURL),
		Limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		Aliases: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		Now: time.Now,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.Aliases[symbol]; ok {
		return mapped
	}
	return symbol
}

func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, lookback time.Duration) ([]model.OHLCV, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("yahoo %s: %w: %w", symbol, ErrRateLimited, err)
		}
	}

	now := f.Now()
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), now.Add(-lookback).Unix(), now.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("yahoo %s: %w", symbol, ctx.Err())
		}
		return nil, fmt.Errorf("yahoo %s: %w: %w", symbol, ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w: read body: %w", symbol, ErrNetwork, err)
	}

	if code := gjson.GetBytes(body, "chart.error.code"); code.Exists() && code.String() == "Not Found" {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrTickerNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("yahoo "+symbol, resp.StatusCode, body)
	}
	if desc := gjson.GetBytes(body, "chart.error.description"); desc.Exists() {
		return nil, fmt.Errorf("yahoo %s: api error: %s", symbol, desc.String())
	}

	bars, err := parseYahooChart(body)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	log.Debug().Str("ticker", symbol).Int("bars", len(bars)).Msg("yahoo bars fetched")
	return bars, nil
}

// parseYahooChart extracts daily bars from a chart response. Null bars
// (holidays, halts) are skipped. When adjusted closes are present every
// price is scaled by adjclose/close, matching split- and dividend-adjusted
// history.
func parseYahooChart(body []byte) ([]model.OHLCV, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("decode: invalid json")
	}
	result := gjson.GetBytes(body, "chart.result.0")
	timestamps := result.Get("timestamp").Array()
	if len(timestamps) == 0 {
		return nil, ErrEmptySeries
	}

	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()
	adjCloses := result.Get("indicators.adjclose.0.adjclose").Array()

	at := func(arr []gjson.Result, i int) gjson.Result {
		if i < len(arr) {
			return arr[i]
		}
		return gjson.Result{}
	}

	bars := make([]model.OHLCV, 0, len(timestamps))
	for i, ts := range timestamps {
		c := at(closes, i)
		if c.Type != gjson.Number {
			continue
		}
		bar := model.OHLCV{
			Time:   time.Unix(ts.Int(), 0).UTC(),
			Open:   at(opens, i).Float(),
			High:   at(highs, i).Float(),
			Low:    at(lows, i).Float(),
			Close:  c.Float(),
			Volume: at(volumes, i).Float(),
		}
		if adj := at(adjCloses, i); adj.Type == gjson.Number && bar.Close != 0 {
			ratio := adj.Float() / bar.Close
			bar.Open *= ratio
			bar.High *= ratio
			bar.Low *= ratio
			bar.Close = adj.Float()
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}
	return normalizeBars(bars), nil
}

func sortBars(bars []model.OHLCV) {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
}
