// Package cache keeps fetched price history so repeated passes within a
// freshness window do not hit the market-data provider again.
package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"TrendScreener/internal/collector"
	"TrendScreener/internal/model"
)

// Entry is the cached history of one symbol.
type Entry struct {
	Symbol    string
	Bars      []model.OHLCV
	FetchedAt time.Time
	Lookback  time.Duration
}

// Store persists fetched bars.
type Store interface {
	Load(ctx context.Context, symbol string) (*Entry, error) // nil, nil on miss
	Save(ctx context.Context, e *Entry) error
	Close() error
}

// CachedFetcher is a read-through collector.Fetcher. Errors from the
// upstream fetcher are returned as-is and never cached.
type CachedFetcher struct {
	Upstream collector.Fetcher
	Store    Store
	TTL      time.Duration
	Now      func() time.Time
}

var _ collector.Fetcher = (*CachedFetcher)(nil)

// NewCachedFetcher wraps upstream with store.
func NewCachedFetcher(upstream collector.Fetcher, store Store, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{Upstream: upstream, Store: store, TTL: ttl, Now: time.Now}
}

func (f *CachedFetcher) Name() string { return f.Upstream.Name() + "+cache" }

func (f *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, lookback time.Duration) ([]model.OHLCV, error) {
	now := f.Now()
	since := now.Add(-lookback)

	entry, err := f.Store.Load(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("ticker", symbol).Msg("price cache load failed")
	} else if entry != nil && now.Sub(entry.FetchedAt) < f.TTL && entry.Lookback >= lookback {
		if bars := trimBefore(entry.Bars, since); len(bars) > 0 {
			log.Debug().Str("ticker", symbol).Int("bars", len(bars)).Msg("price cache hit")
			return bars, nil
		}
	}

	bars, err := f.Upstream.FetchDailyBars(ctx, symbol, lookback)
	if err != nil {
		return nil, err
	}
	if err := f.Store.Save(ctx, &Entry{Symbol: symbol, Bars: bars, FetchedAt: now, Lookback: lookback}); err != nil {
		log.Warn().Err(err).Str("ticker", symbol).Msg("price cache save failed")
	}
	return bars, nil
}

func trimBefore(bars []model.OHLCV, since time.Time) []model.OHLCV {
	for i, b := range bars {
		if !b.Time.Before(since) {
			return bars[i:]
		}
	}
	return nil
}
