package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"TrendScreener/internal/cache"
	"TrendScreener/internal/collector"
	"TrendScreener/internal/config"
	"TrendScreener/internal/metrics"
	"TrendScreener/internal/scanner"
	"TrendScreener/internal/universe"
)

// buildFetcher returns the configured price source behind the history cache.
// The returned store must be closed by the caller.
func buildFetcher(c *config.Config) (collector.Fetcher, cache.Store) {
	var upstream collector.Fetcher
	ds := c.DataSource
	switch ds.Provider {
	case "rest":
		upstream = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, c.Proxy, ds.FetchTimeout, ds.RateLimit)
	default:
		upstream = collector.NewYahooFetcher(c.Proxy, ds.FetchTimeout, ds.RateLimit)
	}

	var store cache.Store = cache.NewNoopStore()
	if c.CacheEnabled() {
		s, err := cache.NewSQLiteStore(c.Cache.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Cache.SQLitePath).Msg("init sqlite cache failed, caching disabled")
		} else {
			store = s
		}
	}
	f := cache.NewCachedFetcher(upstream, store, c.Cache.TTL)
	log.Info().Str("source", f.Name()).Msg("price history source")
	return f, store
}

func buildUniverse(c *config.Config) universe.Provider {
	if c.Universe.Source == "static" {
		return universe.NewStatic(c.Universe.Tickers)
	}
	w := universe.NewWikipedia(collector.NewHTTPClient(c.DataSource.FetchTimeout, c.Proxy))
	if c.Universe.URL != "" {
		w.URL = c.Universe.URL
	}
	return w
}

func buildScanner(c *config.Config, m *metrics.Metrics) (*scanner.Scanner, cache.Store, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	fetcher, store := buildFetcher(c)
	col := collector.NewCollector(fetcher, c.Lookback())
	sc := scanner.New(col, scanner.Options{
		Concurrency:  c.Screen.Concurrency,
		FetchTimeout: c.DataSource.FetchTimeout,
	}, m)
	return sc, store, nil
}
