// Package scanner runs the screener over a ticker universe with a bounded
// pool of workers.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"TrendScreener/internal/collector"
	"TrendScreener/internal/metrics"
	"TrendScreener/internal/model"
	"TrendScreener/internal/universe"
)

const (
	DefaultConcurrency  = 8
	DefaultFetchTimeout = 30 * time.Second
)

// Options bound a screening pass.
type Options struct {
	Concurrency  int           // workers fetching at once
	FetchTimeout time.Duration // deadline per ticker fetch
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	return o
}

// Scanner screens tickers independently; one ticker's failure never affects
// another's classification.
type Scanner struct {
	Collector *collector.Collector
	Options   Options
	Metrics   *metrics.Metrics
}

// New creates a Scanner. m may be nil.
func New(col *collector.Collector, opts Options, m *metrics.Metrics) *Scanner {
	return &Scanner{Collector: col, Options: opts.withDefaults(), Metrics: m}
}

// outcome is what one worker reports for one ticker.
type outcome struct {
	result model.ScreeningResult
	skip   *model.SkippedTicker
}

// RunUniverse lists the universe from p and screens it. If the universe
// cannot be obtained the pass is aborted: the returned report is empty and
// the error wraps universe.ErrSourceUnavailable.
func (s *Scanner) RunUniverse(ctx context.Context, p universe.Provider) (*model.Report, error) {
	tickers, err := p.ListTickers(ctx)
	if err != nil {
		report := newReport(p.Name(), 0)
		report.FinishedAt = report.StartedAt
		s.Metrics.ObserveScan(nil, err)
		log.Error().Err(err).Str("provider", p.Name()).Str("run_id", report.RunID).Msg("universe fetch failed, aborting pass")
		return report, fmt.Errorf("list tickers: %w", err)
	}
	report := s.Run(ctx, p.Name(), tickers)
	return report, nil
}

// Run screens tickers and returns the aggregated report, every list sorted
// by ticker. Each distinct ticker appears exactly once, either in Results
// or in Skipped.
func (s *Scanner) Run(ctx context.Context, source string, tickers []string) *model.Report {
	tickers = dedupe(tickers)
	report := newReport(source, len(tickers))
	logger := log.With().Str("run_id", report.RunID).Logger()
	logger.Info().Int("tickers", len(tickers)).Int("concurrency", s.Options.Concurrency).Msg("screening pass started")

	jobs := make(chan string)
	results := make(chan outcome)

	var wg sync.WaitGroup
	workers := s.Options.Concurrency
	if workers > len(tickers) {
		workers = len(tickers)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				results <- s.screenOne(ctx, ticker)
			}
		}()
	}

	go func() {
		for _, t := range tickers {
			jobs <- t
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for o := range results {
		if o.skip != nil {
			logger.Warn().Str("ticker", o.skip.Ticker).Str("reason", o.skip.Reason).Str("err", o.skip.Err).Msg("ticker skipped")
			s.Metrics.ObserveSkip(o.skip.Reason)
			report.Skip(*o.skip)
			continue
		}
		s.Metrics.ObserveResult(o.result)
		report.Add(o.result)
	}

	report.Sort()
	report.FinishedAt = time.Now()
	s.Metrics.ObserveScan(report, nil)

	sum := report.Summary()
	logger.Info().
		Int("bullish", sum.Bullish).
		Int("insufficient", sum.Insufficient).
		Int("skipped", sum.Skipped).
		Dur("took", report.Duration()).
		Msg("screening pass finished")
	return report
}

// screenOne fetches and classifies a single ticker under its own deadline.
func (s *Scanner) screenOne(ctx context.Context, ticker string) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{skip: &model.SkippedTicker{Ticker: ticker, Reason: "panic", Err: fmt.Sprint(r)}}
		}
	}()

	fctx, cancel := context.WithTimeout(ctx, s.Options.FetchTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.Collector.Screen(fctx, ticker)
	s.Metrics.ObserveFetch(time.Since(start))
	if err != nil {
		return outcome{skip: &model.SkippedTicker{
			Ticker: ticker,
			Reason: collector.Classify(err),
			Err:    err.Error(),
		}}
	}
	if res.Insufficient {
		log.Debug().Str("ticker", ticker).Str("reason", res.Reason).Msg("insufficient data")
	}
	return outcome{result: res}
}

func newReport(source string, universeSize int) *model.Report {
	return &model.Report{
		RunID:     uuid.NewString(),
		Source:    source,
		StartedAt: time.Now(),
		Universe:  universeSize,
	}
}

func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
