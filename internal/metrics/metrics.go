package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"TrendScreener/internal/model"
)

// Outcome labels for TickersTotal.
const (
	OutcomeBullish      = "bullish"
	OutcomeNotBullish   = "not_bullish"
	OutcomeInsufficient = "insufficient"
	OutcomeSkipped      = "skipped"
)

// Metrics holds the Prometheus collectors of the screener. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	ScansTotal      *prometheus.CounterVec // labels: status=ok|failed
	TickersTotal    *prometheus.CounterVec // labels: outcome
	SkipsTotal      *prometheus.CounterVec // labels: reason
	FetchDuration   prometheus.Histogram
	ScanDuration    prometheus.Gauge
	LastBullish     prometheus.Gauge
	LastScanUnixSec prometheus.Gauge
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_scans_total",
			Help: "Screening passes by final status",
		}, []string{"status"}),
		TickersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_tickers_total",
			Help: "Tickers processed by outcome",
		}, []string{"outcome"}),
		SkipsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_skips_total",
			Help: "Tickers skipped by fetch failure reason",
		}, []string{"reason"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_fetch_duration_seconds",
			Help:    "Price history fetch latency per ticker",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ScanDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_scan_duration_seconds",
			Help: "Wall time of the most recent screening pass",
		}),
		LastBullish: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_bullish",
			Help: "Bullish tickers found by the most recent pass",
		}),
		LastScanUnixSec: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_scan_timestamp_seconds",
			Help: "Finish time of the most recent pass",
		}),
	}

	m.Registry.MustRegister(
		m.ScansTotal,
		m.TickersTotal,
		m.SkipsTotal,
		m.FetchDuration,
		m.ScanDuration,
		m.LastBullish,
		m.LastScanUnixSec,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one fetch latency.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// ObserveResult counts one classified ticker.
func (m *Metrics) ObserveResult(res model.ScreeningResult) {
	if m == nil {
		return
	}
	switch {
	case res.Insufficient:
		m.TickersTotal.WithLabelValues(OutcomeInsufficient).Inc()
	case res.IsBullish:
		m.TickersTotal.WithLabelValues(OutcomeBullish).Inc()
	default:
		m.TickersTotal.WithLabelValues(OutcomeNotBullish).Inc()
	}
}

// ObserveSkip counts one ticker whose fetch failed.
func (m *Metrics) ObserveSkip(reason string) {
	if m == nil {
		return
	}
	m.TickersTotal.WithLabelValues(OutcomeSkipped).Inc()
	m.SkipsTotal.WithLabelValues(reason).Inc()
}

// ObserveScan records the end of a pass. A nil report marks a failed pass.
func (m *Metrics) ObserveScan(r *model.Report, err error) {
	if m == nil {
		return
	}
	if err != nil || r == nil {
		m.ScansTotal.WithLabelValues("failed").Inc()
		return
	}
	m.ScansTotal.WithLabelValues("ok").Inc()
	m.ScanDuration.Set(r.Duration().Seconds())
	m.LastBullish.Set(float64(len(r.Bullish)))
	m.LastScanUnixSec.Set(float64(r.FinishedAt.Unix()))
}
