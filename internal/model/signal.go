package model

import (
	"sort"
	"time"
)

// CriterionResult is the outcome of one rule of the bullish composite.
type CriterionResult struct {
	Name       string
	Passed     bool
	Commentary string
}

// ScreeningResult is the classification of one ticker at its latest bar.
type ScreeningResult struct {
	Ticker    string
	IsBullish bool

	// Insufficient is set when a decision indicator was undefined at the
	// evaluation index, so the rule could not be evaluated at all.
	Insufficient bool
	Reason       string

	Bars     int
	Last     Snapshot
	Criteria []CriterionResult
}

// SkippedTicker records a ticker whose price history could not be fetched.
type SkippedTicker struct {
	Ticker string
	Reason string
	Err    string
}

// Report aggregates one screening pass over a ticker universe.
type Report struct {
	RunID      string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Universe   int

	Bullish      []string
	Insufficient []string
	Skipped      []SkippedTicker
	Results      []ScreeningResult
}

// Summary holds the counts of a Report.
type Summary struct {
	Universe     int
	Classified   int
	Bullish      int
	Insufficient int
	Skipped      int
}

// Summary counts the outcomes in the report.
func (r *Report) Summary() Summary {
	return Summary{
		Universe:     r.Universe,
		Classified:   len(r.Results) - len(r.Insufficient),
		Bullish:      len(r.Bullish),
		Insufficient: len(r.Insufficient),
		Skipped:      len(r.Skipped),
	}
}

// Duration returns how long the pass took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Add files a result into the report. Call Sort once all results are in.
func (r *Report) Add(res ScreeningResult) {
	r.Results = append(r.Results, res)
	switch {
	case res.Insufficient:
		r.Insufficient = append(r.Insufficient, res.Ticker)
	case res.IsBullish:
		r.Bullish = append(r.Bullish, res.Ticker)
	}
}

// Skip records a ticker that could not be fetched.
func (r *Report) Skip(s SkippedTicker) {
	r.Skipped = append(r.Skipped, s)
}

// Sort orders every list by ticker symbol.
func (r *Report) Sort() {
	sort.Strings(r.Bullish)
	sort.Strings(r.Insufficient)
	sort.Slice(r.Skipped, func(i, j int) bool { return r.Skipped[i].Ticker < r.Skipped[j].Ticker })
	sort.Slice(r.Results, func(i, j int) bool { return r.Results[i].Ticker < r.Results[j].Ticker })
}
