// Package universe supplies the set of ticker symbols a screening pass runs over.
package universe

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// ErrSourceUnavailable means the ticker list could not be obtained at all.
// It is fatal to a screening pass.
var ErrSourceUnavailable = errors.New("ticker universe unavailable")

// Provider lists the tickers to screen.
type Provider interface {
	// ListTickers returns normalized, deduplicated symbols sorted ascending.
	ListTickers(ctx context.Context) ([]string, error)
	Name() string
}

// Normalize upper-cases and trims symbols, rewrites the class-suffix
// delimiter "." to the "-" the price providers expect (BRK.B -> BRK-B),
// drops blanks and duplicates, and sorts the result.
func Normalize(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		s = strings.ReplaceAll(s, ".", "-")
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Static serves a fixed list of tickers.
type Static struct {
	Tickers []string
}

// NewStatic creates a Static provider.
func NewStatic(tickers []string) *Static {
	return &Static{Tickers: tickers}
}

func (s *Static) Name() string { return "static" }

func (s *Static) ListTickers(_ context.Context) ([]string, error) {
	out := Normalize(s.Tickers)
	if len(out) == 0 {
		return nil, ErrSourceUnavailable
	}
	return out, nil
}
