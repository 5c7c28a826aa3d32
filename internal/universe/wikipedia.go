package universe

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// SP500URL is the Wikipedia page listing the S&P 500 constituents.
const SP500URL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// Wikipedia scrapes the first column of a constituents table.
type Wikipedia struct {
	URL    string
	Table  string // CSS selector of the table
	Client *http.Client
}

// NewWikipedia creates a provider for the S&P 500 constituents page.
func NewWikipedia(client *http.Client) *Wikipedia {
	if client == nil {
		client = http.DefaultClient
	}
	return &Wikipedia{
		URL:    SP500URL,
		Table:  "table#constituents",
		Client: client,
	}
}

func (w *Wikipedia) Name() string { return "wikipedia" }

func (w *Wikipedia) ListTickers(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", ErrSourceUnavailable, w.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch %s: status %d", ErrSourceUnavailable, w.URL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", ErrSourceUnavailable, err)
	}

	table := doc.Find(w.Table).First()
	if table.Length() == 0 {
		// Fall back to the first sortable wikitable.
		table = doc.Find("table.wikitable").First()
	}

	var symbols []string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return
		}
		symbols = append(symbols, strings.TrimSpace(cell.Text()))
	})

	tickers := Normalize(symbols)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: no symbols found in %s", ErrSourceUnavailable, w.URL)
	}
	log.Info().Str("provider", w.Name()).Int("tickers", len(tickers)).Msg("ticker universe loaded")
	return tickers, nil
}
