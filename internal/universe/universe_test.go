package universe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const constituentsPage = `<html><body>
<table class="wikitable sortable" id="constituents">
<tbody>
<tr><th>Symbol</th><th>Security</th></tr>
<tr><td><a href="#">MMM</a></td><td>3M</td></tr>
<tr><td><a href="#">BRK.B</a></td><td>Berkshire Hathaway</td></tr>
<tr><td><a href="#">BF.B</a>
</td><td>Brown-Forman</td></tr>
<tr><td>aapl</td><td>Apple Inc.</td></tr>
<tr><td>MMM</td><td>3M duplicate</td></tr>
</tbody>
</table>
<table class="wikitable"><tr><td>IGNORED</td></tr></table>
</body></html>`

func TestNormalize(t *testing.T) {
	got := Normalize([]string{" brk.b ", "AAPL", "", "aapl", "BF.B", "MSFT"})
	assert.Equal(t, []string{"AAPL", "BF-B", "BRK-B", "MSFT"}, got)
	assert.Empty(t, Normalize(nil))
}

func TestStatic(t *testing.T) {
	tickers, err := NewStatic([]string{"tsla", "AAPL", "TSLA"}).ListTickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "TSLA"}, tickers)

	_, err = NewStatic(nil).ListTickers(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestWikipedia_ListTickers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, constituentsPage)
	}))
	defer srv.Close()

	p := NewWikipedia(srv.Client())
	p.URL = srv.URL
	tickers, err := p.ListTickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "BF-B", "BRK-B", "MMM"}, tickers)
}

func TestWikipedia_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) }},
		{"no table", func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "<html><p>moved</p></html>") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p := NewWikipedia(srv.Client())
			p.URL = srv.URL
			_, err := p.ListTickers(context.Background())
			assert.ErrorIs(t, err, ErrSourceUnavailable)
		})
	}

	p := NewWikipedia(nil)
	p.URL = "http://127.0.0.1:1/unreachable"
	_, err := p.ListTickers(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
