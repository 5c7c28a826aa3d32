package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendScreener/internal/model"
)

func sampleReport() *model.Report {
	start := time.Date(2024, 8, 13, 22, 30, 0, 0, time.UTC)
	r := &model.Report{
		RunID:      "3f2a9c1e-0000-0000-0000-000000000000",
		Source:     "static",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Universe:   5,
	}
	r.Add(model.ScreeningResult{Ticker: "MSFT", IsBullish: true, Bars: 80,
		Last: model.Snapshot{Close: model.Some(141), RSI: model.Some(66.7)}})
	r.Add(model.ScreeningResult{Ticker: "AAPL", IsBullish: true, Bars: 60,
		Last: model.Snapshot{Close: model.Some(131), RSI: model.Some(66.7)}})
	r.Add(model.ScreeningResult{Ticker: "NEWCO", Insufficient: true, Reason: "undefined: sma20, rsi", Bars: 10})
	r.Skip(model.SkippedTicker{Ticker: "TSLA", Reason: "network", Err: "boom"})
	r.Skip(model.SkippedTicker{Ticker: "BRK-B", Reason: "not_found"})
	r.Sort()
	return r
}

func TestFormatScanReport(t *testing.T) {
	msg := FormatScanReport(sampleReport())
	assert.Contains(t, msg, "Bullish (2)")
	assert.Less(t, strings.Index(msg, "AAPL"), strings.Index(msg, "MSFT"))
	assert.Contains(t, msg, "close=131.00 rsi=66.70")
	assert.Contains(t, msg, "classified 2 | insufficient 1 | skipped 2")
	assert.Contains(t, msg, "network: TSLA")
	assert.Contains(t, msg, "not_found: BRK-B")
	assert.Contains(t, msg, "run 3f2a9c1e")
}

func TestFormatScanReportNoBullish(t *testing.T) {
	r := &model.Report{Source: "static"}
	assert.Contains(t, FormatScanReport(r), "No bullish setups.")
}

func TestFormatScanReportTruncates(t *testing.T) {
	r := &model.Report{Source: "static"}
	for i := 0; i < 1000; i++ {
		r.Skip(model.SkippedTicker{Ticker: strings.Repeat("X", 5), Reason: "network"})
	}
	msg := FormatScanReport(r)
	assert.LessOrEqual(t, len(msg), maxMessage+len("\n…"))
	assert.True(t, strings.HasSuffix(msg, "…"))
}

func TestFormatResult(t *testing.T) {
	res := model.ScreeningResult{
		Ticker: "INTC",
		Bars:   60,
		Last:   model.Snapshot{Close: model.Some(20.5), SMA20: model.Some(25.25), RSI: model.Some(0)},
		Criteria: []model.CriterionResult{
			{Name: "close>sma20", Passed: false, Commentary: "close=20.50 sma20=25.25"},
			{Name: "rsi<70", Passed: true, Commentary: "rsi=0.0"},
		},
	}
	msg := FormatResult(res)
	assert.Contains(t, msg, "<b>INTC</b>: not bullish (60 bars)")
	assert.Contains(t, msg, "✗ close&gt;sma20")
	assert.Contains(t, msg, "✓ rsi&lt;70")
	assert.Contains(t, msg, "macd=n/a")

	short := FormatResult(model.ScreeningResult{Ticker: "NEWCO", Insufficient: true, Reason: "undefined: sma20"})
	assert.Contains(t, short, "insufficient data")
	assert.Contains(t, short, "undefined: sma20")
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "bullish (2): AAPL MSFT\n")
	assert.Contains(t, out, "insufficient (1): NEWCO\n")
	assert.Contains(t, out, "skipped (2): BRK-B(not_found) TSLA(network)\n")
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "AAPL close>sma20", StripHTML("<b>AAPL</b> close&gt;sma20"))
}

func TestSendWithRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "42", payload["chat_id"])
		assert.Equal(t, "HTML", payload["parse_mode"])
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIURL = srv.URL
	tn.Backoff = time.Millisecond

	require.NoError(t, tn.SendWithRetry(context.Background(), "hi", 3))
	assert.Equal(t, int32(3), hits.Load())

	hits.Store(-100)
	err := tn.SendWithRetry(context.Background(), "hi", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 retries exhausted")
}

func TestDispatch(t *testing.T) {
	var replies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		replies = append(replies, payload["text"])
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIURL = srv.URL

	body := []byte(`{"ok":true,"result":[
		{"update_id":7,"message":{"chat":{"id":42},"text":"/last"}},
		{"update_id":8,"message":{"chat":{"id":99},"text":"/scan"}},
		{"update_id":9,"message":{"chat":{"id":42}}}
	]}`)
	var got []string
	next := tn.dispatch(context.Background(), body, 0, func(_ context.Context, cmd string) string {
		got = append(got, cmd)
		return "reply to " + cmd
	})
	assert.Equal(t, int64(10), next)
	assert.Equal(t, []string{"/last"}, got)
	assert.Equal(t, []string{"reply to /last"}, replies)

	assert.Equal(t, int64(3), tn.dispatch(context.Background(), []byte(`{"ok":false}`), 3, nil))
}
