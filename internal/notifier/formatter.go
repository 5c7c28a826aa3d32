package notifier

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"TrendScreener/internal/model"
)

// maxMessage keeps reports under Telegram's 4096 character limit.
const maxMessage = 4000

// FormatScanReport formats a screening report into a Telegram message.
func FormatScanReport(r *model.Report) string {
	var b strings.Builder
	sum := r.Summary()

	b.WriteString(fmt.Sprintf("📈 <b>Bullish screen</b> | %s\n", r.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("universe: %s (%d) | run %s\n\n", html.EscapeString(r.Source), sum.Universe, shortID(r.RunID)))

	if sum.Bullish == 0 {
		b.WriteString("No bullish setups.\n")
	} else {
		b.WriteString(fmt.Sprintf("<b>Bullish (%d):</b>\n", sum.Bullish))
		byTicker := make(map[string]model.ScreeningResult, len(r.Results))
		for _, res := range r.Results {
			byTicker[res.Ticker] = res
		}
		for _, t := range r.Bullish {
			res := byTicker[t]
			b.WriteString(fmt.Sprintf("  %s close=%s rsi=%s\n", html.EscapeString(t), res.Last.Close, res.Last.RSI))
		}
	}

	b.WriteString(fmt.Sprintf("\nclassified %d | insufficient %d | skipped %d | %s\n",
		sum.Classified, sum.Insufficient, sum.Skipped, r.Duration().Round(100*time.Millisecond)))

	if sum.Skipped > 0 {
		b.WriteString("\n<b>Skipped:</b>\n")
		groups := groupSkipped(r.Skipped)
		for _, reason := range sortedKeys(groups) {
			tickers := groups[reason]
			b.WriteString(fmt.Sprintf("  %s: %s\n", reason, html.EscapeString(strings.Join(tickers, " "))))
		}
	}
	return truncate(b.String())
}

// FormatResult formats a single ticker's classification with diagnostics.
func FormatResult(res model.ScreeningResult) string {
	var b strings.Builder
	verdict := "not bullish"
	switch {
	case res.Insufficient:
		verdict = "insufficient data"
	case res.IsBullish:
		verdict = "bullish ✅"
	}
	b.WriteString(fmt.Sprintf("<b>%s</b>: %s (%d bars)\n", html.EscapeString(res.Ticker), verdict, res.Bars))
	if res.Insufficient {
		b.WriteString(html.EscapeString(res.Reason) + "\n")
	}
	b.WriteString(fmt.Sprintf("close=%s sma20=%s macd=%s signal=%s rsi=%s\n",
		res.Last.Close, res.Last.SMA20, res.Last.MACD, res.Last.SignalLine, res.Last.RSI))
	for _, c := range res.Criteria {
		mark := "✗"
		if c.Passed {
			mark = "✓"
		}
		b.WriteString(fmt.Sprintf("  %s %s (%s)\n", mark, html.EscapeString(c.Name), c.Commentary))
	}
	return b.String()
}

// WriteText writes a plain-text report, one line per section.
func WriteText(w io.Writer, r *model.Report) error {
	sum := r.Summary()
	lines := []string{
		fmt.Sprintf("run %s source=%s universe=%d took=%s", r.RunID, r.Source, sum.Universe, r.Duration().Round(time.Millisecond)),
		fmt.Sprintf("bullish (%d): %s", sum.Bullish, strings.Join(r.Bullish, " ")),
		fmt.Sprintf("insufficient (%d): %s", sum.Insufficient, strings.Join(r.Insufficient, " ")),
	}
	skipped := make([]string, 0, len(r.Skipped))
	for _, s := range r.Skipped {
		skipped = append(skipped, s.Ticker+"("+s.Reason+")")
	}
	lines = append(lines, fmt.Sprintf("skipped (%d): %s", sum.Skipped, strings.Join(skipped, " ")))
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Commands:\n• /scan run a screening pass now\n• /last show the latest report\n• /ticker SYM screen one ticker"
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// StripHTML removes markup and unescapes entities.
func StripHTML(s string) string {
	return html.UnescapeString(tagRe.ReplaceAllString(s, ""))
}

func groupSkipped(skipped []model.SkippedTicker) map[string][]string {
	out := make(map[string][]string)
	for _, s := range skipped {
		out[s.Reason] = append(out[s.Reason], s.Ticker)
	}
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string) string {
	if len(s) <= maxMessage {
		return s
	}
	cut := strings.LastIndex(s[:maxMessage], "\n")
	if cut < 0 {
		cut = maxMessage
	}
	return s[:cut] + "\n…"
}
