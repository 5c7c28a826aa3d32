package strategy

import (
	"strings"

	"TrendScreener/internal/model"
)

// Classify applies the bullish composite to the most recent index of ind.
//
// If any decision indicator is undefined there, the ticker is flagged
// Insufficient and never bullish. Only the latest bar is inspected; the rule
// does not check how long ago a crossover happened.
func Classify(ticker string, ind *model.IndicatorSeries) model.ScreeningResult {
	res := model.ScreeningResult{
		Ticker: ticker,
		Bars:   ind.Len(),
		Last:   ind.Last(),
	}

	if missing := undefined(res.Last); len(missing) > 0 {
		res.Insufficient = true
		if res.Bars == 0 {
			res.Reason = "no bars"
		} else {
			res.Reason = "undefined: " + strings.Join(missing, ", ")
		}
		return res
	}

	res.IsBullish = true
	res.Criteria = make([]model.CriterionResult, 0, len(criteria))
	for _, c := range criteria {
		r := c(res.Last)
		res.Criteria = append(res.Criteria, r)
		if !r.Passed {
			res.IsBullish = false
		}
	}
	return res
}

// Failed returns the names of the criteria that did not pass.
func Failed(res model.ScreeningResult) []string {
	var names []string
	for _, c := range res.Criteria {
		if !c.Passed {
			names = append(names, c.Name)
		}
	}
	return names
}

func undefined(s model.Snapshot) []string {
	var missing []string
	if !s.Close.Valid {
		missing = append(missing, "close")
	}
	if !s.SMA20.Valid {
		missing = append(missing, "sma20")
	}
	if !s.MACD.Valid {
		missing = append(missing, "macd")
	}
	if !s.SignalLine.Valid {
		missing = append(missing, "signal")
	}
	if !s.RSI.Valid {
		missing = append(missing, "rsi")
	}
	return missing
}
