package strategy

import (
	"fmt"

	"TrendScreener/internal/model"
)

// RSIOverbought is the RSI level at or above which a ticker is overbought.
const RSIOverbought = 70.0

// Criterion names reported in ScreeningResult.Criteria.
const (
	CriterionAboveSMA20    = "close>sma20"
	CriterionMACDOverSig   = "macd>signal"
	CriterionNotOverbought = "rsi<70"
)

// criterion evaluates one rule on a fully defined snapshot.
type criterion func(s model.Snapshot) model.CriterionResult

// criteria make up the bullish composite; all must pass.
var criteria = []criterion{
	aboveTrend,
	momentumPositive,
	notOverbought,
}

// aboveTrend: price trading above its 20-period average.
func aboveTrend(s model.Snapshot) model.CriterionResult {
	return model.CriterionResult{
		Name:       CriterionAboveSMA20,
		Passed:     s.Close.Float > s.SMA20.Float,
		Commentary: fmt.Sprintf("close=%.2f sma20=%.2f", s.Close.Float, s.SMA20.Float),
	}
}

// momentumPositive: MACD line above its signal line.
func momentumPositive(s model.Snapshot) model.CriterionResult {
	return model.CriterionResult{
		Name:       CriterionMACDOverSig,
		Passed:     s.MACD.Float > s.SignalLine.Float,
		Commentary: fmt.Sprintf("macd=%.4f signal=%.4f", s.MACD.Float, s.SignalLine.Float),
	}
}

// notOverbought: RSI below the overbought threshold.
func notOverbought(s model.Snapshot) model.CriterionResult {
	return model.CriterionResult{
		Name:       CriterionNotOverbought,
		Passed:     s.RSI.Float < RSIOverbought,
		Commentary: fmt.Sprintf("rsi=%.1f", s.RSI.Float),
	}
}
