package calculator

import "TrendScreener/internal/model"

// MACD returns the MACD line (fast EMA minus slow EMA) and its signal line,
// the EMA of the MACD line over signalSpan.
func MACD(closes []float64, fastSpan, slowSpan, signalSpan int) (macd, signal []model.Value) {
	macd = make([]model.Value, len(closes))
	signal = make([]model.Value, len(closes))
	if fastSpan <= 0 || slowSpan <= 0 || signalSpan <= 0 {
		return macd, signal
	}

	fast := emaScan(closes, fastSpan)
	slow := emaScan(closes, slowSpan)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
		macd[i] = model.Some(line[i])
	}
	for i, v := range emaScan(line, signalSpan) {
		signal[i] = model.Some(v)
	}
	return macd, signal
}
