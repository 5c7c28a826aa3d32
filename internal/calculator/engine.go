package calculator

import "TrendScreener/internal/model"

// Params holds the window and span lengths used by Compute.
type Params struct {
	ShortSMA   int
	LongSMA    int
	RSI        int
	FastEMA    int
	SlowEMA    int
	SignalSpan int
}

// DefaultParams are the standard 20/50 SMA, RSI(14) and MACD(12,26,9).
var DefaultParams = Params{
	ShortSMA:   20,
	LongSMA:    50,
	RSI:        14,
	FastEMA:    12,
	SlowEMA:    26,
	SignalSpan: 9,
}

// Compute derives every indicator series from the closes of series using
// DefaultParams. Short or empty input is not an error: positions whose window
// is not yet available are left undefined.
func Compute(series model.PriceSeries) *model.IndicatorSeries {
	return ComputeWith(series.Closes(), DefaultParams)
}

// ComputeWith derives the indicator series from closes with custom params.
// The closes slice is copied, never modified.
func ComputeWith(closes []float64, p Params) *model.IndicatorSeries {
	c := make([]float64, len(closes))
	copy(c, closes)

	macd, signal := MACD(c, p.FastEMA, p.SlowEMA, p.SignalSpan)
	return &model.IndicatorSeries{
		Close:      c,
		SMA20:      SMA(c, p.ShortSMA),
		SMA50:      SMA(c, p.LongSMA),
		RSI14:      RSI(c, p.RSI),
		EMA12:      EMA(c, p.FastEMA),
		EMA26:      EMA(c, p.SlowEMA),
		MACD:       macd,
		SignalLine: signal,
	}
}
