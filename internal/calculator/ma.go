package calculator

import "TrendScreener/internal/model"

// SMA returns the simple moving average of values over the given period.
// Positions before the window is full are undefined, as is every position
// when period is not positive.
func SMA(values []float64, period int) []model.Value {
	out := make([]model.Value, len(values))
	if period <= 0 {
		return out
	}
	w := newWindow(period)
	for i, v := range values {
		w.push(v)
		if w.full() {
			out[i] = model.Some(w.mean())
		}
	}
	return out
}

// EMA returns the exponential moving average of values with the given span,
// seeded by the first value. Every position is defined.
func EMA(values []float64, span int) []model.Value {
	out := make([]model.Value, len(values))
	if span <= 0 {
		return out
	}
	for i, v := range emaScan(values, span) {
		out[i] = model.Some(v)
	}
	return out
}

// emaScan folds the recurrence ema[i] = a*x[i] + (1-a)*ema[i-1] left to
// right with a = 2/(span+1). It is written as ema += a*(x-ema) so a constant
// input reproduces its seed exactly.
func emaScan(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	ema := values[0]
	out[0] = ema
	for i := 1; i < len(values); i++ {
		ema += alpha * (values[i] - ema)
		out[i] = ema
	}
	return out
}
