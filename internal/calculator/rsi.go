package calculator

import "TrendScreener/internal/model"

// RSI computes the relative strength index over closes.
//
// Average gain and loss are plain rolling means of the last period values,
// not Wilder's smoothing. The first difference is undefined and enters the
// gain/loss windows as 0; the index is reported from i = period onward,
// once the window holds period genuine differences.
//
// With no losses in the window the index is 100. With neither gains nor
// losses it is undefined.
func RSI(closes []float64, period int) []model.Value {
	out := make([]model.Value, len(closes))
	if period <= 0 {
		return out
	}

	gains := newWindow(period)
	losses := newWindow(period)
	for i := range closes {
		var gain, loss float64
		if i > 0 {
			delta := closes[i] - closes[i-1]
			if delta > 0 {
				gain = delta
			} else {
				loss = -delta
			}
		}
		gains.push(gain)
		losses.push(loss)

		if i < period {
			continue
		}
		out[i] = rsiFrom(gains.mean(), losses.mean())
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) model.Value {
	if avgLoss == 0 {
		if avgGain > 0 {
			return model.Some(100)
		}
		return model.None
	}
	rs := avgGain / avgLoss
	return model.Some(100.0 - 100.0/(1.0+rs))
}
