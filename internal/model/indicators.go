package model

import "fmt"

// Value is an indicator reading that may not be defined yet.
// The zero Value is undefined.
type Value struct {
	Float float64
	Valid bool
}

// Some returns a defined Value.
func Some(f float64) Value { return Value{Float: f, Valid: true} }

// None is the undefined Value.
var None = Value{}

// Get returns the reading and whether it is defined.
func (v Value) Get() (float64, bool) { return v.Float, v.Valid }

func (v Value) String() string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Float)
}

// IndicatorSeries holds every derived series for one PriceSeries.
// All slices have the same length as Close.
type IndicatorSeries struct {
	Close      []float64
	SMA20      []Value
	SMA50      []Value
	RSI14      []Value
	EMA12      []Value
	EMA26      []Value
	MACD       []Value
	SignalLine []Value
}

// Len returns the number of positions in the series.
func (s *IndicatorSeries) Len() int { return len(s.Close) }

// Snapshot holds the decision indicators at one index.
type Snapshot struct {
	Close      Value
	SMA20      Value
	MACD       Value
	SignalLine Value
	RSI        Value
}

// At returns the decision indicators at index i. Out-of-range indexes yield
// an all-undefined snapshot.
func (s *IndicatorSeries) At(i int) Snapshot {
	if i < 0 || i >= s.Len() {
		return Snapshot{}
	}
	return Snapshot{
		Close:      Some(s.Close[i]),
		SMA20:      s.SMA20[i],
		MACD:       s.MACD[i],
		SignalLine: s.SignalLine[i],
		RSI:        s.RSI14[i],
	}
}

// Last returns the decision indicators at the most recent index.
func (s *IndicatorSeries) Last() Snapshot {
	return s.At(s.Len() - 1)
}
