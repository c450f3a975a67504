package models

import "time"

// Candle represents one OHLCV sample for a symbol/timeframe.
type Candle struct {
	OpenTime time.Time
	Symbol   string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Series is an ordered slice of candles with strictly increasing timestamps.
// Append-only; owned by the caller of the indicator engine.
type Series []Candle

// Closes returns the close prices in order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Close
	}
	return out
}

// Last returns the most recent candle and true, or a zero candle and false.
func (s Series) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}

// Valid reports whether timestamps are strictly increasing.
func (s Series) Valid() bool {
	for i := 1; i < len(s); i++ {
		if !s[i].OpenTime.After(s[i-1].OpenTime) {
			return false
		}
	}
	return true
}

// Ticker24h is the 24-hour rolling statistics for a symbol.
type Ticker24h struct {
	Symbol         string
	LastPrice      float64
	QuoteVolume    float64
	PriceChangePct float64
}
