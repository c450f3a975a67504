package models

// Opportunity is one instrument's composite score for the current cycle.
// Created fresh each scan; ordering is by descending score with discovery
// order breaking ties.
type Opportunity struct {
	Symbol      string
	Score       float64
	Signals     []string
	Price       float64
	VolumeRatio float64
	RSI         float64
	MACDTrend   Trend
	CanSell     bool
}
