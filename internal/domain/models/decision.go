package models

import "time"

// Action is the outcome of signal generation.
type Action string

const (
	ActionHold Action = "HOLD"
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Sentiment is the external market-sentiment scalar.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// StrategyMode selects which strategy variant generates signals.
type StrategyMode string

const (
	StrategyStrict   StrategyMode = "STRICT"
	StrategyModerate StrategyMode = "MODERATE"
	StrategyAdaptive StrategyMode = "ADAPTIVE"
)

// ParseStrategyMode maps a user-supplied name to a mode, defaulting to STRICT.
func ParseStrategyMode(s string) (StrategyMode, bool) {
	switch StrategyMode(s) {
	case StrategyStrict, StrategyModerate, StrategyAdaptive:
		return StrategyMode(s), true
	}
	return StrategyStrict, false
}

// TradeDecision is immutable once created.
type TradeDecision struct {
	Symbol     string
	Action     Action
	Reason     string
	Price      float64
	Indicators IndicatorSet
	Strategy   StrategyMode
	CreatedAt  time.Time
}

// ExecutionResult is what the external executor reports back.
type ExecutionResult struct {
	Status    string
	OrderID   string
	FillPrice float64
	FillValue float64
	Fee       float64
}
