package usecase

import (
	"fmt"
	"math"

	"TradeWolf/internal/domain/models"
)

// StrategyConfig carries the decision thresholds shared by all variants.
type StrategyConfig struct {
	RSIOversold   float64
	RSIOverbought float64
	MinDataLen    int

	StrictVolatilityMax float64
	StrictTrendStrength float64

	ModerateMinSignals    int
	ModerateVolatilityMax float64
	ModerateTrendStrength float64

	AdaptiveScoreThreshold float64
}

// DefaultStrategyConfig mirrors the production tuning.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		RSIOversold:            30,
		RSIOverbought:          70,
		MinDataLen:             30,
		StrictVolatilityMax:    0.3,
		StrictTrendStrength:    0.02,
		ModerateMinSignals:     3,
		ModerateVolatilityMax:  0.4,
		ModerateTrendStrength:  0.015,
		AdaptiveScoreThreshold: 70,
	}
}

// Strategy converts one instrument's indicators plus sentiment into a trade
// action. Implementations are pure functions over their inputs.
type Strategy interface {
	Mode() models.StrategyMode
	Evaluate(set models.IndicatorSet, sentiment models.Sentiment) (models.Action, string)
}

// StrictStrategy requires every condition to agree. Highest precision,
// fewest signals.
type StrictStrategy struct {
	cfg StrategyConfig
}

func NewStrictStrategy(cfg StrategyConfig) *StrictStrategy { return &StrictStrategy{cfg: cfg} }

func (s *StrictStrategy) Mode() models.StrategyMode { return models.StrategyStrict }

func (s *StrictStrategy) Evaluate(set models.IndicatorSet, sentiment models.Sentiment) (models.Action, string) {
	buy := set.RSI < s.cfg.RSIOversold &&
		set.MACDTrend == models.TrendBullish &&
		set.SMAFast > set.SMASlow &&
		sentiment == models.SentimentBullish &&
		set.Volatility < s.cfg.StrictVolatilityMax

	sell := set.RSI > s.cfg.RSIOverbought &&
		set.MACDTrend == models.TrendBearish &&
		set.SMAFast < set.SMASlow &&
		sentiment == models.SentimentBearish &&
		set.Volatility < s.cfg.StrictVolatilityMax

	switch {
	case buy:
		return models.ActionBuy, "strong buy signal with multiple confirmations"
	case sell:
		return models.ActionSell, "strong sell signal with multiple confirmations"
	default:
		return models.ActionHold, "waiting for stronger signals"
	}
}

// ModerateStrategy accumulates weighted points per condition (MACD trend
// counts double) and fires once the configurable minimum is reached.
type ModerateStrategy struct {
	cfg StrategyConfig
}

func NewModerateStrategy(cfg StrategyConfig) *ModerateStrategy { return &ModerateStrategy{cfg: cfg} }

func (s *ModerateStrategy) Mode() models.StrategyMode { return models.StrategyModerate }

func (s *ModerateStrategy) Evaluate(set models.IndicatorSet, sentiment models.Sentiment) (models.Action, string) {
	trendStrength := 0.0
	if set.SMASlow != 0 {
		trendStrength = math.Abs(set.SMAFast-set.SMASlow) / set.SMASlow
	}

	buyPoints := 0
	if set.RSI < s.cfg.RSIOversold+10 {
		buyPoints++
	}
	if set.MACDTrend == models.TrendBullish {
		buyPoints += 2
	}
	if set.SMAFast > set.SMASlow && trendStrength > s.cfg.ModerateTrendStrength {
		buyPoints++
	}
	if sentiment == models.SentimentBullish {
		buyPoints++
	}

	sellPoints := 0
	if set.RSI > 60 {
		sellPoints++
	}
	if set.MACDTrend == models.TrendBearish {
		sellPoints += 2
	}
	if set.SMAFast < set.SMASlow {
		sellPoints++
	}
	if sentiment == models.SentimentBearish {
		sellPoints++
	}

	switch {
	case buyPoints >= s.cfg.ModerateMinSignals:
		return models.ActionBuy, fmt.Sprintf("moderate buy signal (%d confirmations)", buyPoints)
	case sellPoints >= s.cfg.ModerateMinSignals:
		return models.ActionSell, fmt.Sprintf("moderate sell signal (%d confirmations)", sellPoints)
	default:
		return models.ActionHold, "insufficient signals for trade"
	}
}

// AdaptiveStrategy starts from a neutral score of 50, adds weighted
// contributions per indicator, rescales for the volatility and trend
// context, and fires on the configurable threshold split (default 70/30).
type AdaptiveStrategy struct {
	cfg StrategyConfig
}

func NewAdaptiveStrategy(cfg StrategyConfig) *AdaptiveStrategy { return &AdaptiveStrategy{cfg: cfg} }

func (s *AdaptiveStrategy) Mode() models.StrategyMode { return models.StrategyAdaptive }

func (s *AdaptiveStrategy) Evaluate(set models.IndicatorSet, sentiment models.Sentiment) (models.Action, string) {
	highVolatility := set.Volatility > s.cfg.ModerateVolatilityMax
	trendStrength := 0.0
	if set.SMASlow != 0 {
		trendStrength = math.Abs(set.SMAFast-set.SMASlow) / set.SMASlow
	}
	strongTrend := trendStrength > s.cfg.StrictTrendStrength

	// Tighter RSI bands when the market is unsettled.
	rsiBuy, rsiSell := 40.0, 60.0
	if highVolatility {
		rsiBuy, rsiSell = 35.0, 65.0
	}

	score := 50.0
	switch {
	case set.RSI < rsiBuy:
		score += 20
	case set.RSI > rsiSell:
		score -= 20
	}
	switch set.MACDTrend {
	case models.TrendBullish:
		score += 15
	case models.TrendBearish:
		score -= 15
	}
	switch sentiment {
	case models.SentimentBullish:
		score += 10
	case models.SentimentBearish:
		score -= 10
	}
	if set.SMAFast > set.SMASlow {
		score += 5
	} else {
		score -= 5
	}

	if highVolatility {
		score *= 0.8
	}
	if strongTrend {
		score *= 1.2
	}

	buyAt := s.cfg.AdaptiveScoreThreshold
	sellAt := 100 - s.cfg.AdaptiveScoreThreshold
	switch {
	case score >= buyAt:
		return models.ActionBuy, fmt.Sprintf("adaptive buy signal (score %.0f, threshold %.0f)", score, buyAt)
	case score <= sellAt:
		return models.ActionSell, fmt.Sprintf("adaptive sell signal (score %.0f, threshold %.0f)", score, sellAt)
	default:
		return models.ActionHold, fmt.Sprintf("neutral conditions (score %.0f)", score)
	}
}

// RiskLimits are the generator-level ceilings that force HOLD.
type RiskLimits struct {
	MaxDailyLoss         float64
	MaxConsecutiveLosses int
}

// Generator selects the active strategy and applies the validation that both
// BUY and SELL must clear: minimum data length and current risk limits.
type Generator struct {
	cfg    StrategyConfig
	limits RiskLimits

	strict   *StrictStrategy
	moderate *ModerateStrategy
	adaptive *AdaptiveStrategy
}

func NewGenerator(cfg StrategyConfig, limits RiskLimits) *Generator {
	return &Generator{
		cfg:      cfg,
		limits:   limits,
		strict:   NewStrictStrategy(cfg),
		moderate: NewModerateStrategy(cfg),
		adaptive: NewAdaptiveStrategy(cfg),
	}
}

// ByMode resolves a strategy by enum. Unknown modes fall back to strict.
func (g *Generator) ByMode(mode models.StrategyMode) Strategy {
	switch mode {
	case models.StrategyModerate:
		return g.moderate
	case models.StrategyAdaptive:
		return g.adaptive
	default:
		return g.strict
	}
}

// Generate produces the trade decision for one instrument. Risk-limit and
// data-length violations resolve to HOLD with an explanatory reason rather
// than an error.
func (g *Generator) Generate(mode models.StrategyMode, set models.IndicatorSet, sentiment models.Sentiment, risk models.RiskState) (models.Action, string) {
	if set.SampleCount < g.cfg.MinDataLen {
		return models.ActionHold, "insufficient data"
	}
	if risk.DailyPnL < -g.limits.MaxDailyLoss {
		return models.ActionHold, fmt.Sprintf("daily loss limit exceeded: %.2f", risk.DailyPnL)
	}
	if risk.ConsecutiveLosses >= g.limits.MaxConsecutiveLosses {
		return models.ActionHold, fmt.Sprintf("too many consecutive losses: %d", risk.ConsecutiveLosses)
	}
	return g.ByMode(mode).Evaluate(set, sentiment)
}
