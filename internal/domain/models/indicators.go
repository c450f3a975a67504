package models

// Trend is the MACD-derived trend classification.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

// IndicatorSet holds the latest value of every technical indicator computed
// from one series. It is recomputed on every scan and carries no identity
// beyond the scan that produced it.
type IndicatorSet struct {
	Symbol string

	RSI           float64
	MACD          float64
	MACDSignal    float64
	MACDHistogram float64
	MACDTrend     Trend

	SMAFast float64 // 5-period
	SMASlow float64 // 20-period
	SMA200  float64

	BBUpper  float64
	BBMiddle float64
	BBLower  float64

	ATR        float64
	Volatility float64 // annualized close-to-close

	VWAP        float64 // cumulative over the series
	VWAPRolling float64 // 50-period rolling

	StochK float64
	StochD float64

	ADX     float64
	PlusDI  float64
	MinusDI float64

	VolumeRatio  float64 // last volume over its 20-period mean
	CurrentPrice float64
	SampleCount  int
}
