package indicators

import (
	"math"

	"TradeWolf/internal/domain/models"
)

// Neutral defaults used when a series is shorter than an indicator's
// required lookback. Downstream logic always receives usable values.
const (
	NeutralRSI   = 50.0
	NeutralADX   = 25.0
	NeutralDI    = 25.0
	NeutralStoch = 50.0
)

// Config carries the indicator periods. Values come from configuration; the
// engine hardcodes nothing but the neutral defaults above.
type Config struct {
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	FastMA     int
	SlowMA     int
	ATRPeriod  int
}

// DefaultConfig mirrors the standard parameterization.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		FastMA:     5,
		SlowMA:     20,
		ATRPeriod:  14,
	}
}

// Engine computes the fixed indicator set from one ordered OHLCV series.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.RSIPeriod <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

// Compute derives the full IndicatorSet for a series. Indicators whose
// lookback is unmet collapse to their neutral default here, at the call
// site, so the fallback is visible rather than hidden in error handling.
func (e *Engine) Compute(symbol string, s models.Series) models.IndicatorSet {
	closes := s.Closes()
	set := models.IndicatorSet{
		Symbol:      symbol,
		RSI:         NeutralRSI,
		MACDTrend:   models.TrendNeutral,
		StochK:      NeutralStoch,
		StochD:      NeutralStoch,
		ADX:         NeutralADX,
		PlusDI:      NeutralDI,
		MinusDI:     NeutralDI,
		VolumeRatio: 1,
		SampleCount: len(s),
	}
	if last, ok := s.Last(); ok {
		set.CurrentPrice = last.Close
		set.VWAP = last.Close
		set.VWAPRolling = last.Close
	}

	if v, ok := RSI(closes, e.cfg.RSIPeriod); ok {
		set.RSI = v
	}
	if m, ok := MACD(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal); ok {
		set.MACD = m.Line
		set.MACDSignal = m.Signal
		set.MACDHistogram = m.Histogram
		set.MACDTrend = m.Trend
	}
	if v, ok := SMA(closes, e.cfg.FastMA); ok {
		set.SMAFast = v
	}
	if v, ok := SMA(closes, e.cfg.SlowMA); ok {
		set.SMASlow = v
	}
	if v, ok := SMA(closes, 200); ok {
		set.SMA200 = v
	}
	if bb, ok := Bollinger(closes, 20, 2); ok {
		set.BBUpper = bb.Upper
		set.BBMiddle = bb.Middle
		set.BBLower = bb.Lower
	}
	if v, ok := ATR(s, e.cfg.ATRPeriod); ok {
		set.ATR = v
	}
	if v, ok := AnnualizedVolatility(closes, 20); ok {
		set.Volatility = v
	}
	set.VWAP = VWAP(s)
	set.VWAPRolling = RollingVWAP(s, 50)
	if k, d, ok := Stochastic(s, 14, 3); ok {
		set.StochK = k
		set.StochD = d
	}
	if adx, plus, minus, ok := DirectionalIndex(s, 14); ok {
		set.ADX = adx
		set.PlusDI = plus
		set.MinusDI = minus
	}
	if v, ok := VolumeRatio(s, 20); ok {
		set.VolumeRatio = v
	}
	return set
}

// RSI computes the relative strength index using Wilder's smoothing
// (exponential smoothing with alpha=1/period) seeded by the simple average
// of the first period gains and losses.
func RSI(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}
	gains := make([]float64, 0, len(prices)-1)
	losses := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gains = append(gains, d)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -d)
		}
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	for i := period; i < len(gains); i++ {
		avgGain = alpha*gains[i] + (1-alpha)*avgGain
		avgLoss = alpha*losses[i] + (1-alpha)*avgLoss
	}

	if avgLoss == 0 {
		if avgGain > 0 {
			return 100, true
		}
		return NeutralRSI, true
	}
	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	return math.Max(0, math.Min(100, rsi)), true
}

// MACDResult is the latest MACD line, signal, histogram and derived trend.
type MACDResult struct {
	Line      float64
	Signal    float64
	Histogram float64
	Trend     models.Trend
}

// MACD computes the moving average convergence divergence with EMAs using
// smoothing factor 2/(N+1), seeded from the first value. The trend is
// BULLISH iff macd>signal and histogram>0, BEARISH iff macd<signal and
// histogram<0, else NEUTRAL.
func MACD(prices []float64, fast, slow, signal int) (MACDResult, bool) {
	if len(prices) < slow {
		return MACDResult{Trend: models.TrendNeutral}, false
	}
	fastEMA := emaSeries(prices, fast)
	slowEMA := emaSeries(prices, slow)
	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := emaSeries(line, signal)

	r := MACDResult{
		Line:   line[len(line)-1],
		Signal: signalLine[len(signalLine)-1],
		Trend:  models.TrendNeutral,
	}
	r.Histogram = r.Line - r.Signal
	switch {
	case r.Line > r.Signal && r.Histogram > 0:
		r.Trend = models.TrendBullish
	case r.Line < r.Signal && r.Histogram < 0:
		r.Trend = models.TrendBearish
	}
	return r, true
}

func emaSeries(data []float64, period int) []float64 {
	out := make([]float64, len(data))
	if len(data) == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = data[0]
	for i := 1; i < len(data); i++ {
		out[i] = alpha*data[i] + (1-alpha)*out[i-1]
	}
	return out
}

// SMA computes the simple moving average of the trailing window.
func SMA(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), true
}

// BollingerBands are a 20-period SMA with +-2 standard deviation bands.
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger computes the bands over the trailing window.
func Bollinger(prices []float64, period int, width float64) (BollingerBands, bool) {
	mid, ok := SMA(prices, period)
	if !ok {
		return BollingerBands{}, false
	}
	variance := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		d := prices[i] - mid
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(period))
	return BollingerBands{
		Upper:  mid + width*sd,
		Middle: mid,
		Lower:  mid - width*sd,
	}, true
}

// ATR is the period-mean of the true range
// max(high-low, |high-prevClose|, |low-prevClose|).
func ATR(s models.Series, period int) (float64, bool) {
	if period <= 0 || len(s) < period+1 {
		return 0, false
	}
	sum := 0.0
	for i := len(s) - period; i < len(s); i++ {
		sum += trueRange(s[i], s[i-1].Close)
	}
	return sum / float64(period), true
}

func trueRange(c models.Candle, prevClose float64) float64 {
	return math.Max(c.High-c.Low,
		math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
}

// AnnualizedVolatility is the standard deviation of simple returns over the
// trailing window, annualized with sqrt(252).
func AnnualizedVolatility(prices []float64, window int) (float64, bool) {
	if window <= 1 || len(prices) < window+1 {
		return 0, false
	}
	rets := make([]float64, 0, window)
	for i := len(prices) - window; i < len(prices); i++ {
		if prices[i-1] == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, prices[i]/prices[i-1]-1)
	}
	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	variance := 0.0
	for _, r := range rets {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(rets))
	return math.Sqrt(variance) * math.Sqrt(252), true
}

// VWAP is cumulative price*volume over cumulative volume for the whole
// series. With zero traded volume it degrades to the latest close.
func VWAP(s models.Series) float64 {
	return vwapWindow(s, len(s))
}

// RollingVWAP is the same computation over the trailing window.
func RollingVWAP(s models.Series, window int) float64 {
	if window > len(s) {
		window = len(s)
	}
	return vwapWindow(s, window)
}

func vwapWindow(s models.Series, window int) float64 {
	if len(s) == 0 {
		return 0
	}
	var pv, vol float64
	for i := len(s) - window; i < len(s); i++ {
		typical := (s[i].High + s[i].Low + s[i].Close) / 3
		pv += typical * s[i].Volume
		vol += s[i].Volume
	}
	if vol == 0 {
		return s[len(s)-1].Close
	}
	return pv / vol
}

// Stochastic computes %K over kPeriod and %D as a dPeriod SMA of %K.
func Stochastic(s models.Series, kPeriod, dPeriod int) (k, d float64, ok bool) {
	if kPeriod <= 0 || len(s) < kPeriod+dPeriod-1 {
		return 0, 0, false
	}
	ks := make([]float64, 0, dPeriod)
	for j := 1; j <= dPeriod; j++ {
		end := len(s) - dPeriod + j
		ks = append(ks, stochK(s[:end], kPeriod))
	}
	k = ks[len(ks)-1]
	sum := 0.0
	for _, v := range ks {
		sum += v
	}
	return k, sum / float64(len(ks)), true
}

func stochK(s models.Series, period int) float64 {
	lo := math.MaxFloat64
	hi := -math.MaxFloat64
	for i := len(s) - period; i < len(s); i++ {
		lo = math.Min(lo, s[i].Low)
		hi = math.Max(hi, s[i].High)
	}
	if hi == lo {
		return NeutralStoch
	}
	return (s[len(s)-1].Close - lo) / (hi - lo) * 100
}

// DirectionalIndex follows the standard Wilder directional-movement
// formulation: smoothed +DM/-DM over smoothed TR give +DI/-DI, and ADX is
// the Wilder-smoothed DX.
func DirectionalIndex(s models.Series, period int) (adx, plusDI, minusDI float64, ok bool) {
	if period <= 0 || len(s) < 2*period+1 {
		return 0, 0, 0, false
	}

	n := len(s) - 1
	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < len(s); i++ {
		tr[i-1] = trueRange(s[i], s[i-1].Close)
		up := s[i].High - s[i-1].High
		down := s[i-1].Low - s[i].Low
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
	}

	// Wilder smoothing: seed with the plain sum, then
	// smoothed = prev - prev/period + current.
	smooth := func(xs []float64) []float64 {
		out := make([]float64, 0, len(xs)-period+1)
		sum := 0.0
		for i := 0; i < period; i++ {
			sum += xs[i]
		}
		out = append(out, sum)
		for i := period; i < len(xs); i++ {
			sum = sum - sum/float64(period) + xs[i]
			out = append(out, sum)
		}
		return out
	}
	sTR := smooth(tr)
	sPlus := smooth(plusDM)
	sMinus := smooth(minusDM)

	dx := make([]float64, len(sTR))
	var lastPlus, lastMinus float64
	for i := range sTR {
		if sTR[i] == 0 {
			continue
		}
		pdi := sPlus[i] / sTR[i] * 100
		mdi := sMinus[i] / sTR[i] * 100
		lastPlus, lastMinus = pdi, mdi
		if pdi+mdi > 0 {
			dx[i] = math.Abs(pdi-mdi) / (pdi + mdi) * 100
		}
	}
	if len(dx) < period {
		return 0, 0, 0, false
	}

	// First ADX is the mean of the first period DX values, then Wilder.
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += dx[i]
	}
	adx = sum / float64(period)
	for i := period; i < len(dx); i++ {
		adx = (adx*float64(period-1) + dx[i]) / float64(period)
	}
	return adx, lastPlus, lastMinus, true
}

// VolumeRatio is the last volume over its trailing-window mean.
func VolumeRatio(s models.Series, window int) (float64, bool) {
	if window <= 0 || len(s) < window {
		return 0, false
	}
	sum := 0.0
	for i := len(s) - window; i < len(s); i++ {
		sum += s[i].Volume
	}
	mean := sum / float64(window)
	if mean == 0 {
		return 1, true
	}
	return s[len(s)-1].Volume / mean, true
}
