package analytics

import (
	"math"

	"TradeWolf/internal/domain/models"
)

// Thresholds are the regime classification boundaries. All values come from
// configuration.
type Thresholds struct {
	ExtremeHourlyVol  float64
	ExtremeFineVol    float64
	ExtremeVolSurge   float64
	ExtremePriceMove  float64
	VolatileHourlyVol float64
	VolatileFineVol   float64
	VolatileVolSurge  float64
	VolatilePriceMove float64
	QuietHourlyVol    float64
	QuietFineVol      float64
	QuietVolSurge     float64
	QuietPriceMove    float64
}

// DefaultThresholds mirrors the production tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExtremeHourlyVol:  1.5,
		ExtremeFineVol:    2.0,
		ExtremeVolSurge:   3.0,
		ExtremePriceMove:  0.05,
		VolatileHourlyVol: 0.8,
		VolatileFineVol:   1.2,
		VolatileVolSurge:  2.0,
		VolatilePriceMove: 0.03,
		QuietHourlyVol:    0.3,
		QuietFineVol:      0.5,
		QuietVolSurge:     1.2,
		QuietPriceMove:    0.01,
	}
}

// Classifier maps volatility/volume statistics to a market regime. It is a
// pure function of its inputs; callers cache the result into RegimeState for
// the rest of the cycle.
type Classifier struct {
	t Thresholds
}

func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{t: t}
}

// Classify evaluates tiers in priority order: EXTREME, then VOLATILE, then
// QUIET, defaulting to NORMAL. The first match wins, so a tuple matching
// several tiers always resolves to the highest-priority one.
func (c *Classifier) Classify(m models.VolatilityMetrics) models.Regime {
	move := math.Abs(m.PriceChange1h)
	switch {
	case m.HourlyVol > c.t.ExtremeHourlyVol || m.FineVol > c.t.ExtremeFineVol ||
		m.VolumeSurge > c.t.ExtremeVolSurge || move > c.t.ExtremePriceMove:
		return models.RegimeExtreme
	case m.HourlyVol > c.t.VolatileHourlyVol || m.FineVol > c.t.VolatileFineVol ||
		m.VolumeSurge > c.t.VolatileVolSurge || move > c.t.VolatilePriceMove:
		return models.RegimeVolatile
	case m.HourlyVol < c.t.QuietHourlyVol && m.FineVol < c.t.QuietFineVol &&
		m.VolumeSurge < c.t.QuietVolSurge && move < c.t.QuietPriceMove:
		return models.RegimeQuiet
	default:
		return models.RegimeNormal
	}
}

// MeasureInputs derives the classification metrics from multi-timeframe
// series: an hourly window and a fine-grained (5m) window. Missing or short
// data fails soft: the zero metrics classify as NORMAL.
func MeasureInputs(hourly, fine models.Series) (models.VolatilityMetrics, bool) {
	var m models.VolatilityMetrics
	if len(hourly) < 25 || len(fine) < 145 {
		return m, false
	}

	m.HourlyVol = realizedVol(hourly.Closes(), 24, 24*365)
	m.FineVol = realizedVol(fine.Closes(), 144, 288*365)

	// Volume surge: latest hourly volume over its 24-period mean.
	sum := 0.0
	for i := len(hourly) - 24; i < len(hourly); i++ {
		sum += hourly[i].Volume
	}
	if avg := sum / 24; avg > 0 {
		m.VolumeSurge = hourly[len(hourly)-1].Volume / avg
	} else {
		m.VolumeSurge = 1
	}

	last := hourly[len(hourly)-1].Close
	prev := hourly[len(hourly)-2].Close
	if prev > 0 {
		m.PriceChange1h = math.Abs(last/prev - 1)
	}
	dayAgo := hourly[len(hourly)-25].Close
	if dayAgo > 0 {
		m.PriceChange24h = math.Abs(last/dayAgo - 1)
	}
	return m, true
}

// realizedVol is the rolling standard deviation of simple returns over the
// window, annualized with sqrt(barsPerYear).
func realizedVol(prices []float64, window int, barsPerYear float64) float64 {
	if len(prices) < window+1 {
		return 0
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
	return math.Sqrt(variance) * math.Sqrt(barsPerYear)
}
