package models

import "time"

// Regime is the qualitative market-volatility classification.
type Regime string

const (
	RegimeQuiet    Regime = "QUIET"
	RegimeNormal   Regime = "NORMAL"
	RegimeVolatile Regime = "VOLATILE"
	RegimeExtreme  Regime = "EXTREME"
)

// VolatilityMetrics are the measurements that produced a regime decision.
type VolatilityMetrics struct {
	HourlyVol      float64 `json:"hourly_vol"`
	FineVol        float64 `json:"fine_vol"`
	VolumeSurge    float64 `json:"volume_surge"`
	PriceChange1h  float64 `json:"price_change_1h"`
	PriceChange24h float64 `json:"price_change_24h"`
}

// RegimeState caches the latest classification for the current cycle.
// Mutated only by the classifier; read by the scheduler and the gate.
type RegimeState struct {
	Regime    Regime
	Hunting   bool
	Metrics   VolatilityMetrics
	CheckedAt time.Time
}
