package repository

import "time"

// Timeframe is a venue candle interval.
type Timeframe string

const (
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
	TF1h Timeframe = "1h"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1m, TF5m, TF1h:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default scan timeframe.
func DefaultTimeframe() Timeframe { return TF5m }

// NormalizeTimeframe converts a raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Duration returns the candle width of a timeframe.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF1m:
		return time.Minute
	case TF5m:
		return 5 * time.Minute
	case TF1h:
		return time.Hour
	default:
		return time.Minute
	}
}

// BarsPerYear returns the approximate number of bars per year, used to
// annualize realized volatility.
func (tf Timeframe) BarsPerYear() float64 {
	switch tf {
	case TF1m:
		return 365 * 24 * 60
	case TF5m:
		return 365 * 24 * 12
	case TF1h:
		return 365 * 24
	default:
		return 365 * 24 * 60
	}
}
