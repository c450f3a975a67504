package usecase

import (
	"context"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/pkg/logger"
)

// SchedulerConfig maps regimes to scan intervals and tunes the hunting-mode
// trigger evaluation.
type SchedulerConfig struct {
	QuietInterval    time.Duration
	NormalInterval   time.Duration
	VolatileInterval time.Duration
	ExtremeInterval  time.Duration
	HuntingInterval  time.Duration

	RegimeCheckInterval time.Duration
	HuntingTriggers     int

	USHours    []int
	AsianHours []int
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		QuietInterval:       time.Hour,
		NormalInterval:      30 * time.Minute,
		VolatileInterval:    15 * time.Minute,
		ExtremeInterval:     10 * time.Minute,
		HuntingInterval:     5 * time.Minute,
		RegimeCheckInterval: 5 * time.Minute,
		HuntingTriggers:     3,
		USHours:             []int{16, 17, 18, 19, 20, 21, 22, 23},
		AsianHours:          []int{2, 3, 4, 5, 6, 7, 8, 9},
	}
}

// RegimeProber re-measures the current regime between scheduled scans.
type RegimeProber func(ctx context.Context) (models.Regime, error)

// BreakoutProber performs a cheap breakout sweep while the market is extreme.
type BreakoutProber func(ctx context.Context) ([]models.Opportunity, error)

// Scheduler decides when the next scan runs and whether the loop should be
// hunting. It owns no goroutines; the supervisor drives it.
type Scheduler struct {
	cfg SchedulerConfig
	log *logger.Logger

	probeRegime   RegimeProber
	probeBreakout BreakoutProber

	lastRegimeCheck time.Time

	now func() time.Time
}

func NewScheduler(cfg SchedulerConfig, probeRegime RegimeProber, probeBreakout BreakoutProber, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cfg:           cfg,
		log:           log,
		probeRegime:   probeRegime,
		probeBreakout: probeBreakout,
		now:           time.Now,
	}
}

// Interval computes the sleep until the next scan. EXTREME or enough hunting
// triggers switch the loop into hunting mode with the shortest interval.
func (s *Scheduler) Interval(regime models.RegimeState, risk models.RiskState) (time.Duration, bool) {
	if hunting := s.huntingTriggers(regime, risk) >= s.cfg.HuntingTriggers || regime.Regime == models.RegimeExtreme; hunting {
		return s.cfg.HuntingInterval, true
	}
	switch regime.Regime {
	case models.RegimeQuiet:
		return s.cfg.QuietInterval, false
	case models.RegimeVolatile:
		return s.cfg.VolatileInterval, false
	case models.RegimeExtreme:
		return s.cfg.ExtremeInterval, false
	default:
		return s.cfg.NormalInterval, false
	}
}

// huntingTriggers counts the independent reasons to tighten the loop: active
// market sessions, short-term volatility, and a recent winning streak.
func (s *Scheduler) huntingTriggers(regime models.RegimeState, risk models.RiskState) int {
	hour := s.now().UTC().Hour()
	triggers := 0
	if containsHour(s.cfg.USHours, hour) {
		triggers++
	}
	if containsHour(s.cfg.AsianHours, hour) {
		triggers++
	}
	if regime.Metrics.VolumeSurge > 2.5 || abs(regime.Metrics.PriceChange1h) > 0.03 {
		triggers += 2
	}
	if risk.ConsecutiveWins >= 2 {
		triggers++
	}
	return triggers
}

// ShouldScan reports whether a scan is due at this wakeup and why. Between
// scheduled scans it re-probes the regime every RegimeCheckInterval and can
// force an early scan on a VOLATILE or EXTREME reading, or on a breakout hit
// while EXTREME. Probe failures never force a scan.
func (s *Scheduler) ShouldScan(ctx context.Context, nextScanAt time.Time, regime models.Regime) (bool, string) {
	now := s.now()
	if nextScanAt.IsZero() {
		return true, "initial scan"
	}
	if !now.Before(nextScanAt) {
		return true, "scheduled"
	}

	if now.Sub(s.lastRegimeCheck) >= s.cfg.RegimeCheckInterval {
		s.lastRegimeCheck = now
		probed, err := s.probeRegime(ctx)
		if err != nil {
			s.log.Debug("regime probe failed", logger.Error(err))
		} else {
			regime = probed
			if probed == models.RegimeExtreme || probed == models.RegimeVolatile {
				return true, "regime shift to " + string(probed)
			}
		}
	}

	if regime == models.RegimeExtreme {
		opps, err := s.probeBreakout(ctx)
		if err != nil {
			s.log.Debug("breakout probe failed", logger.Error(err))
		} else if len(opps) > 0 {
			return true, "breakout detected: " + opps[0].Symbol
		}
	}
	return false, ""
}

func containsHour(hours []int, h int) bool {
	for _, v := range hours {
		if v == h {
			return true
		}
	}
	return false
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
