package models

import (
	"sync"
	"time"
)

// LoopState is the supervisor state machine.
type LoopState string

const (
	LoopStarting     LoopState = "STARTING"
	LoopRunning      LoopState = "RUNNING"
	LoopErrorBackoff LoopState = "ERROR_BACKOFF"
	LoopStopped      LoopState = "STOPPED"
)

// StatusSnapshot is the read-only view handed to external collaborators.
type StatusSnapshot struct {
	State         LoopState                `json:"state"`
	Regime        Regime                   `json:"regime"`
	Hunting       bool                     `json:"hunting"`
	Metrics       VolatilityMetrics        `json:"volatility_metrics"`
	Strategy      StrategyMode             `json:"strategy"`
	NextScanAt    time.Time                `json:"next_scan_at"`
	ScanInterval  time.Duration            `json:"scan_interval"`
	Risk          RiskState                `json:"risk"`
	LastDecisions map[string]TradeDecision `json:"last_decisions"`
	Connected     bool                     `json:"connected"`
	ErrorCount    int                      `json:"error_count"`
	LastError     string                   `json:"last_error"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// BotStatus aggregates process-wide state. The control-loop worker is the
// sole writer; readers take a consistent snapshot under the lock rather than
// observing partially-updated fields.
type BotStatus struct {
	mu sync.RWMutex

	state        LoopState
	regime       RegimeState
	strategy     StrategyMode
	nextScanAt   time.Time
	scanInterval time.Duration
	risk         RiskState
	decisions    map[string]TradeDecision
	connected    bool
	errorCount   int
	lastError    string
	updatedAt    time.Time
}

// NewBotStatus creates the initial status with default values.
func NewBotStatus(strategy StrategyMode) *BotStatus {
	return &BotStatus{
		state:     LoopStarting,
		strategy:  strategy,
		regime:    RegimeState{Regime: RegimeNormal},
		decisions: make(map[string]TradeDecision),
		updatedAt: time.Now(),
	}
}

// Snapshot returns a consistent copy for external readers.
func (b *BotStatus) Snapshot() StatusSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	decisions := make(map[string]TradeDecision, len(b.decisions))
	for k, v := range b.decisions {
		decisions[k] = v
	}
	return StatusSnapshot{
		State:         b.state,
		Regime:        b.regime.Regime,
		Hunting:       b.regime.Hunting,
		Metrics:       b.regime.Metrics,
		Strategy:      b.strategy,
		NextScanAt:    b.nextScanAt,
		ScanInterval:  b.scanInterval,
		Risk:          b.risk,
		LastDecisions: decisions,
		Connected:     b.connected,
		ErrorCount:    b.errorCount,
		LastError:     b.lastError,
		UpdatedAt:     b.updatedAt,
	}
}

func (b *BotStatus) SetState(s LoopState) {
	b.mu.Lock()
	b.state = s
	b.updatedAt = time.Now()
	b.mu.Unlock()
}

func (b *BotStatus) State() LoopState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *BotStatus) SetRegime(rs RegimeState) {
	b.mu.Lock()
	b.regime = rs
	b.updatedAt = time.Now()
	b.mu.Unlock()
}

func (b *BotStatus) Regime() RegimeState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.regime
}

func (b *BotStatus) SetStrategy(m StrategyMode) {
	b.mu.Lock()
	b.strategy = m
	b.updatedAt = time.Now()
	b.mu.Unlock()
}

func (b *BotStatus) Strategy() StrategyMode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.strategy
}

// SetSchedule records the next scan time and the interval that produced it.
func (b *BotStatus) SetSchedule(next time.Time, interval time.Duration) {
	b.mu.Lock()
	b.nextScanAt = next
	b.scanInterval = interval
	b.updatedAt = time.Now()
	b.mu.Unlock()
}

func (b *BotStatus) NextScanAt() (time.Time, time.Duration) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nextScanAt, b.scanInterval
}

// ForceScan overrides the next scan time so the worker scans on next wake.
func (b *BotStatus) ForceScan(now time.Time) {
	b.mu.Lock()
	b.nextScanAt = now
	b.updatedAt = now
	b.mu.Unlock()
}

func (b *BotStatus) SetConnected(ok bool) {
	b.mu.Lock()
	b.connected = ok
	b.updatedAt = time.Now()
	b.mu.Unlock()
}

func (b *BotStatus) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

func (b *BotStatus) RecordDecision(d TradeDecision) {
	b.mu.Lock()
	b.decisions[d.Symbol] = d
	b.updatedAt = time.Now()
	b.mu.Unlock()
}

func (b *BotStatus) RecordError(err error) {
	b.mu.Lock()
	b.errorCount++
	b.lastError = err.Error()
	b.updatedAt = time.Now()
	b.mu.Unlock()
}

// ApplyOutcome folds a trade outcome into the risk state.
func (b *BotStatus) ApplyOutcome(o TradeOutcome) {
	b.mu.Lock()
	b.risk.Apply(o)
	b.updatedAt = time.Now()
	b.mu.Unlock()
}

func (b *BotStatus) Risk() RiskState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.risk
}
