package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/internal/domain/repository"
	"TradeWolf/pkg/logger"

	"github.com/shopspring/decimal"
)

// CooldownConfig holds the three suppression windows plus the fallback-symbol
// window used when a scan yields no opportunities.
type CooldownConfig struct {
	Global       time.Duration
	Symbol       time.Duration
	SymbolAction time.Duration
	Fallback     time.Duration
}

func DefaultCooldownConfig() CooldownConfig {
	return CooldownConfig{
		Global:       45 * time.Second,
		Symbol:       90 * time.Second,
		SymbolAction: 180 * time.Second,
		Fallback:     60 * time.Second,
	}
}

// CooldownTable tracks the last emission times for the three cooldown tiers.
// TryAcquire is the only entry point; check and update happen under one lock
// so concurrent candidates for the same instrument cannot both clear.
type CooldownTable struct {
	mu sync.Mutex

	cfg          CooldownConfig
	lastGlobal   time.Time
	lastSymbol   map[string]time.Time
	lastCombined map[string]time.Time
	lastFallback time.Time
}

func NewCooldownTable(cfg CooldownConfig) *CooldownTable {
	return &CooldownTable{
		cfg:          cfg,
		lastSymbol:   make(map[string]time.Time),
		lastCombined: make(map[string]time.Time),
	}
}

// TryAcquire reports whether a signal for symbol+action may be emitted at
// now, and records the emission if so. Suppressed signals leave the table
// untouched.
func (t *CooldownTable) TryAcquire(symbol string, action models.Action, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	combined := symbol + ":" + string(action)
	if !t.lastGlobal.IsZero() && now.Sub(t.lastGlobal) < t.cfg.Global {
		return false
	}
	if last, ok := t.lastSymbol[symbol]; ok && now.Sub(last) < t.cfg.Symbol {
		return false
	}
	if last, ok := t.lastCombined[combined]; ok && now.Sub(last) < t.cfg.SymbolAction {
		return false
	}

	t.lastGlobal = now
	t.lastSymbol[symbol] = now
	t.lastCombined[combined] = now
	return true
}

// TryFallback gates how often the default instrument may substitute for an
// empty scan result.
func (t *CooldownTable) TryFallback(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.lastFallback.IsZero() && now.Sub(t.lastFallback) < t.cfg.Fallback {
		return false
	}
	t.lastFallback = now
	return true
}

// Gate applies the pre-emission checks to every candidate decision: balance
// feasibility first (demotes to HOLD), then the cooldown tiers (drops the
// signal entirely).
type Gate struct {
	account   repository.Account
	cooldowns *CooldownTable
	log       *logger.Logger

	minTradeValue decimal.Decimal
	quoteAsset    string

	now func() time.Time
}

func NewGate(account repository.Account, cooldowns *CooldownTable, minTradeValue float64, quoteAsset string, log *logger.Logger) *Gate {
	return &Gate{
		account:       account,
		cooldowns:     cooldowns,
		log:           log,
		minTradeValue: decimal.NewFromFloat(minTradeValue),
		quoteAsset:    quoteAsset,
		now:           time.Now,
	}
}

// Clear runs a candidate decision through balance and cooldown checks. The
// returned decision may be demoted to HOLD; emit is false when the cooldown
// tiers drop it.
func (g *Gate) Clear(ctx context.Context, d models.TradeDecision) (models.TradeDecision, bool) {
	d = g.checkBalance(ctx, d)

	if !g.cooldowns.TryAcquire(d.Symbol, d.Action, g.now()) {
		g.log.Debug("signal suppressed by cooldown",
			logger.String("symbol", d.Symbol),
			logger.String("action", string(d.Action)))
		return d, false
	}
	return d, true
}

// checkBalance demotes BUY and SELL decisions the account cannot cover. The
// executor must never see an unfillable order.
func (g *Gate) checkBalance(ctx context.Context, d models.TradeDecision) models.TradeDecision {
	switch d.Action {
	case models.ActionSell:
		base := baseAsset(d.Symbol, g.quoteAsset)
		free, err := g.account.GetFreeBalance(ctx, base)
		if err != nil {
			g.log.Warn("balance check failed, demoting to HOLD",
				logger.String("asset", base), logger.Error(err))
			return demote(d, "balance unavailable")
		}
		rules, err := g.account.GetTradableRules(ctx, d.Symbol)
		if err != nil {
			g.log.Warn("trading rules unavailable, demoting to HOLD",
				logger.String("symbol", d.Symbol), logger.Error(err))
			return demote(d, "trading rules unavailable")
		}
		if free.LessThan(rules.MinQuantity) {
			return demote(d, "no "+base+" balance to sell")
		}
	case models.ActionBuy:
		free, err := g.account.GetFreeBalance(ctx, g.quoteAsset)
		if err != nil {
			g.log.Warn("balance check failed, demoting to HOLD",
				logger.String("asset", g.quoteAsset), logger.Error(err))
			return demote(d, "balance unavailable")
		}
		if free.LessThan(g.minTradeValue) {
			return demote(d, "insufficient "+g.quoteAsset+" for minimum trade")
		}
	}
	return d
}

func demote(d models.TradeDecision, reason string) models.TradeDecision {
	d.Action = models.ActionHold
	d.Reason = reason
	return d
}

// baseAsset strips the quote suffix from a symbol, e.g. BTCUSDT -> BTC.
func baseAsset(symbol, quote string) string {
	return strings.TrimSuffix(symbol, quote)
}
