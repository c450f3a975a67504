package usecase

import (
	"context"
	"testing"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/internal/domain/repository"
	"TradeWolf/pkg/logger"

	"github.com/shopspring/decimal"
)

type fakeAccount struct {
	balances map[string]decimal.Decimal
	rules    repository.TradableRules
	err      error
}

func (a *fakeAccount) GetFreeBalance(_ context.Context, asset string) (decimal.Decimal, error) {
	if a.err != nil {
		return decimal.Zero, a.err
	}
	return a.balances[asset], nil
}

func (a *fakeAccount) GetTradableRules(_ context.Context, _ string) (repository.TradableRules, error) {
	if a.err != nil {
		return repository.TradableRules{}, a.err
	}
	return a.rules, nil
}

func richAccount() *fakeAccount {
	return &fakeAccount{
		balances: map[string]decimal.Decimal{
			"USDT": decimal.NewFromInt(1000),
			"BTC":  decimal.NewFromFloat(0.5),
		},
		rules: repository.TradableRules{
			MinQuantity: decimal.NewFromFloat(0.0001),
			StepSize:    decimal.NewFromFloat(0.0001),
		},
	}
}

func newTestGate(account repository.Account) (*Gate, func(time.Time)) {
	g := NewGate(account, NewCooldownTable(DefaultCooldownConfig()), 10, "USDT", logger.Nop())
	at := time.Unix(1_700_000_000, 0)
	g.now = func() time.Time { return at }
	return g, func(t time.Time) { at = t }
}

func buyDecision(symbol string) models.TradeDecision {
	return models.TradeDecision{Symbol: symbol, Action: models.ActionBuy, Price: 100}
}

func sellDecision(symbol string) models.TradeDecision {
	return models.TradeDecision{Symbol: symbol, Action: models.ActionSell, Price: 100}
}

func TestCooldownSuppressesWithinSymbolWindow(t *testing.T) {
	table := NewCooldownTable(DefaultCooldownConfig())
	start := time.Unix(1_700_000_000, 0)

	if !table.TryAcquire("BTCUSDT", models.ActionBuy, start) {
		t.Fatal("first signal should pass")
	}
	// 30s later: past the 45s global window? No, and also inside the 90s
	// per-instrument window.
	if table.TryAcquire("BTCUSDT", models.ActionSell, start.Add(30*time.Second)) {
		t.Fatal("signal 30s after the first should be suppressed")
	}
}

func TestCooldownAllowsAfterSymbolWindow(t *testing.T) {
	table := NewCooldownTable(DefaultCooldownConfig())
	start := time.Unix(1_700_000_000, 0)

	if !table.TryAcquire("BTCUSDT", models.ActionBuy, start) {
		t.Fatal("first signal should pass")
	}
	// 100s later: global (45s) and per-instrument (90s) windows have both
	// elapsed; a different action type avoids the 180s combined window.
	if !table.TryAcquire("BTCUSDT", models.ActionSell, start.Add(100*time.Second)) {
		t.Fatal("different action 100s later should pass")
	}
}

func TestCooldownSymbolActionWindowOutlivesSymbolWindow(t *testing.T) {
	table := NewCooldownTable(DefaultCooldownConfig())
	start := time.Unix(1_700_000_000, 0)

	if !table.TryAcquire("BTCUSDT", models.ActionBuy, start) {
		t.Fatal("first signal should pass")
	}
	// 100s later the global and per-instrument windows have passed but the
	// same action type is still inside its 180s window.
	if table.TryAcquire("BTCUSDT", models.ActionBuy, start.Add(100*time.Second)) {
		t.Fatal("identical action within 180s should be suppressed")
	}
	// Suppression must not refresh the windows: the same signal clears once
	// the original 180s expire.
	if !table.TryAcquire("BTCUSDT", models.ActionBuy, start.Add(181*time.Second)) {
		t.Fatal("identical action after 180s should pass")
	}
}

func TestCooldownTiersAreIndependentPerSymbol(t *testing.T) {
	table := NewCooldownTable(DefaultCooldownConfig())
	start := time.Unix(1_700_000_000, 0)

	if !table.TryAcquire("BTCUSDT", models.ActionBuy, start) {
		t.Fatal("first signal should pass")
	}
	// A different instrument is blocked only by the 45s global window.
	if table.TryAcquire("ETHUSDT", models.ActionBuy, start.Add(30*time.Second)) {
		t.Fatal("global window should suppress other instruments")
	}
	if !table.TryAcquire("ETHUSDT", models.ActionBuy, start.Add(50*time.Second)) {
		t.Fatal("other instrument should pass after the global window")
	}
}

func TestFallbackCooldown(t *testing.T) {
	table := NewCooldownTable(DefaultCooldownConfig())
	start := time.Unix(1_700_000_000, 0)

	if !table.TryFallback(start) {
		t.Fatal("first fallback should pass")
	}
	if table.TryFallback(start.Add(30 * time.Second)) {
		t.Fatal("fallback within 60s should be suppressed")
	}
	if !table.TryFallback(start.Add(61 * time.Second)) {
		t.Fatal("fallback after 60s should pass")
	}
}

func TestGateDemotesSellWithoutBalance(t *testing.T) {
	account := richAccount()
	account.balances["BTC"] = decimal.Zero
	g, _ := newTestGate(account)

	d, emit := g.Clear(context.Background(), sellDecision("BTCUSDT"))
	if !emit {
		t.Fatal("demoted HOLD should still be emitted")
	}
	if d.Action != models.ActionHold {
		t.Fatalf("Action = %s, want HOLD when base balance is zero", d.Action)
	}
}

func TestGateDemotesBuyBelowMinTradeValue(t *testing.T) {
	account := richAccount()
	account.balances["USDT"] = decimal.NewFromInt(5)
	g, _ := newTestGate(account)

	d, emit := g.Clear(context.Background(), buyDecision("BTCUSDT"))
	if !emit {
		t.Fatal("demoted HOLD should still be emitted")
	}
	if d.Action != models.ActionHold {
		t.Fatalf("Action = %s, want HOLD below minimum trade value", d.Action)
	}
}

func TestGatePassesFundedBuy(t *testing.T) {
	g, _ := newTestGate(richAccount())

	d, emit := g.Clear(context.Background(), buyDecision("BTCUSDT"))
	if !emit || d.Action != models.ActionBuy {
		t.Fatalf("Clear() = (%s, %v), want (BUY, true)", d.Action, emit)
	}
}

func TestGateBalanceErrorFailsSoftToHold(t *testing.T) {
	account := richAccount()
	account.err = context.DeadlineExceeded
	g, _ := newTestGate(account)

	d, emit := g.Clear(context.Background(), buyDecision("BTCUSDT"))
	if !emit {
		t.Fatal("demoted HOLD should still be emitted")
	}
	if d.Action != models.ActionHold {
		t.Fatalf("Action = %s, want HOLD on balance error", d.Action)
	}
}

func TestGateDropsRepeatSignalSilently(t *testing.T) {
	g, setNow := newTestGate(richAccount())
	start := time.Unix(1_700_000_000, 0)
	setNow(start)

	if _, emit := g.Clear(context.Background(), buyDecision("BTCUSDT")); !emit {
		t.Fatal("first signal should be emitted")
	}
	setNow(start.Add(30 * time.Second))
	if _, emit := g.Clear(context.Background(), buyDecision("BTCUSDT")); emit {
		t.Fatal("repeat signal inside cooldown should be dropped")
	}
}
