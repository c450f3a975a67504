package usecase

import (
	"context"
	"errors"
	"testing"

	"TradeWolf/internal/domain/models"
	"TradeWolf/internal/domain/repository"

	"github.com/shopspring/decimal"
)

func TestSizeBuyRiskPercentage(t *testing.T) {
	account := richAccount() // 1000 USDT free
	p := NewPositionSizer(account, 2, 10, "USDT")

	qty, err := p.Size(context.Background(), buyDecision("BTCUSDT")) // price 100
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	// 2% of 1000 = 20 USDT at price 100 -> 0.2, step 0.0001 leaves it exact.
	if !qty.Equal(decimal.NewFromFloat(0.2)) {
		t.Fatalf("qty = %s, want 0.2", qty)
	}
}

func TestSizeBuyTopsUpToMinTradeValue(t *testing.T) {
	account := richAccount()
	account.balances["USDT"] = decimal.NewFromInt(100) // 2% = 2 USDT, below min 10
	p := NewPositionSizer(account, 2, 10, "USDT")

	qty, err := p.Size(context.Background(), buyDecision("BTCUSDT"))
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if !qty.Equal(decimal.NewFromFloat(0.1)) {
		t.Fatalf("qty = %s, want 0.1 (10 USDT minimum at price 100)", qty)
	}
}

func TestSizeBuyInsufficientFunds(t *testing.T) {
	account := richAccount()
	account.balances["USDT"] = decimal.NewFromInt(5) // below the 10 minimum
	p := NewPositionSizer(account, 2, 10, "USDT")

	_, err := p.Size(context.Background(), buyDecision("BTCUSDT"))
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestSizeSellLiquidatesBaseBalance(t *testing.T) {
	account := richAccount() // 0.5 BTC
	p := NewPositionSizer(account, 2, 10, "USDT")

	qty, err := p.Size(context.Background(), sellDecision("BTCUSDT"))
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if !qty.Equal(decimal.NewFromFloat(0.5)) {
		t.Fatalf("qty = %s, want 0.5", qty)
	}
}

func TestSizeRoundsDownToStep(t *testing.T) {
	account := richAccount()
	account.balances["BTC"] = decimal.NewFromFloat(0.123456)
	account.rules = repository.TradableRules{
		MinQuantity: decimal.NewFromFloat(0.001),
		StepSize:    decimal.NewFromFloat(0.001),
	}
	p := NewPositionSizer(account, 2, 10, "USDT")

	qty, err := p.Size(context.Background(), sellDecision("BTCUSDT"))
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if !qty.Equal(decimal.NewFromFloat(0.123)) {
		t.Fatalf("qty = %s, want 0.123", qty)
	}
}

func TestSizeSellBelowMinQuantity(t *testing.T) {
	account := richAccount()
	account.balances["BTC"] = decimal.NewFromFloat(0.00001)
	p := NewPositionSizer(account, 2, 10, "USDT")

	_, err := p.Size(context.Background(), sellDecision("BTCUSDT"))
	if !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestSizeHoldIsNotTradable(t *testing.T) {
	p := NewPositionSizer(richAccount(), 2, 10, "USDT")

	d := models.TradeDecision{Symbol: "BTCUSDT", Action: models.ActionHold, Price: 100}
	if _, err := p.Size(context.Background(), d); err == nil {
		t.Fatal("sizing a HOLD should fail")
	}
}
