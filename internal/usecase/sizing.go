package usecase

import (
	"context"
	"fmt"

	"TradeWolf/internal/domain/models"
	"TradeWolf/internal/domain/repository"

	"github.com/shopspring/decimal"
)

// PositionSizer converts a cleared decision into an order quantity that
// respects the venue's lot rules. Monetary math stays in decimals until the
// final quantity so repeated float rounding cannot drift below a lot step.
type PositionSizer struct {
	account repository.Account

	riskPct       decimal.Decimal
	minTradeValue decimal.Decimal
	quoteAsset    string
}

func NewPositionSizer(account repository.Account, riskPercentage, minTradeValue float64, quoteAsset string) *PositionSizer {
	return &PositionSizer{
		account:       account,
		riskPct:       decimal.NewFromFloat(riskPercentage),
		minTradeValue: decimal.NewFromFloat(minTradeValue),
		quoteAsset:    quoteAsset,
	}
}

// Size computes the order quantity for a decision. BUY sizes from the quote
// balance at the configured risk percentage, topped up to the venue minimum
// trade value; SELL liquidates the held base balance. Both round down to the
// lot step.
func (p *PositionSizer) Size(ctx context.Context, d models.TradeDecision) (decimal.Decimal, error) {
	rules, err := p.account.GetTradableRules(ctx, d.Symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch trading rules: %w", err)
	}
	price := decimal.NewFromFloat(d.Price)
	if price.IsZero() {
		return decimal.Zero, fmt.Errorf("size %s: price is zero", d.Symbol)
	}

	var qty decimal.Decimal
	switch d.Action {
	case models.ActionBuy:
		free, err := p.account.GetFreeBalance(ctx, p.quoteAsset)
		if err != nil {
			return decimal.Zero, fmt.Errorf("fetch %s balance: %w", p.quoteAsset, err)
		}
		spend := free.Mul(p.riskPct).Div(decimal.NewFromInt(100))
		if spend.LessThan(p.minTradeValue) {
			spend = p.minTradeValue
		}
		if spend.GreaterThan(free) {
			return decimal.Zero, fmt.Errorf("size %s: %w", d.Symbol, models.ErrInsufficientFunds)
		}
		qty = spend.Div(price)
	case models.ActionSell:
		base := baseAsset(d.Symbol, p.quoteAsset)
		free, err := p.account.GetFreeBalance(ctx, base)
		if err != nil {
			return decimal.Zero, fmt.Errorf("fetch %s balance: %w", base, err)
		}
		qty = free
	default:
		return decimal.Zero, fmt.Errorf("size %s: action %s is not tradable", d.Symbol, d.Action)
	}

	qty = roundToStep(qty, rules.StepSize)
	if qty.LessThan(rules.MinQuantity) || qty.IsZero() {
		return decimal.Zero, fmt.Errorf("size %s: quantity %s below venue minimum %s: %w",
			d.Symbol, qty, rules.MinQuantity, models.ErrInsufficientFunds)
	}
	return qty, nil
}

// roundToStep truncates qty down to a multiple of step.
func roundToStep(qty, step decimal.Decimal) decimal.Decimal {
	if step.IsZero() {
		return qty
	}
	return qty.Div(step).Floor().Mul(step)
}
