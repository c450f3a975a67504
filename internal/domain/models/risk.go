package models

import "time"

// TradeOutcome is the settled result of one executed trade.
type TradeOutcome struct {
	Symbol     string
	Action     Action
	Quantity   float64
	FillPrice  float64
	FillValue  float64
	Fee        float64
	ProfitLoss float64
	Success    bool
	ClosedAt   time.Time
}

// RiskState tracks running trade statistics. Mutated only after an execution
// outcome is known; daily reset is owned by the audit collaborator.
type RiskState struct {
	ConsecutiveLosses int     `json:"consecutive_losses"`
	ConsecutiveWins   int     `json:"consecutive_wins"`
	DailyPnL          float64 `json:"daily_pnl"`

	SuccessfulTrades int     `json:"successful_trades"`
	FailedTrades     int     `json:"failed_trades"`
	TotalTrades      int     `json:"total_trades"`
	TotalBuyVolume   float64 `json:"total_buy_volume"`
	TotalSellVolume  float64 `json:"total_sell_volume"`
	WinRate          float64 `json:"win_rate"`
}

// Apply folds one trade outcome into the state.
func (r *RiskState) Apply(o TradeOutcome) {
	r.TotalTrades++
	if o.Success && o.ProfitLoss > 0 {
		r.ConsecutiveLosses = 0
		r.ConsecutiveWins++
		r.SuccessfulTrades++
	} else {
		r.ConsecutiveLosses++
		r.ConsecutiveWins = 0
		if !o.Success {
			r.FailedTrades++
		}
	}
	r.DailyPnL += o.ProfitLoss
	switch o.Action {
	case ActionBuy:
		r.TotalBuyVolume += o.FillValue
	case ActionSell:
		r.TotalSellVolume += o.FillValue
	}
	if r.TotalTrades > 0 {
		r.WinRate = float64(r.SuccessfulTrades) / float64(r.TotalTrades) * 100
	}
}
