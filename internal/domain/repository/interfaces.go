package repository

import (
	"context"
	"time"

	"TradeWolf/internal/domain/models"

	"github.com/shopspring/decimal"
)

// MarketData fetches ordered OHLCV history and 24h statistics from the venue.
type MarketData interface {
	FetchCandles(ctx context.Context, symbol string, tf Timeframe, limit int) (models.Series, error)
	Ticker24h(ctx context.Context, symbol string) (models.Ticker24h, error)
}

// TradableRules are the venue's order constraints for one symbol.
type TradableRules struct {
	MinQuantity decimal.Decimal
	StepSize    decimal.Decimal
}

// Account exposes balances and per-symbol trading rules.
type Account interface {
	GetFreeBalance(ctx context.Context, asset string) (decimal.Decimal, error)
	GetTradableRules(ctx context.Context, symbol string) (TradableRules, error)
}

// Executor places the order for a cleared decision. Out of core scope; the
// core supplies decision+symbol+quantity and consumes the result only to
// update risk state.
type Executor interface {
	Execute(ctx context.Context, d models.TradeDecision, quantity decimal.Decimal) (models.ExecutionResult, error)
}

// SentimentSource is polled once per scan.
type SentimentSource interface {
	GetSentiment(ctx context.Context) (models.Sentiment, error)
}

// VenueStream is the lightweight connectivity channel to the venue, used by
// the supervisor's health check and reconnect path.
type VenueStream interface {
	Connect(ctx context.Context) error
	IsConnected() bool
	Reconnect(ctx context.Context) error
	Close() error
}

// AuditSink receives the core's structured events as plain data records.
// Persistence format is the collaborator's concern.
type AuditSink interface {
	SignalEmitted(ctx context.Context, d models.TradeDecision) error
	TradeOutcome(ctx context.Context, o models.TradeOutcome) error
	ErrorEvent(ctx context.Context, kind, message, severity string) error
	Close() error
}

// Metrics is the observability recorder.
type Metrics interface {
	RecordScan(kind string)
	RecordSignal(action string)
	RecordError(kind string)
	RecordCycleDuration(seconds float64)
	RecordLastPrice(symbol string, price float64)
	RecordRegime(regime string)
}

// CandleCache keeps recently fetched series to respect venue request budgets.
type CandleCache interface {
	Get(ctx context.Context, key string) (models.Series, bool)
	Set(ctx context.Context, key string, s models.Series, ttl time.Duration)
}
