package repository

import (
	"context"
	"fmt"
	"time"

	"TradeWolf/internal/domain/models"
)

// Publisher is the subset of the Kafka producer the audit sink needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaAuditTopics names the topics the sink publishes to.
type KafkaAuditTopics struct {
	Signals string
	Trades  string
	Errors  string
}

// KafkaAuditTopicsFor derives the topic names from a shared prefix.
func KafkaAuditTopicsFor(prefix string) KafkaAuditTopics {
	return KafkaAuditTopics{
		Signals: prefix + ".signals",
		Trades:  prefix + ".trades",
		Errors:  prefix + ".errors",
	}
}

// DefaultKafkaAuditTopics returns the conventional topic names.
func DefaultKafkaAuditTopics() KafkaAuditTopics {
	return KafkaAuditTopicsFor("tradewolf")
}

// KafkaAuditSink streams decision-loop events to Kafka. Messages are keyed
// by symbol so per-symbol ordering survives partitioning.
type KafkaAuditSink struct {
	producer Publisher
	topics   KafkaAuditTopics
}

func NewKafkaAuditSink(producer Publisher, topics KafkaAuditTopics) *KafkaAuditSink {
	return &KafkaAuditSink{producer: producer, topics: topics}
}

type signalEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Symbol     string    `json:"symbol"`
	Action     string    `json:"action"`
	Strategy   string    `json:"strategy"`
	Reason     string    `json:"reason"`
	Price      float64   `json:"price"`
	RSI        float64   `json:"rsi"`
	MACD       float64   `json:"macd"`
	Volatility float64   `json:"volatility"`
}

type tradeEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Symbol     string    `json:"symbol"`
	Action     string    `json:"action"`
	Quantity   float64   `json:"quantity"`
	FillPrice  float64   `json:"fill_price"`
	FillValue  float64   `json:"fill_value"`
	Fee        float64   `json:"fee"`
	ProfitLoss float64   `json:"profit_loss"`
	Success    bool      `json:"success"`
}

type errorEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
}

func (s *KafkaAuditSink) SignalEmitted(ctx context.Context, d models.TradeDecision) error {
	ts := d.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	ev := signalEvent{
		Timestamp:  ts,
		Symbol:     d.Symbol,
		Action:     string(d.Action),
		Strategy:   string(d.Strategy),
		Reason:     d.Reason,
		Price:      d.Price,
		RSI:        d.Indicators.RSI,
		MACD:       d.Indicators.MACD,
		Volatility: d.Indicators.Volatility,
	}
	if err := s.producer.Publish(ctx, s.topics.Signals, []byte(d.Symbol), ev); err != nil {
		return fmt.Errorf("publish signal: %w", err)
	}
	return nil
}

func (s *KafkaAuditSink) TradeOutcome(ctx context.Context, o models.TradeOutcome) error {
	ts := o.ClosedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	ev := tradeEvent{
		Timestamp:  ts,
		Symbol:     o.Symbol,
		Action:     string(o.Action),
		Quantity:   o.Quantity,
		FillPrice:  o.FillPrice,
		FillValue:  o.FillValue,
		Fee:        o.Fee,
		ProfitLoss: o.ProfitLoss,
		Success:    o.Success,
	}
	if err := s.producer.Publish(ctx, s.topics.Trades, []byte(o.Symbol), ev); err != nil {
		return fmt.Errorf("publish trade: %w", err)
	}
	return nil
}

func (s *KafkaAuditSink) ErrorEvent(ctx context.Context, kind, message, severity string) error {
	ev := errorEvent{
		Timestamp: time.Now(),
		Kind:      kind,
		Severity:  severity,
		Message:   message,
	}
	if err := s.producer.Publish(ctx, s.topics.Errors, []byte(kind), ev); err != nil {
		return fmt.Errorf("publish error event: %w", err)
	}
	return nil
}

func (s *KafkaAuditSink) Close() error {
	return s.producer.Close()
}
