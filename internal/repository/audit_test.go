package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/pkg/logger"
)

type recordingSink struct {
	signals  int
	trades   int
	errs     int
	closed   bool
	failWith error
}

func (r *recordingSink) SignalEmitted(ctx context.Context, d models.TradeDecision) error {
	r.signals++
	return r.failWith
}

func (r *recordingSink) TradeOutcome(ctx context.Context, o models.TradeOutcome) error {
	r.trades++
	return r.failWith
}

func (r *recordingSink) ErrorEvent(ctx context.Context, kind, message, severity string) error {
	r.errs++
	return r.failWith
}

func (r *recordingSink) Close() error {
	r.closed = true
	return r.failWith
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	f := NewFanoutAuditSink(logger.Nop(), a, b)

	ctx := context.Background()
	if err := f.SignalEmitted(ctx, models.TradeDecision{Symbol: "BTCUSDT"}); err != nil {
		t.Fatalf("SignalEmitted: %v", err)
	}
	if err := f.TradeOutcome(ctx, models.TradeOutcome{Symbol: "BTCUSDT"}); err != nil {
		t.Fatalf("TradeOutcome: %v", err)
	}
	if err := f.ErrorEvent(ctx, "internal", "boom", "warning"); err != nil {
		t.Fatalf("ErrorEvent: %v", err)
	}

	for i, s := range []*recordingSink{a, b} {
		if s.signals != 1 || s.trades != 1 || s.errs != 1 {
			t.Errorf("sink %d: got signals=%d trades=%d errs=%d, want 1 each", i, s.signals, s.trades, s.errs)
		}
	}
}

func TestFanoutContinuesPastFailingSink(t *testing.T) {
	bad := &recordingSink{failWith: errors.New("sink down")}
	good := &recordingSink{}
	f := NewFanoutAuditSink(logger.Nop(), bad, good)

	if err := f.SignalEmitted(context.Background(), models.TradeDecision{Symbol: "ETHUSDT"}); err != nil {
		t.Fatalf("fanout must swallow sink errors, got %v", err)
	}
	if good.signals != 1 {
		t.Fatalf("healthy sink skipped after failing sink")
	}
}

func TestFanoutCloseReturnsFirstError(t *testing.T) {
	bad := &recordingSink{failWith: errors.New("close failed")}
	good := &recordingSink{}
	f := NewFanoutAuditSink(logger.Nop(), bad, good)

	if err := f.Close(); err == nil {
		t.Fatal("expected close error")
	}
	if !good.closed {
		t.Fatal("second sink not closed")
	}
}

type fakePublisher struct {
	topics []string
	keys   []string
	err    error
	closed bool
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, string(key))
	return p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func TestKafkaAuditSinkRoutesTopicsAndKeys(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewKafkaAuditSink(pub, DefaultKafkaAuditTopics())

	ctx := context.Background()
	d := models.TradeDecision{Symbol: "BTCUSDT", Action: models.ActionBuy, CreatedAt: time.Now()}
	if err := sink.SignalEmitted(ctx, d); err != nil {
		t.Fatalf("SignalEmitted: %v", err)
	}
	o := models.TradeOutcome{Symbol: "ETHUSDT", Action: models.ActionSell, ClosedAt: time.Now()}
	if err := sink.TradeOutcome(ctx, o); err != nil {
		t.Fatalf("TradeOutcome: %v", err)
	}
	if err := sink.ErrorEvent(ctx, "connectivity", "stream down", "error"); err != nil {
		t.Fatalf("ErrorEvent: %v", err)
	}

	wantTopics := []string{"tradewolf.signals", "tradewolf.trades", "tradewolf.errors"}
	for i, want := range wantTopics {
		if pub.topics[i] != want {
			t.Errorf("topic %d = %q, want %q", i, pub.topics[i], want)
		}
	}
	wantKeys := []string{"BTCUSDT", "ETHUSDT", "connectivity"}
	for i, want := range wantKeys {
		if pub.keys[i] != want {
			t.Errorf("key %d = %q, want %q", i, pub.keys[i], want)
		}
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !pub.closed {
		t.Fatal("producer not closed")
	}
}

func TestKafkaAuditSinkWrapsPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker unreachable")}
	sink := NewKafkaAuditSink(pub, DefaultKafkaAuditTopics())

	if err := sink.SignalEmitted(context.Background(), models.TradeDecision{Symbol: "BTCUSDT"}); err == nil {
		t.Fatal("expected publish error")
	}
}
