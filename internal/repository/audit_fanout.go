package repository

import (
	"context"

	"TradeWolf/internal/domain/models"
	domrepo "TradeWolf/internal/domain/repository"
	applogger "TradeWolf/pkg/logger"
)

// FanoutAuditSink forwards each event to every configured sink. A failing
// sink is logged and skipped; audit delivery never blocks the decision loop.
type FanoutAuditSink struct {
	sinks []domrepo.AuditSink
	l     *applogger.Logger
}

func NewFanoutAuditSink(l *applogger.Logger, sinks ...domrepo.AuditSink) *FanoutAuditSink {
	return &FanoutAuditSink{sinks: sinks, l: l}
}

func (f *FanoutAuditSink) SignalEmitted(ctx context.Context, d models.TradeDecision) error {
	for _, s := range f.sinks {
		if err := s.SignalEmitted(ctx, d); err != nil {
			f.warn("signal", err)
		}
	}
	return nil
}

func (f *FanoutAuditSink) TradeOutcome(ctx context.Context, o models.TradeOutcome) error {
	for _, s := range f.sinks {
		if err := s.TradeOutcome(ctx, o); err != nil {
			f.warn("trade", err)
		}
	}
	return nil
}

func (f *FanoutAuditSink) ErrorEvent(ctx context.Context, kind, message, severity string) error {
	for _, s := range f.sinks {
		if err := s.ErrorEvent(ctx, kind, message, severity); err != nil {
			f.warn("error_event", err)
		}
	}
	return nil
}

func (f *FanoutAuditSink) Close() error {
	var firstErr error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *FanoutAuditSink) warn(event string, err error) {
	if f.l != nil {
		f.l.Warn("audit sink delivery failed",
			applogger.String("event", event),
			applogger.Error(err),
		)
	}
}

// NopAuditSink discards every event. Used when no audit backend is enabled.
type NopAuditSink struct{}

func (NopAuditSink) SignalEmitted(ctx context.Context, d models.TradeDecision) error { return nil }
func (NopAuditSink) TradeOutcome(ctx context.Context, o models.TradeOutcome) error   { return nil }
func (NopAuditSink) ErrorEvent(ctx context.Context, kind, message, severity string) error {
	return nil
}
func (NopAuditSink) Close() error { return nil }
