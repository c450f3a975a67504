package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradeWolf/internal/domain/models"
	pkgch "TradeWolf/pkg/clickhouse"
	applogger "TradeWolf/pkg/logger"
)

// CHAuditSink persists decision-loop events to ClickHouse. It owns the
// client and closes the pool on Close.
type CHAuditSink struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHAuditSink(ch *pkgch.Client, l *applogger.Logger) *CHAuditSink {
	return &CHAuditSink{ch: ch, db: ch.DB(), l: l}
}

// AuditSchemaStatements returns the idempotent DDL for the audit tables,
// suitable for Client.InitSchema.
func AuditSchemaStatements() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS tradewolf`,
		`CREATE TABLE IF NOT EXISTS tradewolf.signals (
            ts DateTime64(3),
            symbol String,
            action String,
            strategy String,
            reason String,
            price Float64,
            rsi Float64,
            macd Float64,
            volatility Float64
        ) ENGINE = MergeTree()
        ORDER BY (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS tradewolf.trades (
            ts DateTime64(3),
            symbol String,
            action String,
            quantity Float64,
            fill_price Float64,
            fill_value Float64,
            fee Float64,
            profit_loss Float64,
            success UInt8
        ) ENGINE = MergeTree()
        ORDER BY (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS tradewolf.errors (
            ts DateTime64(3),
            kind String,
            severity String,
            message String
        ) ENGINE = MergeTree()
        ORDER BY ts`,
	}
}

func (s *CHAuditSink) SignalEmitted(ctx context.Context, d models.TradeDecision) error {
	const q = `INSERT INTO tradewolf.signals
        (ts, symbol, action, strategy, reason, price, rsi, macd, volatility)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	ts := d.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, q,
		ts,
		d.Symbol,
		string(d.Action),
		string(d.Strategy),
		d.Reason,
		d.Price,
		d.Indicators.RSI,
		d.Indicators.MACD,
		d.Indicators.Volatility,
	)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

func (s *CHAuditSink) TradeOutcome(ctx context.Context, o models.TradeOutcome) error {
	const q = `INSERT INTO tradewolf.trades
        (ts, symbol, action, quantity, fill_price, fill_value, fee, profit_loss, success)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	ts := o.ClosedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	success := uint8(0)
	if o.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx, q,
		ts,
		o.Symbol,
		string(o.Action),
		o.Quantity,
		o.FillPrice,
		o.FillValue,
		o.Fee,
		o.ProfitLoss,
		success,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

func (s *CHAuditSink) ErrorEvent(ctx context.Context, kind, message, severity string) error {
	const q = `INSERT INTO tradewolf.errors (ts, kind, severity, message) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, time.Now(), kind, severity, message); err != nil {
		return fmt.Errorf("insert error event: %w", err)
	}
	return nil
}

func (s *CHAuditSink) Close() error {
	return s.ch.Close()
}
