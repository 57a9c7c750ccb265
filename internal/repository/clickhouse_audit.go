package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"Boardroom/internal/domain/models"
)

// Schema holds the DDL for the audit tables. Applied at startup through the
// ClickHouse client, idempotent by construction.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS trades (
		ts        DateTime64(3),
		symbol    LowCardinality(String),
		action    LowCardinality(String),
		shares    Float64,
		price     Float64,
		fee_rate  Float64,
		pnl       Float64
	) ENGINE = MergeTree()
	ORDER BY (symbol, ts)`,
	`CREATE TABLE IF NOT EXISTS decision_log (
		ts               DateTime64(3),
		symbol           LowCardinality(String),
		outcome          LowCardinality(String),
		reason_code      LowCardinality(String),
		reason           String,
		volume_ratio     Float64,
		sentiment_score  Float64,
		pe_ratio         Float64,
		technical_signal LowCardinality(String),
		price            Float64
	) ENGINE = MergeTree()
	ORDER BY (symbol, ts)`,
}

// ClickHouseAudit is the append-only AuditLog over the trades and
// decision_log tables.
type ClickHouseAudit struct {
	db *sql.DB
}

func NewClickHouseAudit(db *sql.DB) *ClickHouseAudit {
	return &ClickHouseAudit{db: db}
}

func (a *ClickHouseAudit) LogTrade(ctx context.Context, t models.TradeRecord) error {
	const q = `INSERT INTO trades (ts, symbol, action, shares, price, fee_rate, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := a.db.ExecContext(ctx, q,
		t.Timestamp, t.Symbol, string(t.Action), t.Shares, t.Price, t.FeeRate, t.PnL)
	if err != nil {
		return fmt.Errorf("insert trade %s: %w", t.Symbol, err)
	}
	return nil
}

func (a *ClickHouseAudit) LogDecision(ctx context.Context, d models.GateDecision) error {
	const q = `INSERT INTO decision_log
		(ts, symbol, outcome, reason_code, reason, volume_ratio, sentiment_score, pe_ratio, technical_signal, price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := a.db.ExecContext(ctx, q,
		d.Timestamp, d.Symbol, string(d.Outcome), d.ReasonCode, d.Reason,
		d.VolumeRatio, d.SentimentScore, d.PERatio, string(d.TechnicalSignal), d.Price)
	if err != nil {
		return fmt.Errorf("insert decision %s: %w", d.Symbol, err)
	}
	return nil
}

// RecentDecisions returns the latest decisions, newest first, optionally
// filtered to one symbol.
func (a *ClickHouseAudit) RecentDecisions(ctx context.Context, symbol string, limit int) ([]models.GateDecision, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ts, symbol, outcome, reason_code, reason, volume_ratio, sentiment_score, pe_ratio, technical_signal, price
		FROM decision_log`
	args := []any{}
	if symbol != "" {
		q += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	q += ` ORDER BY ts DESC LIMIT ?`
	args = append(args, limit)

	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []models.GateDecision
	for rows.Next() {
		var d models.GateDecision
		var outcome, signal string
		if err := rows.Scan(&d.Timestamp, &d.Symbol, &outcome, &d.ReasonCode, &d.Reason,
			&d.VolumeRatio, &d.SentimentScore, &d.PERatio, &signal, &d.Price); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Outcome = models.DecisionOutcome(outcome)
		d.TechnicalSignal = models.Signal(signal)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (a *ClickHouseAudit) TradeCount(ctx context.Context) (int, error) {
	var count uint64
	if err := a.db.QueryRowContext(ctx, `SELECT count() FROM trades`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trades: %w", err)
	}
	return int(count), nil
}

// RealizedPnLSince sums sell-side PnL recorded at or after the cutoff.
func (a *ClickHouseAudit) RealizedPnLSince(ctx context.Context, since time.Time) (float64, error) {
	const q = `SELECT coalesce(sum(pnl), 0) FROM trades WHERE action = 'SELL' AND ts >= ?`
	var total float64
	if err := a.db.QueryRowContext(ctx, q, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum pnl: %w", err)
	}
	return total, nil
}
