package repository

import (
	"context"
	"time"

	"Boardroom/internal/domain/models"
)

// MarketData is the batched price/volume feed.
type MarketData interface {
	// Snapshot fetches a two-point price/volume view per symbol for one scan
	// batch. Symbols with no data are absent from the result.
	Snapshot(ctx context.Context, symbols []string, period, interval string) (map[string]models.MarketSnapshot, error)
	// History fetches a candle series for one symbol.
	History(ctx context.Context, symbol, period, interval string) (models.Series, error)
	// Constituents returns the benchmark index member symbols.
	Constituents(ctx context.Context) ([]string, error)
}

// NewsSource provides recent headlines for a symbol.
type NewsSource interface {
	Headlines(ctx context.Context, symbol string) ([]string, error)
}

// FundamentalsSource resolves a valuation ratio. A nil result with nil error
// means the ratio is genuinely unavailable (valid for crypto and unprofitable
// companies).
type FundamentalsSource interface {
	PERatio(ctx context.Context, symbol string) (*float64, error)
}

// SentimentScorer turns headlines into a confidence in [0,1].
type SentimentScorer interface {
	Score(ctx context.Context, headlines []string) (float64, error)
}

// Analyst produces the directional technical signal for a symbol.
type Analyst interface {
	Analyze(ctx context.Context, symbol string) (models.AnalysisResult, error)
}

// QuoteSource serves the freshest known price for a symbol, typically from a
// realtime stream. ok is false when no quote has been seen yet.
type QuoteSource interface {
	LastPrice(symbol string) (float64, bool)
}

// Advisor is the external capital-allocation authority.
type Advisor interface {
	Allocate(ctx context.Context, dailyPnL float64, marketBrief string, bias models.MarketBias) (models.BudgetAllocation, error)
	MarketBrief(ctx context.Context) (string, error)
}

// StateStore is the source of truth for mutable portfolio state. Every
// ledger mutation re-reads through it before computing its effect.
type StateStore interface {
	Balance(ctx context.Context) (float64, error)
	SetBalance(ctx context.Context, balance float64) error
	Positions(ctx context.Context) (map[string]models.Position, error)
	SavePosition(ctx context.Context, pos models.Position) error
	RemovePosition(ctx context.Context, symbol string) error
	SetConfig(ctx context.Context, key string, value any) error
	GetConfig(ctx context.Context, key string, dest any) (bool, error)
}

// AuditLog records trades and gate decisions, append-only.
type AuditLog interface {
	LogTrade(ctx context.Context, t models.TradeRecord) error
	LogDecision(ctx context.Context, d models.GateDecision) error
	RecentDecisions(ctx context.Context, symbol string, limit int) ([]models.GateDecision, error)
	TradeCount(ctx context.Context) (int, error)
	RealizedPnLSince(ctx context.Context, since time.Time) (float64, error)
}

// EventPublisher tees audit events to a downstream stream. Fire and forget;
// failures are logged by the caller, never retried.
type EventPublisher interface {
	PublishTrade(ctx context.Context, t models.TradeRecord) error
	PublishDecision(ctx context.Context, d models.GateDecision) error
	Close() error
}

// Cache is a generic TTL cache (market brief, fundamentals).
type Cache interface {
	GetBytes(key string) ([]byte, bool, error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// Notifier is the outbound human channel.
type Notifier interface {
	Notify(text string)
}

// Metrics is the instrumentation sink.
type Metrics interface {
	RecordDecision(outcome string)
	RecordTrade(action, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordCash(balance float64)
}
