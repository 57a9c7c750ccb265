package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"Boardroom/internal/domain/models"
	"Boardroom/internal/domain/repository"
	xlogger "Boardroom/pkg/logger"
)

var (
	ErrInsufficientFunds = errors.New("allocation below minimum trade amount")
	ErrAlreadyHeld       = errors.New("position already held")
	ErrNoPosition        = errors.New("no open position")
)

// Ledger owns all mutations of cash and positions. Every operation reloads
// state from the store before computing its effect, and a process-wide mutex
// serializes operations so the scan loop and the exit engine never interleave
// a read-modify-write.
type Ledger struct {
	mu sync.Mutex

	state   repository.StateStore
	audit   repository.AuditLog
	events  repository.EventPublisher
	notify  repository.Notifier
	metrics repository.Metrics
	logger  *xlogger.Logger

	tradeAllocation float64
	minTradeAmount  float64
}

func New(
	state repository.StateStore,
	audit repository.AuditLog,
	events repository.EventPublisher,
	notify repository.Notifier,
	metrics repository.Metrics,
	logger *xlogger.Logger,
	tradeAllocation, minTradeAmount float64,
) *Ledger {
	return &Ledger{
		state:           state,
		audit:           audit,
		events:          events,
		notify:          notify,
		metrics:         metrics,
		logger:          logger.With("ledger"),
		tradeAllocation: tradeAllocation,
		minTradeAmount:  minTradeAmount,
	}
}

// roundShares rounds a share count to the nearest four decimal places, the
// finest granularity the simulated book tracks.
func roundShares(shares float64) float64 {
	return math.Round(shares*10000) / 10000
}

// Buy opens a position sized at the configured fraction of current cash. The
// entry fee is folded into the per-share cost so break-even already covers
// both legs' fees.
func (l *Ledger) Buy(ctx context.Context, symbol string, price float64) (models.Receipt, error) {
	if price <= 0 {
		return models.Receipt{}, fmt.Errorf("buy %s: invalid price %v", symbol, price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	positions, err := l.state.Positions(ctx)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("buy %s: %w", symbol, err)
	}
	if _, held := positions[symbol]; held {
		return models.Receipt{}, fmt.Errorf("buy %s: %w", symbol, ErrAlreadyHeld)
	}

	balance, err := l.state.Balance(ctx)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("buy %s: %w", symbol, err)
	}

	allocation := balance * l.tradeAllocation
	if allocation < l.minTradeAmount {
		return models.Receipt{}, fmt.Errorf("buy %s: %w (%.2f < %.2f)",
			symbol, ErrInsufficientFunds, allocation, l.minTradeAmount)
	}

	feeRate := models.FeeRate(symbol)
	costPerShare := price * (1 + feeRate)
	shares := roundShares(allocation / costPerShare)
	if shares <= 0 {
		return models.Receipt{}, fmt.Errorf("buy %s: %w", symbol, ErrInsufficientFunds)
	}
	cost := shares * costPerShare
	if cost > balance {
		return models.Receipt{}, fmt.Errorf("buy %s: cost %.2f exceeds balance %.2f", symbol, cost, balance)
	}

	now := time.Now()
	pos := models.Position{
		Symbol:            symbol,
		Shares:            shares,
		AvgPrice:          price,
		FeeRate:           feeRate,
		CostBasis:         cost,
		EntryPriceWithFee: costPerShare,
		EntryTime:         now,
	}
	if err := l.state.SavePosition(ctx, pos); err != nil {
		return models.Receipt{}, fmt.Errorf("buy %s: %w", symbol, err)
	}
	newBalance := balance - cost
	if err := l.state.SetBalance(ctx, newBalance); err != nil {
		return models.Receipt{}, fmt.Errorf("buy %s: %w", symbol, err)
	}

	record := models.TradeRecord{
		Symbol:    symbol,
		Action:    models.ActionBuy,
		Shares:    shares,
		Price:     price,
		FeeRate:   feeRate,
		Timestamp: now,
	}
	l.record(ctx, record)
	l.metrics.RecordCash(newBalance)

	breakEven := cost / (shares * (1 - feeRate))
	receipt := models.Receipt{
		Symbol:    symbol,
		Action:    models.ActionBuy,
		Shares:    shares,
		Price:     price,
		FeeRate:   feeRate,
		BreakEven: breakEven,
		Cost:      cost,
	}
	l.logger.Info("bought",
		xlogger.String("symbol", symbol),
		xlogger.Float64("shares", shares),
		xlogger.Float64("price", price),
		xlogger.Float64("cost", cost),
		xlogger.Float64("balance", newBalance))
	l.notify.Notify(fmt.Sprintf("BUY %s: %.4f @ %.2f (cost %.2f, cash %.2f)",
		symbol, shares, price, cost, newBalance))
	return receipt, nil
}

// Sell closes the whole position at price, crediting net proceeds after the
// exit fee. reason is carried into the notification only; the audit row
// records the realized PnL.
func (l *Ledger) Sell(ctx context.Context, symbol string, price float64, reason string) (models.Receipt, error) {
	if price <= 0 {
		return models.Receipt{}, fmt.Errorf("sell %s: invalid price %v", symbol, price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	positions, err := l.state.Positions(ctx)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("sell %s: %w", symbol, err)
	}
	pos, held := positions[symbol]
	if !held {
		return models.Receipt{}, fmt.Errorf("sell %s: %w", symbol, ErrNoPosition)
	}

	balance, err := l.state.Balance(ctx)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("sell %s: %w", symbol, err)
	}

	proceeds := pos.Shares * price * (1 - pos.FeeRate)
	pnl, pnlPercent := pos.NetPnL(price)

	if err := l.state.RemovePosition(ctx, symbol); err != nil {
		return models.Receipt{}, fmt.Errorf("sell %s: %w", symbol, err)
	}
	newBalance := balance + proceeds
	if err := l.state.SetBalance(ctx, newBalance); err != nil {
		return models.Receipt{}, fmt.Errorf("sell %s: %w", symbol, err)
	}

	record := models.TradeRecord{
		Symbol:    symbol,
		Action:    models.ActionSell,
		Shares:    pos.Shares,
		Price:     price,
		FeeRate:   pos.FeeRate,
		PnL:       pnl,
		Timestamp: time.Now(),
	}
	l.record(ctx, record)
	l.metrics.RecordCash(newBalance)

	receipt := models.Receipt{
		Symbol:     symbol,
		Action:     models.ActionSell,
		Shares:     pos.Shares,
		Price:      price,
		FeeRate:    pos.FeeRate,
		Proceeds:   proceeds,
		PnL:        pnl,
		PnLPercent: pnlPercent,
	}
	l.logger.Info("sold",
		xlogger.String("symbol", symbol),
		xlogger.String("reason", reason),
		xlogger.Float64("price", price),
		xlogger.Float64("pnl", pnl),
		xlogger.Float64("balance", newBalance))
	l.notify.Notify(fmt.Sprintf("SELL %s (%s): %.4f @ %.2f (pnl %+.2f / %+.2f%%, cash %.2f)",
		symbol, reason, pos.Shares, price, pnl, pnlPercent, newBalance))
	return receipt, nil
}

// Positions exposes the open book.
func (l *Ledger) Positions(ctx context.Context) (map[string]models.Position, error) {
	return l.state.Positions(ctx)
}

// Balance exposes current cash.
func (l *Ledger) Balance(ctx context.Context) (float64, error) {
	return l.state.Balance(ctx)
}

// Summary rolls up cash, open positions and lifetime trade count.
func (l *Ledger) Summary(ctx context.Context) (models.PortfolioSummary, error) {
	balance, err := l.state.Balance(ctx)
	if err != nil {
		return models.PortfolioSummary{}, err
	}
	positions, err := l.state.Positions(ctx)
	if err != nil {
		return models.PortfolioSummary{}, err
	}
	count, err := l.audit.TradeCount(ctx)
	if err != nil {
		return models.PortfolioSummary{}, err
	}
	return models.PortfolioSummary{
		Cash:          balance,
		OpenPositions: len(positions),
		TradeCount:    count,
	}, nil
}

func (l *Ledger) record(ctx context.Context, t models.TradeRecord) {
	l.metrics.RecordTrade(string(t.Action), t.Symbol)
	if err := l.audit.LogTrade(ctx, t); err != nil {
		l.logger.Error("trade audit failed", xlogger.String("symbol", t.Symbol), xlogger.Error(err))
		l.metrics.RecordError("audit")
	}
	if err := l.events.PublishTrade(ctx, t); err != nil {
		l.logger.Warn("trade publish failed", xlogger.String("symbol", t.Symbol), xlogger.Error(err))
		l.metrics.RecordError("publish")
	}
}
