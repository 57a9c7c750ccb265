package monitor

import (
	"context"
	"fmt"
	"time"

	"Boardroom/internal/domain/models"
	"Boardroom/internal/domain/repository"
	"Boardroom/internal/ledger"
	xlogger "Boardroom/pkg/logger"
)

// Exit reasons, in trigger priority order.
const (
	ExitProfitTarget = "Profit Target"
	ExitTimeStop     = "Time Stop"
	ExitStopLoss     = "Stop Loss"
	ExitBreakdown    = "Technical Breakdown"
)

// Monitor sweeps every open position each cycle and closes the ones that hit
// an exit trigger. Per-position failures are isolated; one bad symbol never
// blocks the rest of the sweep.
type Monitor struct {
	analyst repository.Analyst
	quotes  repository.QuoteSource
	ledger  *ledger.Ledger
	metrics repository.Metrics
	logger  *xlogger.Logger

	profitTargetPct  float64
	stopLossRatio    float64
	timeStopDays     int
	timeStopFloorPct float64

	now func() time.Time
}

// New builds a Monitor. quotes may be nil; positions are then priced off the
// analyst's latest close alone.
func New(
	analyst repository.Analyst,
	quotes repository.QuoteSource,
	led *ledger.Ledger,
	metrics repository.Metrics,
	logger *xlogger.Logger,
	profitTargetPct, stopLossRatio float64,
	timeStopDays int,
	timeStopFloorPct float64,
) *Monitor {
	return &Monitor{
		analyst:          analyst,
		quotes:           quotes,
		ledger:           led,
		metrics:          metrics,
		logger:           logger.With("monitor"),
		profitTargetPct:  profitTargetPct,
		stopLossRatio:    stopLossRatio,
		timeStopDays:     timeStopDays,
		timeStopFloorPct: timeStopFloorPct,
		now:              time.Now,
	}
}

// positionPrice prefers the streamed quote over the analyst's latest close.
// The daily close can lag by most of a session; a live tick never does.
func (m *Monitor) positionPrice(symbol string, analystPrice float64) float64 {
	if m.quotes != nil {
		if p, ok := m.quotes.LastPrice(symbol); ok && p > 0 {
			return p
		}
	}
	return analystPrice
}

// exitReason applies the four triggers in strict priority order. An empty
// reason means hold.
func (m *Monitor) exitReason(pos models.Position, price float64, signal models.Signal) string {
	_, pnlPercent := pos.NetPnL(price)

	if pnlPercent >= m.profitTargetPct {
		return ExitProfitTarget
	}
	if pos.DaysHeld(m.now()) >= m.timeStopDays {
		// Below the floor the time stop stands aside and the stop loss
		// decides the exit.
		if pnlPercent > m.timeStopFloorPct {
			return ExitTimeStop
		}
	}
	if price < pos.AvgPrice*m.stopLossRatio {
		return ExitStopLoss
	}
	if signal == models.SignalSell {
		return ExitBreakdown
	}
	return ""
}

// Sweep re-evaluates all open positions and sells the ones whose exit
// triggered. Returns the number of closed positions.
func (m *Monitor) Sweep(ctx context.Context) (int, error) {
	positions, err := m.ledger.Positions(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep: %w", err)
	}

	closed := 0
	for symbol, pos := range positions {
		result, err := m.analyst.Analyze(ctx, symbol)
		if err != nil {
			m.logger.Warn("position analysis failed",
				xlogger.String("symbol", symbol), xlogger.Error(err))
			m.metrics.RecordError("monitor")
			continue
		}
		price := m.positionPrice(symbol, result.LatestPrice)
		if price <= 0 {
			m.logger.Warn("no price for position", xlogger.String("symbol", symbol))
			continue
		}
		m.metrics.RecordLastPrice(symbol, price)

		reason := m.exitReason(pos, price, result.Signal)
		if reason == "" {
			_, pnlPercent := pos.NetPnL(price)
			m.logger.Info("holding",
				xlogger.String("symbol", symbol),
				xlogger.Float64("price", price),
				xlogger.Float64("net_pnl_pct", pnlPercent),
				xlogger.Int("days_held", pos.DaysHeld(m.now())))
			continue
		}
		if _, err := m.ledger.Sell(ctx, symbol, price, reason); err != nil {
			m.logger.Error("exit sell failed",
				xlogger.String("symbol", symbol),
				xlogger.String("reason", reason),
				xlogger.Error(err))
			m.metrics.RecordError("monitor")
			continue
		}
		closed++
	}
	return closed, nil
}
