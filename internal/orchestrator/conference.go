package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Boardroom/internal/domain/models"
	xlogger "Boardroom/pkg/logger"
)

const (
	conferenceDayKey = "conference_day"
	allocationKey    = "budget_allocation"
	biasKey          = "market_bias"
)

// maybeRunConference runs the daily strategic conference at most once per
// calendar day, after the morning threshold. A panic interrupt forces an
// immediate re-run by clearing the day marker before calling this.
func (o *Orchestrator) maybeRunConference(ctx context.Context) error {
	now := o.now()
	if !afterConferenceTime(now, o.loc) {
		return nil
	}
	today := dayKey(now, o.loc)

	var lastRun string
	if _, err := o.state.GetConfig(ctx, conferenceDayKey, &lastRun); err != nil {
		return fmt.Errorf("conference marker: %w", err)
	}
	if lastRun == today {
		return nil
	}
	return o.runConference(ctx, today)
}

func (o *Orchestrator) runConference(ctx context.Context, today string) error {
	o.logger.Info("strategic conference", xlogger.String("day", today))

	since := o.now().In(o.loc).AddDate(0, 0, -1)
	since = time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, o.loc)
	dailyPnL, err := o.audit.RealizedPnLSince(ctx, since)
	if err != nil {
		o.logger.Warn("realized pnl unavailable", xlogger.Error(err))
		dailyPnL = 0
	}

	brief, err := o.advisor.MarketBrief(ctx)
	if err != nil {
		o.logger.Warn("market brief unavailable", xlogger.Error(err))
		brief = "unavailable"
	}

	bias := o.currentBias(ctx)
	alloc, err := o.advisor.Allocate(ctx, dailyPnL, brief, bias)
	if err != nil {
		return fmt.Errorf("allocate: %w", err)
	}
	alloc = alloc.Normalize()
	if err := o.state.SetConfig(ctx, allocationKey, alloc); err != nil {
		return fmt.Errorf("persist allocation: %w", err)
	}
	if err := o.state.SetConfig(ctx, conferenceDayKey, today); err != nil {
		return fmt.Errorf("persist conference marker: %w", err)
	}

	o.notify.Notify(o.conferenceSummary(ctx, dailyPnL, bias, alloc, brief))
	o.logger.Info("allocation updated",
		xlogger.Float64("stock_share", alloc.StockShare),
		xlogger.Float64("crypto_share", alloc.CryptoShare),
		xlogger.Float64("daily_pnl", dailyPnL))
	return nil
}

func (o *Orchestrator) conferenceSummary(ctx context.Context, dailyPnL float64, bias models.MarketBias, alloc models.BudgetAllocation, brief string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Morning conference\nPnL since yesterday: %+.2f\nBias: %s\nAllocation: stock %.0f%% / crypto %.0f%%\n",
		dailyPnL, bias, alloc.StockShare*100, alloc.CryptoShare*100)
	if movers, err := o.pipeline.Movers(ctx, o.cfg.Watchlist, 3); err == nil && len(movers) > 0 {
		b.WriteString("Movers:")
		for _, m := range movers {
			fmt.Fprintf(&b, " %s %+.1f%%", m.Symbol, m.ChangePercent)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Brief: %s", brief)
	return b.String()
}

// checkPanic reports whether the benchmark index or the benchmark crypto
// dropped past the panic threshold over the last hourly candle. A panic wipes
// the conference day marker so the next conference check re-runs immediately.
func (o *Orchestrator) checkPanic(ctx context.Context) bool {
	for _, symbol := range []string{o.cfg.BenchmarkSymbol, o.cfg.CryptoBenchmark} {
		if symbol == "" {
			continue
		}
		series, err := o.market.History(ctx, symbol, "1d", "1h")
		if err != nil {
			o.logger.Warn("panic check failed", xlogger.String("symbol", symbol), xlogger.Error(err))
			continue
		}
		closes := series.Closes()
		if len(closes) < 2 {
			continue
		}
		prev, last := closes[len(closes)-2], closes[len(closes)-1]
		if prev <= 0 {
			continue
		}
		change := (last - prev) / prev * 100
		if change < o.cfg.PanicDropPct {
			o.logger.Warn("panic interrupt",
				xlogger.String("symbol", symbol),
				xlogger.Float64("hourly_change_pct", change))
			o.metrics.RecordError("panic")
			if err := o.state.SetConfig(ctx, conferenceDayKey, ""); err != nil {
				o.logger.Error("panic marker reset failed", xlogger.Error(err))
			}
			o.notify.Notify(fmt.Sprintf("PANIC: %s dropped %.2f%% in the last hour, forcing re-allocation", symbol, change))
			return true
		}
	}
	return false
}
