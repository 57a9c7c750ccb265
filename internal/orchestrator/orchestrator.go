package orchestrator

import (
	"context"
	"fmt"
	"time"

	"Boardroom/internal/domain/models"
	"Boardroom/internal/domain/repository"
	"Boardroom/internal/ledger"
	"Boardroom/internal/monitor"
	"Boardroom/internal/screener"
	"Boardroom/pkg/config"
	xlogger "Boardroom/pkg/logger"
	"Boardroom/pkg/util"
)

// Orchestrator drives the trading loop: panic check, daily conference, exit
// sweep, bias update, scope selection and batched screening, then sleep. One
// iteration's failure backs off and the loop continues; it never terminates
// on a transient error.
type Orchestrator struct {
	market   repository.MarketData
	analyst  repository.Analyst
	advisor  repository.Advisor
	pipeline *screener.Pipeline
	monitor  *monitor.Monitor
	ledger   *ledger.Ledger
	state    repository.StateStore
	audit    repository.AuditLog
	notify   repository.Notifier
	metrics  repository.Metrics
	logger   *xlogger.Logger
	cfg      config.TradingConfig
	crypto   models.CryptoSet

	loc *time.Location
	now func() time.Time
}

func New(
	market repository.MarketData,
	analyst repository.Analyst,
	advisor repository.Advisor,
	pipeline *screener.Pipeline,
	mon *monitor.Monitor,
	led *ledger.Ledger,
	state repository.StateStore,
	audit repository.AuditLog,
	notify repository.Notifier,
	metrics repository.Metrics,
	logger *xlogger.Logger,
	cfg config.TradingConfig,
) (*Orchestrator, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return &Orchestrator{
		market:   market,
		analyst:  analyst,
		advisor:  advisor,
		pipeline: pipeline,
		monitor:  mon,
		ledger:   led,
		state:    state,
		audit:    audit,
		notify:   notify,
		metrics:  metrics,
		logger:   logger.With("orchestrator"),
		cfg:      cfg,
		crypto:   models.NewCryptoSet(cfg.CryptoSymbols),
		loc:      loc,
		now:      time.Now,
	}, nil
}

// currentBias loads the persisted bias, defaulting to NEUTRAL.
func (o *Orchestrator) currentBias(ctx context.Context) models.MarketBias {
	var bias models.MarketBias
	if ok, err := o.state.GetConfig(ctx, biasKey, &bias); err != nil || !ok {
		return models.BiasNeutral
	}
	switch bias {
	case models.BiasBuy, models.BiasSell, models.BiasNeutral:
		return bias
	}
	return models.BiasNeutral
}

// updateBias recomputes the market bias from the benchmark's technical signal
// and persists it.
func (o *Orchestrator) updateBias(ctx context.Context) models.MarketBias {
	result, err := o.analyst.Analyze(ctx, o.cfg.BenchmarkSymbol)
	if err != nil {
		o.logger.Warn("benchmark analysis failed", xlogger.Error(err))
		return o.currentBias(ctx)
	}
	bias := models.BiasNeutral
	switch result.Signal {
	case models.SignalBuy:
		bias = models.BiasBuy
	case models.SignalSell:
		bias = models.BiasSell
	}
	if err := o.state.SetConfig(ctx, biasKey, bias); err != nil {
		o.logger.Warn("bias persist failed", xlogger.Error(err))
	}
	o.logger.Info("bias updated", xlogger.String("bias", string(bias)))
	return bias
}

// currentAllocation loads the persisted budget split, falling back to an
// equity-only book before the first conference.
func (o *Orchestrator) currentAllocation(ctx context.Context) models.BudgetAllocation {
	var alloc models.BudgetAllocation
	if ok, err := o.state.GetConfig(ctx, allocationKey, &alloc); err != nil || !ok {
		return models.BudgetAllocation{StockShare: 0.8, CryptoShare: 0.0}
	}
	return alloc.Normalize()
}

// scope builds the ticker universe: index constituents plus the fixed
// watchlist, with crypto symbols cut when the advisory parks the crypto book
// and explicitly ensured present otherwise.
func (o *Orchestrator) scope(ctx context.Context, alloc models.BudgetAllocation) []string {
	constituents, err := o.market.Constituents(ctx)
	if err != nil {
		o.logger.Warn("constituents unavailable", xlogger.Error(err))
	}
	universe := util.Dedupe(append(constituents, o.cfg.Watchlist...))

	if alloc.CryptoShare < o.cfg.MinCryptoShare {
		filtered := universe[:0]
		for _, s := range universe {
			if !o.crypto.IsCrypto(s) {
				filtered = append(filtered, s)
			}
		}
		return filtered
	}
	return util.Dedupe(append(universe, o.cfg.CryptoSymbols...))
}

// cycle is one loop iteration. Returns how long to sleep before the next.
// The panic check, the conference check and the exit sweep run every
// iteration; crypto positions trade around the clock and must be protected
// outside the equity session. Only screening is hours-gated.
func (o *Orchestrator) cycle(ctx context.Context) time.Duration {
	o.checkPanic(ctx)

	if err := o.maybeRunConference(ctx); err != nil {
		o.logger.Error("conference failed", xlogger.Error(err))
		o.metrics.RecordError("conference")
	}

	if closed, err := o.monitor.Sweep(ctx); err != nil {
		o.logger.Error("exit sweep failed", xlogger.Error(err))
		o.metrics.RecordError("sweep")
	} else if closed > 0 {
		o.logger.Info("positions closed", xlogger.Int("count", closed))
	}

	if !InTradingHours(o.now(), o.loc) {
		o.logger.Debug("outside trading hours, screening skipped")
		return o.cfg.HeartbeatInterval
	}

	bias := o.updateBias(ctx)
	alloc := o.currentAllocation(ctx)
	universe := o.scope(ctx, alloc)

	if err := o.pipeline.ScanBatch(ctx, universe, bias); err != nil {
		o.logger.Error("scan failed", xlogger.Error(err))
		o.metrics.RecordError("scan")
	}
	return o.cfg.CycleInterval
}

// ScanOnce runs a single bias update, scope selection and batched scan. Used
// by the one-shot diagnostic mode.
func (o *Orchestrator) ScanOnce(ctx context.Context) error {
	bias := o.updateBias(ctx)
	alloc := o.currentAllocation(ctx)
	return o.pipeline.ScanBatch(ctx, o.scope(ctx, alloc), bias)
}

// SweepOnce runs a single position-exit sweep. Used by the one-shot
// diagnostic mode.
func (o *Orchestrator) SweepOnce(ctx context.Context) (int, error) {
	return o.monitor.Sweep(ctx)
}

// Run drives cycles until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	o.logger.Info("trading loop started",
		xlogger.String("timezone", o.cfg.Timezone),
		xlogger.Duration("cycle", o.cfg.CycleInterval))
	for {
		sleep := o.safeCycle(ctx)
		select {
		case <-ctx.Done():
			o.logger.Info("trading loop stopped")
			return
		case <-time.After(sleep):
		}
	}
}

// safeCycle wraps one cycle so a panic inside an iteration becomes a logged
// error plus a backoff instead of taking down the loop.
func (o *Orchestrator) safeCycle(ctx context.Context) (sleep time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("cycle panicked", xlogger.Any("panic", r))
			o.metrics.RecordError("cycle")
			sleep = o.cfg.ErrorBackoff
		}
	}()
	return o.cycle(ctx)
}

// Heartbeat periodically sends a portfolio summary while inside trading
// hours. Run it in its own goroutine alongside Run.
func (o *Orchestrator) Heartbeat(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !InTradingHours(o.now(), o.loc) {
				continue
			}
			summary, err := o.ledger.Summary(ctx)
			if err != nil {
				o.logger.Warn("summary unavailable", xlogger.Error(err))
				continue
			}
			o.notify.Notify(fmt.Sprintf("Heartbeat: cash %.2f, %d open positions, %d trades",
				summary.Cash, summary.OpenPositions, summary.TradeCount))
		}
	}
}
