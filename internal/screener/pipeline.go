package screener

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Boardroom/internal/domain/models"
	"Boardroom/internal/domain/repository"
	"Boardroom/internal/ledger"
	"Boardroom/pkg/config"
	xlogger "Boardroom/pkg/logger"
)

// Reason codes carried on gate decisions.
const (
	ReasonSentiment  = "LOW_SENTIMENT"
	ReasonValuation  = "EXTREME_VALUATION"
	ReasonTechnical  = "TECHNICAL_SELL"
	ReasonUnfunded   = "INSUFFICIENT_ALLOCATION"
	ReasonHeld       = "ALREADY_HELD"
	ReasonExecuted   = "EXECUTED"
	ReasonEmptyCycle = "NO_CANDIDATES"
)

// GateContext carries everything the ordered gates inspect for one candidate.
// Populated by the fan-out join, read-only afterwards.
type GateContext struct {
	Symbol    string
	Snapshot  models.MarketSnapshot
	Bias      models.MarketBias
	Sentiment float64
	PERatio   *float64
	Analysis  models.AnalysisResult
}

// Pipeline turns one candidate symbol into a single audited gate decision.
type Pipeline struct {
	market       repository.MarketData
	news         repository.NewsSource
	fundamentals repository.FundamentalsSource
	sentiment    repository.SentimentScorer
	analyst      repository.Analyst
	ledger       *ledger.Ledger
	audit        repository.AuditLog
	events       repository.EventPublisher
	metrics      repository.Metrics
	logger       *xlogger.Logger
	cfg          config.TradingConfig
	crypto       models.CryptoSet
}

func NewPipeline(
	market repository.MarketData,
	news repository.NewsSource,
	fundamentals repository.FundamentalsSource,
	sentiment repository.SentimentScorer,
	analyst repository.Analyst,
	led *ledger.Ledger,
	audit repository.AuditLog,
	events repository.EventPublisher,
	metrics repository.Metrics,
	logger *xlogger.Logger,
	cfg config.TradingConfig,
) *Pipeline {
	return &Pipeline{
		market:       market,
		news:         news,
		fundamentals: fundamentals,
		sentiment:    sentiment,
		analyst:      analyst,
		ledger:       led,
		audit:        audit,
		events:       events,
		metrics:      metrics,
		logger:       logger.With("screener"),
		cfg:          cfg,
		crypto:       models.NewCryptoSet(cfg.CryptoSymbols),
	}
}

// gather fans out the three independent signal fetches and joins them. Each
// failure degrades to a neutral input rather than failing the candidate.
func (p *Pipeline) gather(ctx context.Context, symbol string, snapshot models.MarketSnapshot, bias models.MarketBias) GateContext {
	gc := GateContext{Symbol: symbol, Snapshot: snapshot, Bias: bias}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		headlines, err := p.news.Headlines(ctx, symbol)
		if err != nil {
			p.logger.Warn("headlines unavailable", xlogger.String("symbol", symbol), xlogger.Error(err))
			return
		}
		score, err := p.sentiment.Score(ctx, headlines)
		if err != nil {
			p.logger.Warn("sentiment unavailable", xlogger.String("symbol", symbol), xlogger.Error(err))
			return
		}
		gc.Sentiment = score
	}()

	go func() {
		defer wg.Done()
		pe, err := p.fundamentals.PERatio(ctx, symbol)
		if err != nil {
			p.logger.Warn("fundamentals unavailable", xlogger.String("symbol", symbol), xlogger.Error(err))
			return
		}
		gc.PERatio = pe
	}()

	go func() {
		defer wg.Done()
		analysis, err := p.analyst.Analyze(ctx, symbol)
		if err != nil {
			p.logger.Warn("analysis unavailable", xlogger.String("symbol", symbol), xlogger.Error(err))
			analysis = models.AnalysisResult{
				Symbol:     symbol,
				Signal:     models.SignalHold,
				Confidence: models.ConfidenceLow,
				Reasoning:  "No Data",
			}
		}
		gc.Analysis = analysis
	}()

	wg.Wait()
	return gc
}

// Evaluate runs the four ordered gates over one candidate and, on a full
// pass, asks the ledger to buy. The returned decision is already persisted.
func (p *Pipeline) Evaluate(ctx context.Context, symbol string, snapshot models.MarketSnapshot, bias models.MarketBias) (models.GateDecision, error) {
	start := time.Now()
	defer func() {
		p.metrics.RecordLatency("evaluate", time.Since(start).Seconds())
	}()

	gc := p.gather(ctx, symbol, snapshot, bias)

	// Gate 1: sentiment, strict threshold in a SELL tape.
	threshold := p.cfg.DefaultSentiment
	if bias == models.BiasSell {
		threshold = p.cfg.StrictSentiment
	}
	if gc.Sentiment < threshold {
		return p.record(ctx, gc, models.OutcomeRejected, ReasonSentiment,
			fmt.Sprintf("Low sentiment (%.2f < %.2f)", gc.Sentiment, threshold)), nil
	}

	// Gate 2: valuation, equities only. Crypto and ratio-less symbols pass.
	if !p.crypto.IsCrypto(symbol) && gc.PERatio != nil && *gc.PERatio > p.cfg.MaxPERatio {
		momentum := gc.Analysis.StrongBuy() || gc.Snapshot.VolumeRatio() > p.cfg.MomentumVolumeRatio
		if !momentum {
			return p.record(ctx, gc, models.OutcomeRejected, ReasonValuation,
				fmt.Sprintf("Extreme Valuation (P/E %.1f > %.0f)", *gc.PERatio, p.cfg.MaxPERatio)), nil
		}
		p.logger.Info("momentum exception",
			xlogger.String("symbol", symbol),
			xlogger.Float64("pe", *gc.PERatio),
			xlogger.Float64("volume_ratio", gc.Snapshot.VolumeRatio()))
	}

	// Gate 3: technical veto. A confirmed downtrend overrides everything.
	if gc.Analysis.Signal == models.SignalSell {
		return p.record(ctx, gc, models.OutcomeRejected, ReasonTechnical,
			"Technical SELL: "+gc.Analysis.Reasoning), nil
	}

	// Gate 4: sector correlation. Reserved seam, passes everything today.
	if d, rejected := p.sectorCorrelationGate(gc); rejected {
		return d, nil
	}

	price := gc.Analysis.LatestPrice
	if price <= 0 {
		price = gc.Snapshot.CurrentPrice
	}
	_, err := p.ledger.Buy(ctx, symbol, price)
	switch {
	case err == nil:
		return p.record(ctx, gc, models.OutcomeExecuted, ReasonExecuted,
			fmt.Sprintf("Bought at %.2f: %s", price, gc.Analysis.Reasoning)), nil
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return p.record(ctx, gc, models.OutcomeSignalOnly, ReasonUnfunded,
			"Actionable but unfunded"), nil
	case errors.Is(err, ledger.ErrAlreadyHeld):
		return p.record(ctx, gc, models.OutcomeSignalOnly, ReasonHeld,
			"Position already open"), nil
	default:
		return models.GateDecision{}, fmt.Errorf("evaluate %s: %w", symbol, err)
	}
}

// sectorCorrelationGate is an intentionally unimplemented extension point for
// correlated-asset groups. It never rejects.
func (p *Pipeline) sectorCorrelationGate(gc GateContext) (models.GateDecision, bool) {
	return models.GateDecision{}, false
}

func (p *Pipeline) record(ctx context.Context, gc GateContext, outcome models.DecisionOutcome, code, reason string) models.GateDecision {
	d := models.GateDecision{
		Symbol:          gc.Symbol,
		Timestamp:       time.Now(),
		Outcome:         outcome,
		ReasonCode:      code,
		Reason:          reason,
		VolumeRatio:     gc.Snapshot.VolumeRatio(),
		SentimentScore:  gc.Sentiment,
		TechnicalSignal: gc.Analysis.Signal,
		Price:           gc.Analysis.LatestPrice,
	}
	if gc.PERatio != nil {
		d.PERatio = *gc.PERatio
	}
	p.persist(ctx, d)
	return d
}

func (p *Pipeline) persist(ctx context.Context, d models.GateDecision) {
	p.metrics.RecordDecision(string(d.Outcome))
	if err := p.audit.LogDecision(ctx, d); err != nil {
		p.logger.Error("decision audit failed", xlogger.String("symbol", d.Symbol), xlogger.Error(err))
		p.metrics.RecordError("audit")
	}
	if err := p.events.PublishDecision(ctx, d); err != nil {
		p.logger.Warn("decision publish failed", xlogger.String("symbol", d.Symbol), xlogger.Error(err))
		p.metrics.RecordError("publish")
	}
	p.logger.Info("decision",
		xlogger.String("symbol", d.Symbol),
		xlogger.String("outcome", string(d.Outcome)),
		xlogger.String("reason", d.Reason))
}
