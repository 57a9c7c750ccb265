package screener

import (
	"context"
	"testing"
	"time"

	"Boardroom/internal/domain/models"
	"Boardroom/internal/ledger"
	"Boardroom/internal/testutil"
	"Boardroom/pkg/config"
	xlogger "Boardroom/pkg/logger"
)

func testConfig() config.TradingConfig {
	return config.TradingConfig{
		TradeAllocation:     0.20,
		MinTradeAmount:      50,
		CryptoSymbols:       []string{"BTC-USD"},
		DefaultSentiment:    0.90,
		StrictSentiment:     0.98,
		DefaultVolumeMult:   1.2,
		StrictVolumeMult:    3.0,
		MaxPERatio:          150,
		MomentumVolumeRatio: 3.0,
		BatchSize:           100,
		BatchPause:          time.Millisecond,
	}
}

type fixture struct {
	pipeline *Pipeline
	audit    *testutil.MemoryAudit
	state    *testutil.MemoryState
	market   *testutil.StubMarket
}

func newFixture(balance float64, sentiment float64, ratios map[string]float64, results map[string]models.AnalysisResult) *fixture {
	state := testutil.NewMemoryState(balance)
	audit := &testutil.MemoryAudit{}
	led := ledger.New(state, audit, testutil.NopEvents{}, &testutil.RecordingNotifier{},
		testutil.NopMetrics{}, xlogger.Nop(), 0.20, 50)
	market := &testutil.StubMarket{Snapshots: map[string]models.MarketSnapshot{}}
	p := NewPipeline(
		market,
		&testutil.StubNews{BySymbol: map[string][]string{}},
		&testutil.StubFundamentals{Ratios: ratios},
		&testutil.StubSentiment{ScoreValue: sentiment},
		&testutil.StubAnalyst{Results: results},
		led,
		audit,
		testutil.NopEvents{},
		testutil.NopMetrics{},
		xlogger.Nop(),
		testConfig(),
	)
	return &fixture{pipeline: p, audit: audit, state: state, market: market}
}

func snap(symbol string, volumeRatio float64) models.MarketSnapshot {
	return models.MarketSnapshot{
		Symbol:        symbol,
		CurrentVolume: volumeRatio * 1000,
		AverageVolume: 1000,
		CurrentPrice:  100,
		PreviousClose: 98,
	}
}

func strongBuy(symbol string) models.AnalysisResult {
	return models.AnalysisResult{
		Symbol: symbol, Signal: models.SignalBuy,
		Confidence: models.ConfidenceHigh, LatestPrice: 100,
	}
}

func TestSentimentGateFiresBeforeTechnicalVeto(t *testing.T) {
	f := newFixture(2000, 0.50, nil, map[string]models.AnalysisResult{
		"AAPL": {Symbol: "AAPL", Signal: models.SignalSell, Confidence: models.ConfidenceHigh, LatestPrice: 100},
	})
	d, err := f.pipeline.Evaluate(context.Background(), "AAPL", snap("AAPL", 2.0), models.BiasNeutral)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Outcome != models.OutcomeRejected || d.ReasonCode != ReasonSentiment {
		t.Fatalf("expected sentiment rejection, got %s/%s", d.Outcome, d.ReasonCode)
	}
}

func TestStrictThresholdInSellTape(t *testing.T) {
	f := newFixture(2000, 0.95, nil, map[string]models.AnalysisResult{"AAPL": strongBuy("AAPL")})
	d, err := f.pipeline.Evaluate(context.Background(), "AAPL", snap("AAPL", 2.0), models.BiasSell)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Outcome != models.OutcomeRejected || d.ReasonCode != ReasonSentiment {
		t.Fatalf("0.95 should fail the strict threshold, got %s/%s", d.Outcome, d.ReasonCode)
	}
}

func TestMomentumExceptionStrongBuyTier(t *testing.T) {
	f := newFixture(2000, 0.95, map[string]float64{"NVDA": 200}, map[string]models.AnalysisResult{
		"NVDA": strongBuy("NVDA"),
	})
	d, err := f.pipeline.Evaluate(context.Background(), "NVDA", snap("NVDA", 1.5), models.BiasNeutral)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Outcome != models.OutcomeExecuted {
		t.Fatalf("strongest buy tier should override P/E 200, got %s (%s)", d.Outcome, d.Reason)
	}
	if len(f.audit.Trades) != 1 {
		t.Fatalf("EXECUTED must carry a BUY trade record, got %d", len(f.audit.Trades))
	}
}

func TestValuationRejectionWithoutMomentum(t *testing.T) {
	f := newFixture(2000, 0.95, map[string]float64{"TSLA": 200}, map[string]models.AnalysisResult{
		"TSLA": {Symbol: "TSLA", Signal: models.SignalHold, Confidence: models.ConfidenceLow, LatestPrice: 100},
	})
	d, err := f.pipeline.Evaluate(context.Background(), "TSLA", snap("TSLA", 1.0), models.BiasNeutral)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Outcome != models.OutcomeRejected || d.ReasonCode != ReasonValuation {
		t.Fatalf("expected valuation rejection, got %s/%s", d.Outcome, d.ReasonCode)
	}
}

func TestCryptoBypassesValuationGate(t *testing.T) {
	f := newFixture(2000, 0.95, map[string]float64{"BTC-USD": 9999}, map[string]models.AnalysisResult{
		"BTC-USD": strongBuy("BTC-USD"),
	})
	d, err := f.pipeline.Evaluate(context.Background(), "BTC-USD", snap("BTC-USD", 1.5), models.BiasNeutral)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Outcome != models.OutcomeExecuted {
		t.Fatalf("crypto should skip the valuation gate, got %s (%s)", d.Outcome, d.Reason)
	}
}

func TestTechnicalVetoAfterSentimentPass(t *testing.T) {
	f := newFixture(2000, 0.95, nil, map[string]models.AnalysisResult{
		"INTC": {Symbol: "INTC", Signal: models.SignalSell, Confidence: models.ConfidenceHigh, LatestPrice: 100},
	})
	d, err := f.pipeline.Evaluate(context.Background(), "INTC", snap("INTC", 2.0), models.BiasNeutral)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Outcome != models.OutcomeRejected || d.ReasonCode != ReasonTechnical {
		t.Fatalf("expected technical veto, got %s/%s", d.Outcome, d.ReasonCode)
	}
}

func TestUnfundedPassBecomesSignalOnly(t *testing.T) {
	f := newFixture(200, 0.95, nil, map[string]models.AnalysisResult{"AAPL": strongBuy("AAPL")})
	d, err := f.pipeline.Evaluate(context.Background(), "AAPL", snap("AAPL", 2.0), models.BiasNeutral)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if d.Outcome != models.OutcomeSignalOnly || d.ReasonCode != ReasonUnfunded {
		t.Fatalf("expected SIGNAL_ONLY, got %s/%s", d.Outcome, d.ReasonCode)
	}
	if len(f.audit.Trades) != 0 {
		t.Fatal("SIGNAL_ONLY must not produce a trade record")
	}
}

func TestScanEmitsHeartbeatOnEmptyCycle(t *testing.T) {
	f := newFixture(2000, 0.95, nil, nil)
	f.market.Snapshots["AAPL"] = snap("AAPL", 1.0) // below the 1.2x multiplier

	if err := f.pipeline.ScanBatch(context.Background(), []string{"AAPL"}, models.BiasNeutral); err != nil {
		t.Fatalf("ScanBatch: %v", err)
	}
	if len(f.audit.Decisions) != 1 {
		t.Fatalf("expected one heartbeat decision, got %d", len(f.audit.Decisions))
	}
	d := f.audit.Decisions[0]
	if d.Symbol != "MARKET" || d.Outcome != models.OutcomeScan {
		t.Fatalf("unexpected heartbeat record: %+v", d)
	}
}

func TestScanSkipsHeldSymbols(t *testing.T) {
	f := newFixture(2000, 0.95, nil, map[string]models.AnalysisResult{"AAPL": strongBuy("AAPL")})
	f.market.Snapshots["AAPL"] = snap("AAPL", 2.0)
	f.state.SavePosition(context.Background(), models.Position{Symbol: "AAPL", Shares: 1})

	if err := f.pipeline.ScanBatch(context.Background(), []string{"AAPL"}, models.BiasNeutral); err != nil {
		t.Fatalf("ScanBatch: %v", err)
	}
	for _, d := range f.audit.Decisions {
		if d.Symbol == "AAPL" {
			t.Fatalf("held symbol must not be re-evaluated: %+v", d)
		}
	}
}

func TestScanEvaluatesVolumeSpikes(t *testing.T) {
	f := newFixture(2000, 0.95, nil, map[string]models.AnalysisResult{"NVDA": strongBuy("NVDA")})
	f.market.Snapshots["NVDA"] = snap("NVDA", 2.5)
	f.market.Snapshots["AAPL"] = snap("AAPL", 1.0)

	if err := f.pipeline.ScanBatch(context.Background(), []string{"NVDA", "AAPL"}, models.BiasNeutral); err != nil {
		t.Fatalf("ScanBatch: %v", err)
	}
	if len(f.audit.Decisions) != 1 || f.audit.Decisions[0].Symbol != "NVDA" {
		t.Fatalf("expected exactly one NVDA decision, got %+v", f.audit.Decisions)
	}
	if f.audit.Decisions[0].Outcome != models.OutcomeExecuted {
		t.Fatalf("expected EXECUTED, got %s", f.audit.Decisions[0].Outcome)
	}
}
