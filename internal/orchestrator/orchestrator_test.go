package orchestrator

import (
	"context"
	"testing"
	"time"

	"Boardroom/internal/domain/models"
	"Boardroom/internal/ledger"
	"Boardroom/internal/monitor"
	"Boardroom/internal/screener"
	"Boardroom/internal/testutil"
	"Boardroom/pkg/config"
	xlogger "Boardroom/pkg/logger"
)

// A Tuesday, mid-session in the configured (UTC) timezone.
var tradingNow = time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)

func testTradingConfig() config.TradingConfig {
	return config.TradingConfig{
		TradeAllocation:   0.20,
		MinTradeAmount:    50,
		Watchlist:         []string{"AAPL", "NVDA"},
		CryptoSymbols:     []string{"BTC-USD", "ETH-USD"},
		BenchmarkSymbol:   "SPY",
		CryptoBenchmark:   "BTC-USD",
		DefaultSentiment:  0.90,
		StrictSentiment:   0.98,
		DefaultVolumeMult: 1.2,
		StrictVolumeMult:  3.0,
		MaxPERatio:        150,
		PanicDropPct:      -2.0,
		MinCryptoShare:    0.10,
		BatchSize:         100,
		BatchPause:        time.Millisecond,
		CycleInterval:     time.Minute,
		ErrorBackoff:      time.Second,
		HeartbeatInterval: time.Hour,
		Timezone:          "UTC",
	}
}

type orchFixture struct {
	orch    *Orchestrator
	advisor *testutil.StubAdvisor
	state   *testutil.MemoryState
	market  *testutil.StubMarket
	analyst *testutil.StubAnalyst
	audit   *testutil.MemoryAudit
}

func newOrchFixture(t *testing.T) *orchFixture {
	t.Helper()
	cfg := testTradingConfig()
	state := testutil.NewMemoryState(2000)
	audit := &testutil.MemoryAudit{}
	market := &testutil.StubMarket{
		Snapshots: map[string]models.MarketSnapshot{},
		Histories: map[string]models.Series{},
	}
	analyst := &testutil.StubAnalyst{}
	advisor := &testutil.StubAdvisor{
		Allocation: models.BudgetAllocation{StockShare: 0.7, CryptoShare: 0.2},
		Brief:      "calm tape",
	}
	led := ledger.New(state, audit, testutil.NopEvents{}, &testutil.RecordingNotifier{},
		testutil.NopMetrics{}, xlogger.Nop(), cfg.TradeAllocation, cfg.MinTradeAmount)
	pipeline := screener.NewPipeline(market, &testutil.StubNews{}, &testutil.StubFundamentals{},
		&testutil.StubSentiment{}, analyst, led, audit, testutil.NopEvents{},
		testutil.NopMetrics{}, xlogger.Nop(), cfg)
	mon := monitor.New(analyst, nil, led, testutil.NopMetrics{}, xlogger.Nop(), 5.0, 0.96, 5, -2.0)

	orch, err := New(market, analyst, advisor, pipeline, mon, led, state, audit,
		&testutil.RecordingNotifier{}, testutil.NopMetrics{}, xlogger.Nop(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	orch.now = func() time.Time { return tradingNow }
	return &orchFixture{orch: orch, advisor: advisor, state: state, market: market,
		analyst: analyst, audit: audit}
}

func TestTradingHoursWindow(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"mid session", time.Date(2026, 3, 10, 11, 0, 0, 0, loc), true},
		{"at the open", time.Date(2026, 3, 10, 8, 30, 0, 0, loc), true},
		{"before the open", time.Date(2026, 3, 10, 8, 29, 0, 0, loc), false},
		{"at the close", time.Date(2026, 3, 10, 17, 0, 0, 0, loc), false},
		{"saturday", time.Date(2026, 3, 14, 11, 0, 0, 0, loc), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InTradingHours(tc.at, loc); got != tc.want {
				t.Fatalf("InTradingHours(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestCycleSweepsPositionsOutsideTradingHours(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()

	// Saturday, mid-day. Screening is closed but the crypto book is live.
	f.orch.now = func() time.Time {
		return time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	}
	f.state.SavePosition(ctx, models.Position{
		Symbol:            "BTC-USD",
		Shares:            0.01,
		AvgPrice:          50000,
		EntryPriceWithFee: 50000,
		CostBasis:         500,
		EntryTime:         time.Date(2026, 3, 13, 15, 0, 0, 0, time.UTC),
	})
	f.analyst.Results = map[string]models.AnalysisResult{
		"BTC-USD": {
			Symbol:      "BTC-USD",
			Signal:      models.SignalHold,
			Confidence:  models.ConfidenceLow,
			LatestPrice: 39000, // far below the 48000 stop-loss line
		},
	}

	if sleep := f.orch.cycle(ctx); sleep != f.orch.cfg.HeartbeatInterval {
		t.Fatalf("after-hours cycle should sleep the heartbeat interval, got %v", sleep)
	}

	positions, _ := f.state.Positions(ctx)
	if _, held := positions["BTC-USD"]; held {
		t.Fatal("stop-loss exit must run outside trading hours")
	}
	if len(f.audit.Decisions) != 0 {
		t.Fatalf("screening must stay closed outside trading hours, got %+v", f.audit.Decisions)
	}
}

func TestConferenceRunsOncePerDay(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()

	if err := f.orch.maybeRunConference(ctx); err != nil {
		t.Fatalf("first conference: %v", err)
	}
	if err := f.orch.maybeRunConference(ctx); err != nil {
		t.Fatalf("second conference: %v", err)
	}
	if f.advisor.AllocateCalls != 1 {
		t.Fatalf("advisory must be called exactly once per day, got %d", f.advisor.AllocateCalls)
	}

	var alloc models.BudgetAllocation
	ok, err := f.state.GetConfig(ctx, allocationKey, &alloc)
	if err != nil || !ok {
		t.Fatalf("allocation not persisted: ok=%v err=%v", ok, err)
	}
	if alloc.StockShare != 0.7 || alloc.CryptoShare != 0.2 {
		t.Fatalf("unexpected persisted allocation: %+v", alloc)
	}
}

func TestConferenceSkippedBeforeThreshold(t *testing.T) {
	f := newOrchFixture(t)
	f.orch.now = func() time.Time {
		return time.Date(2026, 3, 10, 8, 40, 0, 0, time.UTC)
	}
	if err := f.orch.maybeRunConference(context.Background()); err != nil {
		t.Fatalf("maybeRunConference: %v", err)
	}
	if f.advisor.AllocateCalls != 0 {
		t.Fatal("conference must not run before the morning threshold")
	}
}

func TestPanicInterruptForcesRerun(t *testing.T) {
	f := newOrchFixture(t)
	ctx := context.Background()

	if err := f.orch.maybeRunConference(ctx); err != nil {
		t.Fatalf("first conference: %v", err)
	}

	// SPY drops 3% over the last hourly candle.
	f.market.Histories["SPY"] = models.Series{Symbol: "SPY", Candles: []models.Candle{
		{Close: 100}, {Close: 97},
	}}
	if !f.orch.checkPanic(ctx) {
		t.Fatal("expected a panic interrupt")
	}
	if err := f.orch.maybeRunConference(ctx); err != nil {
		t.Fatalf("forced conference: %v", err)
	}
	if f.advisor.AllocateCalls != 2 {
		t.Fatalf("panic must force a same-day re-run, got %d advisory calls", f.advisor.AllocateCalls)
	}
}

func TestNoPanicOnSmallDrop(t *testing.T) {
	f := newOrchFixture(t)
	f.market.Histories["SPY"] = models.Series{Symbol: "SPY", Candles: []models.Candle{
		{Close: 100}, {Close: 99},
	}}
	f.market.Histories["BTC-USD"] = models.Series{Symbol: "BTC-USD", Candles: []models.Candle{
		{Close: 50000}, {Close: 49500},
	}}
	if f.orch.checkPanic(context.Background()) {
		t.Fatal("a 1% drop must not trip the panic interrupt")
	}
}

func TestScopeCutsCryptoWhenUnderfunded(t *testing.T) {
	f := newOrchFixture(t)
	f.market.Members = []string{"AAPL", "MSFT"}

	universe := f.orch.scope(context.Background(), models.BudgetAllocation{StockShare: 0.9, CryptoShare: 0.05})
	for _, s := range universe {
		if s == "BTC-USD" || s == "ETH-USD" {
			t.Fatalf("crypto should be cut when cryptoShare < 0.10: %v", universe)
		}
	}
}

func TestScopeEnsuresCryptoWhenFunded(t *testing.T) {
	f := newOrchFixture(t)
	f.market.Members = []string{"AAPL", "MSFT"}

	universe := f.orch.scope(context.Background(), models.BudgetAllocation{StockShare: 0.7, CryptoShare: 0.2})
	found := map[string]bool{}
	for _, s := range universe {
		found[s] = true
	}
	if !found["BTC-USD"] || !found["ETH-USD"] {
		t.Fatalf("crypto symbols must be ensured present: %v", universe)
	}
	if !found["AAPL"] || !found["MSFT"] || !found["NVDA"] {
		t.Fatalf("universe must include constituents and watchlist: %v", universe)
	}
}
