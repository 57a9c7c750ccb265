package monitor

import (
	"context"
	"testing"
	"time"

	"Boardroom/internal/domain/models"
	"Boardroom/internal/ledger"
	"Boardroom/internal/testutil"
	xlogger "Boardroom/pkg/logger"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestMonitor(analyst *testutil.StubAnalyst, state *testutil.MemoryState, audit *testutil.MemoryAudit) *Monitor {
	led := ledger.New(state, audit, testutil.NopEvents{}, &testutil.RecordingNotifier{},
		testutil.NopMetrics{}, xlogger.Nop(), 0.20, 50)
	m := New(analyst, nil, led, testutil.NopMetrics{}, xlogger.Nop(), 5.0, 0.96, 5, -2.0)
	m.now = func() time.Time { return fixedNow }
	return m
}

func feeFreePosition(symbol string, daysHeld int) models.Position {
	return models.Position{
		Symbol:            symbol,
		Shares:            1,
		AvgPrice:          100,
		FeeRate:           0,
		CostBasis:         100,
		EntryPriceWithFee: 100,
		EntryTime:         fixedNow.AddDate(0, 0, -daysHeld),
	}
}

func TestExitPriority(t *testing.T) {
	m := newTestMonitor(&testutil.StubAnalyst{}, testutil.NewMemoryState(0), &testutil.MemoryAudit{})

	cases := []struct {
		name     string
		daysHeld int
		price    float64
		signal   models.Signal
		want     string
	}{
		{"profit target beats time stop at day 6", 6, 106, models.SignalHold, ExitProfitTarget},
		{"time stop on a stale flat position", 6, 101, models.SignalHold, ExitTimeStop},
		{"time stop suppressed below floor", 6, 97, models.SignalHold, ""},
		{"stop loss on a stale loser", 6, 95, models.SignalHold, ExitStopLoss},
		{"stop loss on a fresh loser", 1, 95, models.SignalHold, ExitStopLoss},
		{"technical breakdown", 1, 99, models.SignalSell, ExitBreakdown},
		{"healthy position holds", 1, 102, models.SignalHold, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := m.exitReason(feeFreePosition("AAPL", tc.daysHeld), tc.price, tc.signal)
			if got != tc.want {
				t.Fatalf("exitReason = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSweepClosesTriggeredPositions(t *testing.T) {
	state := testutil.NewMemoryState(1000)
	audit := &testutil.MemoryAudit{}
	analyst := &testutil.StubAnalyst{Results: map[string]models.AnalysisResult{
		"WIN":  {Symbol: "WIN", Signal: models.SignalHold, LatestPrice: 110},
		"HOLD": {Symbol: "HOLD", Signal: models.SignalHold, LatestPrice: 101},
	}}
	m := newTestMonitor(analyst, state, audit)

	ctx := context.Background()
	state.SavePosition(ctx, feeFreePosition("WIN", 2))
	state.SavePosition(ctx, feeFreePosition("HOLD", 2))

	closed, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 closed position, got %d", closed)
	}

	positions, _ := state.Positions(ctx)
	if _, stillOpen := positions["WIN"]; stillOpen {
		t.Fatal("WIN should have been sold at the profit target")
	}
	if _, held := positions["HOLD"]; !held {
		t.Fatal("HOLD should still be open")
	}
	if len(audit.Trades) != 1 || audit.Trades[0].Action != models.ActionSell {
		t.Fatalf("expected exactly one SELL record, got %+v", audit.Trades)
	}
}

func TestSweepPrefersStreamedQuote(t *testing.T) {
	state := testutil.NewMemoryState(1000)
	audit := &testutil.MemoryAudit{}
	// The daily close says hold; the live tick has already crossed the
	// profit target.
	analyst := &testutil.StubAnalyst{Results: map[string]models.AnalysisResult{
		"AAPL": {Symbol: "AAPL", Signal: models.SignalHold, LatestPrice: 101},
	}}
	led := ledger.New(state, audit, testutil.NopEvents{}, &testutil.RecordingNotifier{},
		testutil.NopMetrics{}, xlogger.Nop(), 0.20, 50)
	quotes := &testutil.StubQuotes{Prices: map[string]float64{"AAPL": 110}}
	m := New(analyst, quotes, led, testutil.NopMetrics{}, xlogger.Nop(), 5.0, 0.96, 5, -2.0)
	m.now = func() time.Time { return fixedNow }

	ctx := context.Background()
	state.SavePosition(ctx, feeFreePosition("AAPL", 1))

	closed, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if closed != 1 {
		t.Fatalf("streamed price must drive the exit, got %d closed", closed)
	}
	if len(audit.Trades) != 1 || audit.Trades[0].Price != 110 {
		t.Fatalf("sell must execute at the streamed price, got %+v", audit.Trades)
	}
}

func TestSweepIsolatesFailures(t *testing.T) {
	state := testutil.NewMemoryState(1000)
	audit := &testutil.MemoryAudit{}
	// No analysis entry for BAD: stub falls back to HOLD with zero price,
	// which the sweep skips without touching the position.
	analyst := &testutil.StubAnalyst{Results: map[string]models.AnalysisResult{
		"GOOD": {Symbol: "GOOD", Signal: models.SignalHold, LatestPrice: 110},
	}}
	m := newTestMonitor(analyst, state, audit)

	ctx := context.Background()
	state.SavePosition(ctx, feeFreePosition("BAD", 2))
	state.SavePosition(ctx, feeFreePosition("GOOD", 2))

	closed, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected the healthy position to close, got %d", closed)
	}
	positions, _ := state.Positions(ctx)
	if _, still := positions["BAD"]; !still {
		t.Fatal("the position without data must be left untouched")
	}
}
