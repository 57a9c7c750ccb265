package ledger

import (
	"context"
	"errors"
	"math"
	"testing"

	"Boardroom/internal/domain/models"
	"Boardroom/internal/testutil"
	xlogger "Boardroom/pkg/logger"
)

func newTestLedger(balance float64) (*Ledger, *testutil.MemoryState, *testutil.MemoryAudit) {
	state := testutil.NewMemoryState(balance)
	audit := &testutil.MemoryAudit{}
	l := New(state, audit, testutil.NopEvents{}, &testutil.RecordingNotifier{},
		testutil.NopMetrics{}, xlogger.Nop(), 0.20, 50.0)
	return l, state, audit
}

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s: got %v, want %v", name, got, want)
	}
}

func TestBuyForeignListing(t *testing.T) {
	l, state, audit := newTestLedger(2000)
	ctx := context.Background()

	receipt, err := l.Buy(ctx, "NVDA", 100)
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	approx(t, "shares", receipt.Shares, 3.9409, 1e-9)
	approx(t, "cost", receipt.Cost, 400.0014, 0.001)

	balance, _ := state.Balance(ctx)
	approx(t, "balance", balance, 1599.9986, 0.001)

	positions, _ := state.Positions(ctx)
	pos, ok := positions["NVDA"]
	if !ok {
		t.Fatal("position not saved")
	}
	approx(t, "entry price with fee", pos.EntryPriceWithFee, 101.5, 1e-9)
	if pos.FeeRate != 0.015 {
		t.Fatalf("fee rate: got %v, want 0.015", pos.FeeRate)
	}
	if len(audit.Trades) != 1 || audit.Trades[0].Action != models.ActionBuy {
		t.Fatalf("expected one BUY trade record, got %+v", audit.Trades)
	}
}

func TestShareCountRoundsToNearest(t *testing.T) {
	// 400 / 101.5 = 3.94088669..., which must round up, not truncate.
	if got := roundShares(400.0 / 101.5); got != 3.9409 {
		t.Fatalf("roundShares: got %v, want 3.9409", got)
	}
	if got := roundShares(3.94084); got != 3.9408 {
		t.Fatalf("roundShares: got %v, want 3.9408", got)
	}
}

func TestBuyDomesticListingIsFeeFree(t *testing.T) {
	l, state, _ := newTestLedger(2000)
	ctx := context.Background()

	receipt, err := l.Buy(ctx, "SHOP.TO", 100)
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if receipt.Shares != 4.0 {
		t.Fatalf("shares: got %v, want exactly 4.0", receipt.Shares)
	}
	approx(t, "cost", receipt.Cost, 400, 1e-9)

	balance, _ := state.Balance(ctx)
	approx(t, "balance", balance, 1600, 1e-9)
}

func TestBuyBelowAllocationFloor(t *testing.T) {
	l, _, audit := newTestLedger(200) // 20% of 200 is below the $50 floor
	_, err := l.Buy(context.Background(), "AAPL", 100)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if len(audit.Trades) != 0 {
		t.Fatal("rejected buy must not produce a trade record")
	}
}

func TestBuyRejectsDuplicatePosition(t *testing.T) {
	l, _, _ := newTestLedger(10000)
	ctx := context.Background()
	if _, err := l.Buy(ctx, "AAPL", 100); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	if _, err := l.Buy(ctx, "AAPL", 100); !errors.Is(err, ErrAlreadyHeld) {
		t.Fatalf("expected ErrAlreadyHeld, got %v", err)
	}
}

func TestSellRoundTripCarriesBothFees(t *testing.T) {
	l, state, audit := newTestLedger(2000)
	ctx := context.Background()

	if _, err := l.Buy(ctx, "NVDA", 100); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	receipt, err := l.Sell(ctx, "NVDA", 110, "Profit Target")
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}

	// proceeds = 3.9409 * 110 * 0.985, pnl = proceeds - cost basis
	approx(t, "proceeds", receipt.Proceeds, 426.9965, 0.001)
	approx(t, "pnl", receipt.PnL, 26.9952, 0.001)
	if receipt.PnLPercent <= 6.5 || receipt.PnLPercent >= 7.0 {
		t.Fatalf("pnl percent out of range: %v", receipt.PnLPercent)
	}

	positions, _ := state.Positions(ctx)
	if len(positions) != 0 {
		t.Fatal("position should be closed")
	}
	balance, _ := state.Balance(ctx)
	approx(t, "balance", balance, 2026.9952, 0.001)

	if len(audit.Trades) != 2 || audit.Trades[1].Action != models.ActionSell {
		t.Fatalf("expected BUY then SELL records, got %+v", audit.Trades)
	}
	if audit.Trades[1].PnL == 0 {
		t.Fatal("sell record must carry realized pnl")
	}
}

func TestSellWithoutPosition(t *testing.T) {
	l, _, _ := newTestLedger(2000)
	if _, err := l.Sell(context.Background(), "NVDA", 100, "Stop Loss"); !errors.Is(err, ErrNoPosition) {
		t.Fatalf("expected ErrNoPosition, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	l, _, _ := newTestLedger(2000)
	ctx := context.Background()
	if _, err := l.Buy(ctx, "AAPL", 50); err != nil {
		t.Fatalf("Buy: %v", err)
	}
	sum, err := l.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.OpenPositions != 1 || sum.TradeCount != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.Cash >= 2000 {
		t.Fatalf("cash should have decreased: %v", sum.Cash)
	}
}
