package analyst

import (
	"strings"
	"testing"

	"Boardroom/internal/domain/models"
)

func zigzagUp(n int) []float64 {
	closes := make([]float64, n)
	closes[0] = 100
	for i := 1; i < n; i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 1.0
		} else {
			closes[i] = closes[i-1] - 0.8
		}
	}
	return closes
}

func TestEvaluateInsufficientHistory(t *testing.T) {
	got := Evaluate("AAPL", zigzagUp(100))
	if got.Signal != models.SignalHold || got.Confidence != models.ConfidenceLow {
		t.Fatalf("expected low-confidence HOLD, got %s/%s", got.Signal, got.Confidence)
	}
	if got.Reasoning != "Insufficient history" {
		t.Fatalf("unexpected reasoning: %q", got.Reasoning)
	}
}

func TestEvaluateUptrendWithRisingRSI(t *testing.T) {
	// Alternating up/down closes ending on an up move keep RSI inside the
	// 40-70 band and rising while the drift holds price above SMA 50.
	got := Evaluate("AAPL", zigzagUp(220))
	if got.Signal != models.SignalBuy {
		t.Fatalf("expected BUY, got %s (%s)", got.Signal, got.Reasoning)
	}
	if got.Confidence != models.ConfidenceHigh {
		t.Fatalf("expected High confidence, got %s (%s)", got.Confidence, got.Reasoning)
	}
	if !got.StrongBuy() {
		t.Fatal("expected StrongBuy to report true")
	}
	if got.LatestPrice <= 0 {
		t.Fatalf("latest price not populated: %v", got.LatestPrice)
	}
}

func TestEvaluateOverboughtKillSwitch(t *testing.T) {
	closes := make([]float64, 220)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	got := Evaluate("NVDA", closes)
	if got.Signal != models.SignalSell {
		t.Fatalf("expected SELL on overbought RSI, got %s (%s)", got.Signal, got.Reasoning)
	}
	if !strings.Contains(got.Reasoning, "overbought") {
		t.Fatalf("reasoning should mention overbought RSI: %q", got.Reasoning)
	}
}

func TestEvaluateBelowTrend(t *testing.T) {
	closes := make([]float64, 220)
	for i := range closes {
		closes[i] = 500 - float64(i)
	}
	got := Evaluate("INTC", closes)
	if got.Signal != models.SignalHold {
		t.Fatalf("expected HOLD below trend, got %s", got.Signal)
	}
	if got.Reasoning != "Below SMA 50" {
		t.Fatalf("unexpected reasoning: %q", got.Reasoning)
	}
}
