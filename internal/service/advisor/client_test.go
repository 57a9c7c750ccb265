package advisor

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"Boardroom/internal/domain/models"
	"Boardroom/internal/service/cache"
	xlogger "Boardroom/pkg/logger"
)

func TestParseAllocationFencedOutput(t *testing.T) {
	content := "Here is my recommendation:\n```json\n{\"stock_share\": 0.6, \"crypto_share\": 0.2}\n```\nStay cautious."
	alloc, err := parseAllocation(content)
	if err != nil {
		t.Fatalf("parseAllocation: %v", err)
	}
	if alloc.StockShare != 0.6 || alloc.CryptoShare != 0.2 {
		t.Fatalf("unexpected allocation: %+v", alloc)
	}
}

func TestParseAllocationBareObject(t *testing.T) {
	alloc, err := parseAllocation(`{"stock_share": 0.9, "crypto_share": 0.1}`)
	if err != nil {
		t.Fatalf("parseAllocation: %v", err)
	}
	if alloc.StockShare != 0.9 || alloc.CryptoShare != 0.1 {
		t.Fatalf("unexpected allocation: %+v", alloc)
	}
}

func TestParseAllocationNoJSON(t *testing.T) {
	if _, err := parseAllocation("markets look choppy, stay flat"); err == nil {
		t.Fatal("expected an error for prose output")
	}
}

func TestNormalizeOversubscribed(t *testing.T) {
	alloc, err := parseAllocation(`{"stock_share": 0.8, "crypto_share": 0.6}`)
	if err != nil {
		t.Fatalf("parseAllocation: %v", err)
	}
	norm := alloc.Normalize()
	if total := norm.StockShare + norm.CryptoShare; math.Abs(total-1.0) > 1e-9 {
		t.Fatalf("expected shares to scale to 1.0, got %v", total)
	}
	if norm.StockShare <= norm.CryptoShare {
		t.Fatalf("scaling should preserve ordering: %+v", norm)
	}
}

func TestMarketBriefCachedWithinTTL(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{{Message: chatMessage{Role: "assistant", Content: "quiet tape, futures flat"}}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "test-model", 5*time.Second, time.Minute, cache.NewTTLCache(), xlogger.Nop())
	ctx := context.Background()

	first, err := c.MarketBrief(ctx)
	if err != nil {
		t.Fatalf("first brief: %v", err)
	}
	second, err := c.MarketBrief(ctx)
	if err != nil {
		t.Fatalf("second brief: %v", err)
	}
	if first != second {
		t.Fatalf("cached brief differs: %q vs %q", first, second)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Fatalf("expected one upstream call within the TTL, got %d", got)
	}
}

func TestAllocateFallsBackOnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "test-model", 5*time.Second, time.Minute, cache.NewTTLCache(), xlogger.Nop())
	alloc, err := c.Allocate(context.Background(), -12.5, "choppy", models.BiasNeutral)
	if err != nil {
		t.Fatalf("Allocate must not fail on upstream errors: %v", err)
	}
	if alloc != fallbackAllocation {
		t.Fatalf("expected fallback allocation, got %+v", alloc)
	}
}

func TestNormalizeClampsNegative(t *testing.T) {
	alloc, err := parseAllocation(`{"stock_share": 1.2, "crypto_share": -0.5}`)
	if err != nil {
		t.Fatalf("parseAllocation: %v", err)
	}
	norm := alloc.Normalize()
	if norm.CryptoShare != 0 {
		t.Fatalf("negative share should clamp to zero: %+v", norm)
	}
	if norm.StockShare > 1.0 {
		t.Fatalf("stock share should not exceed 1.0: %+v", norm)
	}
}
