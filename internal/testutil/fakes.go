// Package testutil holds in-memory doubles shared by package tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"Boardroom/internal/domain/models"
)

// MemoryState is an in-memory StateStore.
type MemoryState struct {
	mu        sync.Mutex
	balance   float64
	positions map[string]models.Position
	config    map[string][]byte
}

func NewMemoryState(balance float64) *MemoryState {
	return &MemoryState{
		balance:   balance,
		positions: make(map[string]models.Position),
		config:    make(map[string][]byte),
	}
}

func (m *MemoryState) Balance(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance, nil
}

func (m *MemoryState) SetBalance(ctx context.Context, balance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = balance
	return nil
}

func (m *MemoryState) Positions(ctx context.Context) (map[string]models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.Position, len(m.positions))
	for k, v := range m.positions {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryState) SavePosition(ctx context.Context, pos models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[pos.Symbol] = pos
	return nil
}

func (m *MemoryState) RemovePosition(ctx context.Context, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, symbol)
	return nil
}

func (m *MemoryState) SetConfig(ctx context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.config[key] = blob
	return nil
}

func (m *MemoryState) GetConfig(ctx context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.config[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// MemoryAudit is an in-memory AuditLog.
type MemoryAudit struct {
	mu        sync.Mutex
	Trades    []models.TradeRecord
	Decisions []models.GateDecision
}

func (a *MemoryAudit) LogTrade(ctx context.Context, t models.TradeRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Trades = append(a.Trades, t)
	return nil
}

func (a *MemoryAudit) LogDecision(ctx context.Context, d models.GateDecision) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Decisions = append(a.Decisions, d)
	return nil
}

func (a *MemoryAudit) RecentDecisions(ctx context.Context, symbol string, limit int) ([]models.GateDecision, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.GateDecision
	for i := len(a.Decisions) - 1; i >= 0 && len(out) < limit; i-- {
		if symbol == "" || a.Decisions[i].Symbol == symbol {
			out = append(out, a.Decisions[i])
		}
	}
	return out, nil
}

func (a *MemoryAudit) TradeCount(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Trades), nil
}

func (a *MemoryAudit) RealizedPnLSince(ctx context.Context, since time.Time) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total float64
	for _, t := range a.Trades {
		if t.Action == models.ActionSell && !t.Timestamp.Before(since) {
			total += t.PnL
		}
	}
	return total, nil
}

// NopEvents discards published events.
type NopEvents struct{}

func (NopEvents) PublishTrade(ctx context.Context, t models.TradeRecord) error     { return nil }
func (NopEvents) PublishDecision(ctx context.Context, d models.GateDecision) error { return nil }
func (NopEvents) Close() error                                                     { return nil }

// RecordingNotifier captures notifications.
type RecordingNotifier struct {
	mu       sync.Mutex
	Messages []string
}

func (n *RecordingNotifier) Notify(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, text)
}

// NopMetrics discards instrumentation.
type NopMetrics struct{}

func (NopMetrics) RecordDecision(outcome string)                {}
func (NopMetrics) RecordTrade(action, symbol string)            {}
func (NopMetrics) RecordError(kind string)                      {}
func (NopMetrics) RecordLastPrice(symbol string, price float64) {}
func (NopMetrics) RecordLatency(op string, seconds float64)     {}
func (NopMetrics) RecordCash(balance float64)                   {}

// StubMarket serves canned snapshots and histories.
type StubMarket struct {
	Snapshots map[string]models.MarketSnapshot
	Histories map[string]models.Series
	Members   []string
}

func (s *StubMarket) Snapshot(ctx context.Context, symbols []string, period, interval string) (map[string]models.MarketSnapshot, error) {
	out := make(map[string]models.MarketSnapshot)
	for _, sym := range symbols {
		if snap, ok := s.Snapshots[sym]; ok {
			out[sym] = snap
		}
	}
	return out, nil
}

func (s *StubMarket) History(ctx context.Context, symbol, period, interval string) (models.Series, error) {
	series, ok := s.Histories[symbol]
	if !ok {
		return models.Series{}, fmt.Errorf("no history for %s", symbol)
	}
	return series, nil
}

func (s *StubMarket) Constituents(ctx context.Context) ([]string, error) {
	return s.Members, nil
}

// StubNews serves canned headlines.
type StubNews struct {
	BySymbol map[string][]string
}

func (s *StubNews) Headlines(ctx context.Context, symbol string) ([]string, error) {
	return s.BySymbol[symbol], nil
}

// StubFundamentals serves canned P/E ratios. Absent symbols resolve to nil.
type StubFundamentals struct {
	Ratios map[string]float64
}

func (s *StubFundamentals) PERatio(ctx context.Context, symbol string) (*float64, error) {
	if pe, ok := s.Ratios[symbol]; ok {
		v := pe
		return &v, nil
	}
	return nil, nil
}

// StubSentiment returns a fixed score.
type StubSentiment struct {
	ScoreValue float64
	Err        error
}

func (s *StubSentiment) Score(ctx context.Context, headlines []string) (float64, error) {
	return s.ScoreValue, s.Err
}

// StubAnalyst serves canned per-symbol results.
type StubAnalyst struct {
	Results map[string]models.AnalysisResult
}

func (s *StubAnalyst) Analyze(ctx context.Context, symbol string) (models.AnalysisResult, error) {
	if r, ok := s.Results[symbol]; ok {
		return r, nil
	}
	return models.AnalysisResult{
		Symbol:     symbol,
		Signal:     models.SignalHold,
		Confidence: models.ConfidenceLow,
		Reasoning:  "No Data",
	}, nil
}

// StubQuotes serves canned streamed prices.
type StubQuotes struct {
	Prices map[string]float64
}

func (s *StubQuotes) LastPrice(symbol string) (float64, bool) {
	p, ok := s.Prices[symbol]
	return p, ok
}

// StubAdvisor returns a fixed allocation and brief, counting calls.
type StubAdvisor struct {
	mu            sync.Mutex
	Allocation    models.BudgetAllocation
	Brief         string
	AllocateCalls int
	BriefCalls    int
}

func (s *StubAdvisor) Allocate(ctx context.Context, dailyPnL float64, marketBrief string, bias models.MarketBias) (models.BudgetAllocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AllocateCalls++
	return s.Allocation, nil
}

func (s *StubAdvisor) MarketBrief(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BriefCalls++
	return s.Brief, nil
}
