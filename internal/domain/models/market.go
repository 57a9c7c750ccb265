package models

import "time"

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Series is a per-symbol candle history, oldest first.
type Series struct {
	Symbol  string
	Candles []Candle
}

// Closes extracts the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// MarketSnapshot holds the two-point view of a symbol used for candidate
// selection within one scan batch.
type MarketSnapshot struct {
	Symbol        string
	CurrentVolume float64
	AverageVolume float64
	CurrentPrice  float64
	PreviousClose float64
}

// VolumeRatio is current volume over average volume, 0 when the average is
// not positive.
func (m MarketSnapshot) VolumeRatio() float64 {
	if m.AverageVolume <= 0 {
		return 0
	}
	return m.CurrentVolume / m.AverageVolume
}

// ChangePercent is the one-bar price change, 0 when no previous close exists.
func (m MarketSnapshot) ChangePercent() float64 {
	if m.PreviousClose == 0 {
		return 0
	}
	return (m.CurrentPrice - m.PreviousClose) / m.PreviousClose * 100
}

// Signal is the directional output of the technical evaluator.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalHold Signal = "HOLD"
	SignalSell Signal = "SELL"
)

// Confidence tiers for a technical signal.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// AnalysisResult is the immutable per-symbol output of one technical
// evaluation.
type AnalysisResult struct {
	Symbol      string
	Signal      Signal
	Confidence  Confidence
	LatestPrice float64
	RSI         float64
	Reasoning   string
}

// StrongBuy reports whether the result sits in the strongest buy tier, the
// only tier that unlocks the valuation-gate momentum exception.
func (r AnalysisResult) StrongBuy() bool {
	return r.Signal == SignalBuy && r.Confidence == ConfidenceHigh
}

// MarketBias is the broad-market stance derived from the benchmark index.
type MarketBias string

const (
	BiasBuy     MarketBias = "BUY"
	BiasSell    MarketBias = "SELL"
	BiasNeutral MarketBias = "NEUTRAL"
)
