package models

import "time"

// DecisionOutcome is the terminal state of one candidate evaluation.
type DecisionOutcome string

const (
	OutcomeExecuted   DecisionOutcome = "EXECUTED"
	OutcomeSignalOnly DecisionOutcome = "SIGNAL_ONLY"
	OutcomeRejected   DecisionOutcome = "REJECTED"
	// OutcomeScan is the heartbeat record emitted when a scan completes with
	// zero candidates, so the decision log reflects the empty cycle.
	OutcomeScan DecisionOutcome = "SCAN"
)

// GateDecision is the audit record produced once per candidate per cycle.
// Never mutated after creation.
type GateDecision struct {
	Symbol          string          `json:"symbol"`
	Timestamp       time.Time       `json:"timestamp"`
	Outcome         DecisionOutcome `json:"outcome"`
	ReasonCode      string          `json:"reason_code"`
	Reason          string          `json:"reason"`
	VolumeRatio     float64         `json:"volume_ratio"`
	SentimentScore  float64         `json:"sentiment_score"`
	PERatio         float64         `json:"pe_ratio"`
	TechnicalSignal Signal          `json:"technical_signal"`
	Price           float64         `json:"price"`
}

// Position is one open simulated holding. Owned exclusively by the ledger.
type Position struct {
	Symbol            string    `json:"symbol"`
	Shares            float64   `json:"shares"`
	AvgPrice          float64   `json:"avg_price"`
	FeeRate           float64   `json:"fee_rate"`
	CostBasis         float64   `json:"cost_basis"`
	EntryPriceWithFee float64   `json:"entry_price_with_fee"`
	EntryTime         time.Time `json:"entry_time"`
}

// DaysHeld is the whole number of days since entry.
func (p Position) DaysHeld(now time.Time) int {
	return int(now.Sub(p.EntryTime).Hours() / 24)
}

// NetPnL computes the hypothetical realized profit and its percentage were
// the position sold at price now, with the exit fee mirroring the entry fee.
func (p Position) NetPnL(price float64) (pnl, pnlPercent float64) {
	proceeds := p.Shares * price * (1 - p.FeeRate)
	pnl = proceeds - p.CostBasis
	if p.CostBasis != 0 {
		pnlPercent = pnl / p.CostBasis * 100
	}
	return pnl, pnlPercent
}

// TradeAction distinguishes ledger entries.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// TradeRecord is one append-only ledger entry. PnL is zero for buys.
type TradeRecord struct {
	Symbol    string      `json:"symbol"`
	Action    TradeAction `json:"action"`
	Shares    float64     `json:"shares"`
	Price     float64     `json:"price"`
	FeeRate   float64     `json:"fee_rate"`
	PnL       float64     `json:"pnl"`
	Timestamp time.Time   `json:"timestamp"`
}

// Receipt is returned by successful ledger operations.
type Receipt struct {
	Symbol     string
	Action     TradeAction
	Shares     float64
	Price      float64
	FeeRate    float64
	BreakEven  float64
	Cost       float64
	Proceeds   float64
	PnL        float64
	PnLPercent float64
}

// BudgetAllocation is the advisory split between the equity and crypto books.
type BudgetAllocation struct {
	StockShare  float64 `json:"stock_share"`
	CryptoShare float64 `json:"crypto_share"`
}

// Normalize scales both shares down proportionally when their sum exceeds 1
// and clamps negatives to zero.
func (b BudgetAllocation) Normalize() BudgetAllocation {
	if b.StockShare < 0 {
		b.StockShare = 0
	}
	if b.CryptoShare < 0 {
		b.CryptoShare = 0
	}
	if total := b.StockShare + b.CryptoShare; total > 1.0 {
		b.StockShare /= total
		b.CryptoShare /= total
	}
	return b
}

// PortfolioSummary is the ledger roll-up used for heartbeats and the ops API.
type PortfolioSummary struct {
	Cash          float64 `json:"cash"`
	OpenPositions int     `json:"open_positions"`
	TradeCount    int     `json:"trade_count"`
}
