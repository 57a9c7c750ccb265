package analyst

import (
	"context"
	"fmt"
	"strings"

	"Boardroom/internal/domain/models"
	"Boardroom/internal/domain/repository"
	xlogger "Boardroom/pkg/logger"

	talib "github.com/markcheno/go-talib"
)

const (
	fastWindow = 50
	slowWindow = 200
	rsiWindow  = 14
	bbWindow   = 20

	historyPeriod   = "1y"
	historyInterval = "1d"
)

// Evaluator derives a directional signal for a symbol from a year of daily
// closes. It is the single source of BUY/HOLD/SELL used by both the
// screening pipeline and the exit engine.
type Evaluator struct {
	market repository.MarketData
	logger *xlogger.Logger
}

func New(market repository.MarketData, logger *xlogger.Logger) *Evaluator {
	return &Evaluator{market: market, logger: logger.With("analyst")}
}

// Analyze fetches history and scores it. Missing or thin data degrades to a
// low-confidence HOLD rather than an error; the pipeline treats that as a
// neutral input.
func (e *Evaluator) Analyze(ctx context.Context, symbol string) (models.AnalysisResult, error) {
	series, err := e.market.History(ctx, symbol, historyPeriod, historyInterval)
	if err != nil {
		e.logger.Warn("history unavailable", xlogger.String("symbol", symbol), xlogger.Error(err))
		return models.AnalysisResult{
			Symbol:     symbol,
			Signal:     models.SignalHold,
			Confidence: models.ConfidenceLow,
			Reasoning:  "No Data",
		}, nil
	}
	return Evaluate(symbol, series.Closes()), nil
}

// Evaluate scores a close series:
//
//	trend:     price must sit above SMA(50) or the symbol is an immediate HOLD
//	momentum:  RSI(14) in the 40-70 band scores +1, +2 when rising
//	overbought: RSI above 75 is a kill switch producing a SELL
//	golden cross: SMA(50) crossing above SMA(200) adds +1
//
// Score >= 3 is the strongest buy tier, >= 2 a medium buy, negative a SELL.
func Evaluate(symbol string, closes []float64) models.AnalysisResult {
	if len(closes) < slowWindow {
		return models.AnalysisResult{
			Symbol:     symbol,
			Signal:     models.SignalHold,
			Confidence: models.ConfidenceLow,
			Reasoning:  "Insufficient history",
		}
	}

	sma50 := talib.Sma(closes, fastWindow)
	sma200 := talib.Sma(closes, slowWindow)
	rsi := talib.Rsi(closes, rsiWindow)
	upper, _, _ := talib.BBands(closes, bbWindow, 2, 2, talib.SMA)

	last := len(closes) - 1
	prev := last - 1
	price := closes[last]
	currRSI := rsi[last]
	prevRSI := rsi[prev]

	result := models.AnalysisResult{
		Symbol:      symbol,
		LatestPrice: price,
		RSI:         currRSI,
	}

	if price <= sma50[last] {
		result.Signal = models.SignalHold
		result.Confidence = models.ConfidenceLow
		result.Reasoning = "Below SMA 50"
		return result
	}

	score := 1
	reasons := []string{"Price > SMA 50"}

	if currRSI >= 40 && currRSI <= 70 {
		if currRSI > prevRSI {
			score += 2
			reasons = append(reasons, fmt.Sprintf("RSI rising (%.1f -> %.1f)", prevRSI, currRSI))
		} else {
			score++
			reasons = append(reasons, fmt.Sprintf("RSI healthy (%.1f)", currRSI))
		}
	}

	if currRSI > 75 {
		// Kill switch: an overbought chart overrides every bullish point.
		score = -10
		reasons = append(reasons, fmt.Sprintf("RSI overbought (%.1f)", currRSI))
		if price > upper[last] {
			reasons = append(reasons, "Above upper Bollinger band")
		}
	}

	if sma50[prev] < sma200[prev] && sma50[last] >= sma200[last] {
		score++
		reasons = append(reasons, "Golden cross")
	}

	switch {
	case score >= 3:
		result.Signal = models.SignalBuy
		result.Confidence = models.ConfidenceHigh
	case score >= 2:
		result.Signal = models.SignalBuy
		result.Confidence = models.ConfidenceMedium
	case score < 0:
		result.Signal = models.SignalSell
		result.Confidence = models.ConfidenceHigh
	default:
		result.Signal = models.SignalHold
		result.Confidence = models.ConfidenceLow
	}
	result.Reasoning = strings.Join(reasons, "; ")
	return result
}
