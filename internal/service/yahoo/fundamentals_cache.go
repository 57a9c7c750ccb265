package yahoo

import (
	"context"
	"strconv"
	"time"

	"Boardroom/internal/domain/repository"
	xlogger "Boardroom/pkg/logger"
)

const (
	peCacheTTL = 24 * time.Hour
	// peAbsent marks a symbol known to have no ratio so misses are not
	// refetched every cycle.
	peAbsent = "absent"
)

// CachedFundamentals caches P/E lookups in front of any FundamentalsSource.
// Valuation ratios move slowly; a day-old ratio is fine for a 150x cutoff.
type CachedFundamentals struct {
	source repository.FundamentalsSource
	cache  repository.Cache
	logger *xlogger.Logger
}

func NewCachedFundamentals(source repository.FundamentalsSource, cache repository.Cache, logger *xlogger.Logger) *CachedFundamentals {
	return &CachedFundamentals{source: source, cache: cache, logger: logger.With("fundamentals")}
}

func (c *CachedFundamentals) PERatio(ctx context.Context, symbol string) (*float64, error) {
	key := "fundamentals:pe:" + symbol
	if raw, ok, err := c.cache.GetBytes(key); err == nil && ok {
		if string(raw) == peAbsent {
			return nil, nil
		}
		if pe, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return &pe, nil
		}
	}

	pe, err := c.source.PERatio(ctx, symbol)
	if err != nil {
		return nil, err
	}
	val := peAbsent
	if pe != nil {
		val = strconv.FormatFloat(*pe, 'f', -1, 64)
	}
	if err := c.cache.SetBytes(key, []byte(val), peCacheTTL); err != nil {
		c.logger.Warn("cache write failed", xlogger.String("symbol", symbol), xlogger.Error(err))
	}
	return pe, nil
}
