package screener

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"Boardroom/internal/domain/models"
	xlogger "Boardroom/pkg/logger"
)

const snapshotPeriod = "5d"

// evaluateFanout bounds concurrent candidate evaluations within one batch.
const evaluateFanout = 8

// Mover is one row of the top-gainers report fed into the conference summary.
type Mover struct {
	Symbol        string
	ChangePercent float64
	VolumeRatio   float64
}

// ScanBatch screens the universe in configured batch sizes. Held symbols are
// excluded from re-entry, volume spikes above the bias-dependent multiplier
// become candidates, and candidates are evaluated concurrently. A cycle that
// produces zero candidates still writes one SCAN heartbeat decision.
func (p *Pipeline) ScanBatch(ctx context.Context, universe []string, bias models.MarketBias) error {
	start := time.Now()
	defer func() {
		p.metrics.RecordLatency("scan", time.Since(start).Seconds())
	}()

	held, err := p.ledger.Positions(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	volumeMult := p.cfg.DefaultVolumeMult
	if bias == models.BiasSell {
		volumeMult = p.cfg.StrictVolumeMult
	}

	candidates := 0
	for batchStart := 0; batchStart < len(universe); batchStart += p.cfg.BatchSize {
		end := batchStart + p.cfg.BatchSize
		if end > len(universe) {
			end = len(universe)
		}
		batch := universe[batchStart:end]

		snapshots, err := p.market.Snapshot(ctx, batch, snapshotPeriod, "1d")
		if err != nil {
			p.logger.Warn("snapshot batch failed", xlogger.Error(err))
			p.metrics.RecordError("snapshot")
			continue
		}

		var wg sync.WaitGroup
		sem := make(chan struct{}, evaluateFanout)
		for _, symbol := range batch {
			snap, ok := snapshots[symbol]
			if !ok {
				continue
			}
			if _, open := held[symbol]; open {
				continue
			}
			if snap.VolumeRatio() <= volumeMult {
				continue
			}
			candidates++

			wg.Add(1)
			sem <- struct{}{}
			go func(symbol string, snap models.MarketSnapshot) {
				defer wg.Done()
				defer func() { <-sem }()
				if _, err := p.Evaluate(ctx, symbol, snap, bias); err != nil {
					p.logger.Warn("candidate evaluation failed",
						xlogger.String("symbol", symbol), xlogger.Error(err))
					p.metrics.RecordError("evaluate")
				}
			}(symbol, snap)
		}
		wg.Wait()

		if end < len(universe) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.cfg.BatchPause):
			}
		}
	}

	if candidates == 0 {
		p.persist(ctx, models.GateDecision{
			Symbol:     "MARKET",
			Timestamp:  time.Now(),
			Outcome:    models.OutcomeScan,
			ReasonCode: ReasonEmptyCycle,
			Reason:     fmt.Sprintf("Scanned %d symbols, no volume spikes above %.1fx", len(universe), volumeMult),
		})
	}
	p.logger.Info("scan complete",
		xlogger.Int("universe", len(universe)),
		xlogger.Int("candidates", candidates),
		xlogger.Duration("took", time.Since(start)))
	return nil
}

// Movers returns the top-n symbols by one-bar percentage gain for the
// conference summary.
func (p *Pipeline) Movers(ctx context.Context, universe []string, n int) ([]Mover, error) {
	snapshots, err := p.market.Snapshot(ctx, universe, snapshotPeriod, "1d")
	if err != nil {
		return nil, fmt.Errorf("movers: %w", err)
	}
	movers := make([]Mover, 0, len(snapshots))
	for _, snap := range snapshots {
		movers = append(movers, Mover{
			Symbol:        snap.Symbol,
			ChangePercent: snap.ChangePercent(),
			VolumeRatio:   snap.VolumeRatio(),
		})
	}
	sort.Slice(movers, func(i, j int) bool {
		return movers[i].ChangePercent > movers[j].ChangePercent
	})
	if len(movers) > n {
		movers = movers[:n]
	}
	return movers, nil
}
