package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
	drepo "github.com/FrankPreci/capitol-shill/internal/domain/repository"
	"github.com/FrankPreci/capitol-shill/internal/symbols"
	"github.com/FrankPreci/capitol-shill/pkg/logger"
)

// CARCalculator computes the event-study abnormal return for one trade.
// A nil result means the trade could not be studied.
type CARCalculator interface {
	CalculateCAR(ctx context.Context, ticker string, tradeDate time.Time, windowDays int) *float64
}

// AssetResolver returns metadata for a normalized symbol.
type AssetResolver interface {
	Asset(ctx context.Context, symbol string) *models.AssetInfo
}

// StudyRunner fans a batch of trades over a bounded worker pool, computing
// CAR and attaching asset metadata per trade. Output order always matches
// input order, and a failed trade never aborts the batch.
type StudyRunner struct {
	calc    CARCalculator
	assets  AssetResolver
	norm    *symbols.Normalizer
	workers int
	log     *logger.Logger
	metrics drepo.Metrics
}

func NewStudyRunner(
	calc CARCalculator,
	assets AssetResolver,
	norm *symbols.Normalizer,
	workers int,
	log *logger.Logger,
	metrics drepo.Metrics,
) *StudyRunner {
	if workers <= 0 {
		workers = 4
	}
	return &StudyRunner{
		calc:    calc,
		assets:  assets,
		norm:    norm,
		workers: workers,
		log:     log,
		metrics: metrics,
	}
}

// Run studies every trade in the batch and returns one result per input,
// in input order.
func (r *StudyRunner) Run(ctx context.Context, trades []models.TradeRecord, windowDays int) []models.StudyResult {
	started := time.Now()
	results := make([]models.StudyResult, len(trades))

	type job struct {
		idx   int
		trade models.TradeRecord
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	workers := r.workers
	if workers > len(trades) {
		workers = len(trades)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = r.study(ctx, j.trade, windowDays)
			}
		}()
	}

	for i, t := range trades {
		select {
		case jobs <- job{idx: i, trade: t}:
		case <-ctx.Done():
			// Remaining trades keep their zero results with nil CAR.
			close(jobs)
			wg.Wait()
			for k := i; k < len(trades); k++ {
				results[k] = models.StudyResult{Trade: trades[k]}
			}
			return results
		}
	}
	close(jobs)
	wg.Wait()

	r.log.Info("batch study finished",
		logger.Int("trades", len(trades)),
		logger.Int("workers", workers),
		logger.Duration("took", time.Since(started)))
	r.metrics.RecordLatency("run_batch", time.Since(started).Seconds())
	return results
}

func (r *StudyRunner) study(ctx context.Context, trade models.TradeRecord, windowDays int) models.StudyResult {
	result := models.StudyResult{Trade: trade}
	result.CAR = r.calc.CalculateCAR(ctx, trade.Ticker, trade.TransactionDate, windowDays)

	if r.assets != nil {
		if sym, ok := r.norm.Normalize(trade.Ticker); ok {
			result.Asset = r.assets.Asset(ctx, sym)
		} else {
			result.Asset = models.UnknownAsset()
		}
	}
	return result
}
