package eventstudy

import (
	"context"
	"errors"
	"fmt"
	"time"

	drepo "github.com/FrankPreci/capitol-shill/internal/domain/repository"
	"github.com/FrankPreci/capitol-shill/internal/symbols"
	"github.com/FrankPreci/capitol-shill/pkg/logger"
	"github.com/FrankPreci/capitol-shill/pkg/util"
)

// Config holds the study parameters. Zero fields fall back to the standard
// methodology: estimation window [t-200d, t-10d], event window [t, t+30d],
// 5-day fetch pad, 50-observation floor.
type Config struct {
	Benchmark              string
	EventWindowDays        int
	EstimationLookbackDays int
	EstimationGapDays      int
	FetchPadDays           int
	MinObservations        int
}

func (c Config) withDefaults() Config {
	if c.Benchmark == "" {
		c.Benchmark = "^GSPC"
	}
	if c.EventWindowDays <= 0 {
		c.EventWindowDays = 30
	}
	if c.EstimationLookbackDays <= 0 {
		c.EstimationLookbackDays = 200
	}
	if c.EstimationGapDays <= 0 {
		c.EstimationGapDays = 10
	}
	if c.FetchPadDays <= 0 {
		c.FetchPadDays = 5
	}
	if c.MinObservations <= 0 {
		c.MinObservations = 50
	}
	return c
}

// Engine runs the market-model event study for a single disclosed trade.
// Evaluations are independent and safe to run concurrently.
type Engine struct {
	prices  drepo.PriceSource
	norm    *symbols.Normalizer
	cfg     Config
	log     *logger.Logger
	metrics drepo.Metrics
}

// NewEngine creates an event-study engine.
func NewEngine(prices drepo.PriceSource, norm *symbols.Normalizer, cfg Config, log *logger.Logger, metrics drepo.Metrics) *Engine {
	return &Engine{
		prices:  prices,
		norm:    norm,
		cfg:     cfg.withDefaults(),
		log:     log,
		metrics: metrics,
	}
}

// Benchmark returns the configured benchmark symbol.
func (e *Engine) Benchmark() string { return e.cfg.Benchmark }

// CalculateCAR computes the cumulative abnormal return for one trade.
// A nil result means "cannot be computed": bad input, unresolvable symbol,
// thin history, or a provider failure. No condition escapes as an error;
// one trade must never abort a batch.
func (e *Engine) CalculateCAR(ctx context.Context, ticker string, tradeDate time.Time, windowDays int) *float64 {
	start := time.Now()
	car, err := e.study(ctx, ticker, tradeDate, windowDays)
	e.metrics.RecordLatency("calculate_car", time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			// Expected for a large share of disclosure rows.
			e.metrics.RecordStudy("invalid_input")
		case errors.Is(err, ErrInsufficientData):
			e.metrics.RecordStudy("insufficient_data")
			e.log.Debug("study skipped, thin data",
				logger.String("ticker", ticker),
				logger.Error(err))
		default:
			e.metrics.RecordStudy("provider_error")
			e.metrics.RecordError("provider")
			e.log.Debug("study failed at provider",
				logger.String("ticker", ticker),
				logger.Error(err))
		}
		return nil
	}

	e.metrics.RecordStudy("ok")
	e.metrics.RecordCAR(car)
	return &car
}

func (e *Engine) study(ctx context.Context, ticker string, tradeDate time.Time, windowDays int) (float64, error) {
	if tradeDate.IsZero() {
		return 0, fmt.Errorf("%w: missing transaction date", ErrInvalidInput)
	}
	symbol, ok := e.norm.Normalize(ticker)
	if !ok {
		return 0, fmt.Errorf("%w: unusable ticker %q", ErrInvalidInput, ticker)
	}

	if windowDays <= 0 {
		windowDays = e.cfg.EventWindowDays
	}
	day := util.Day(tradeDate)
	estimation := Window{
		Start: util.AddDays(day, -e.cfg.EstimationLookbackDays),
		End:   util.AddDays(day, -e.cfg.EstimationGapDays),
	}
	event := Window{Start: day, End: util.AddDays(day, windowDays)}

	// The pad absorbs provider/calendar lag at the tail. It widens the
	// fetch only; the event window above is what gets aggregated.
	fetchEnd := util.AddDays(event.End, e.cfg.FetchPadDays)

	wanted := []string{symbol}
	if symbol != e.cfg.Benchmark {
		wanted = append(wanted, e.cfg.Benchmark)
	}
	series, err := e.prices.Fetch(ctx, wanted, estimation.Start, fetchEnd)
	if err != nil {
		return 0, fmt.Errorf("%w: fetch %s: %v", ErrProvider, symbol, err)
	}

	assetReturns := ToReturns(series[symbol])
	benchReturns := ToReturns(series[e.cfg.Benchmark])

	if n := overlapCount(assetReturns, benchReturns); n < e.cfg.MinObservations {
		return 0, fmt.Errorf("%w: %d joint observations for %s, need %d",
			ErrInsufficientData, n, symbol, e.cfg.MinObservations)
	}

	model, ok := FitMarketModel(assetReturns, benchReturns, estimation)
	if !ok {
		return 0, fmt.Errorf("%w: empty estimation window for %s", ErrInsufficientData, symbol)
	}

	car, ok := CumulativeAbnormalReturn(model, assetReturns, benchReturns, event)
	if !ok {
		return 0, fmt.Errorf("%w: empty event window for %s", ErrInsufficientData, symbol)
	}
	return car, nil
}
