package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
	drepo "github.com/FrankPreci/capitol-shill/internal/domain/repository"
)

// Backend names for result routing.
const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendNone       = "none"
)

// ResultProcessor routes finished study results to the configured backend.
type ResultProcessor struct {
	pub     drepo.ResultPublisher
	store   drepo.ResultStore
	metrics drepo.Metrics
	backend string
}

func NewResultProcessor(
	pub drepo.ResultPublisher,
	store drepo.ResultStore,
	metrics drepo.Metrics,
	backend string,
) *ResultProcessor {
	if backend == "" {
		backend = BackendNone
	}
	return &ResultProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// ProcessBatch persists or publishes a batch of results.
func (p *ResultProcessor) ProcessBatch(ctx context.Context, results []models.StudyResult) error {
	if len(results) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		err = p.pub.PublishBatch(ctx, results)
	case BackendClickHouse:
		err = p.store.StoreBatch(ctx, results)
	case BackendNone:
		return nil
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process result batch: %w", err)
	}

	for range results {
		p.metrics.RecordResultSent(p.backend)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *ResultProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
