package repository

import (
	"context"
	"time"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
)

// PriceSource returns per-symbol adjusted-close series over [start, end).
// Unresolvable symbols come back as empty series, never as errors; only a
// transport-level failure errors the whole call.
type PriceSource interface {
	Fetch(ctx context.Context, symbols []string, start, end time.Time) (map[string]models.PriceSeries, error)
}

// MetadataSource looks up company metadata for a normalized symbol.
type MetadataSource interface {
	Lookup(ctx context.Context, symbol string) (*models.AssetInfo, error)
}

// ResultStore persists completed study results.
type ResultStore interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, results []models.StudyResult) error
	Health(ctx context.Context) error
	Close() error
}

// ResultPublisher emits completed study results to a message bus.
type ResultPublisher interface {
	PublishBatch(ctx context.Context, results []models.StudyResult) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordStudy(status string)
	RecordCAR(car float64)
	RecordProviderRequest(endpoint string)
	RecordCacheLookup(name string, hit bool)
	RecordResultSent(backend string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
