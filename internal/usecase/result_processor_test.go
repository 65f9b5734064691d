package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
)

type fakePublisher struct {
	batches int
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, results []models.StudyResult) error {
	f.batches++
	return f.err
}
func (f *fakePublisher) Close() error { return nil }

type fakeStore struct {
	batches int
}

func (f *fakeStore) Init(context.Context) error { return nil }
func (f *fakeStore) StoreBatch(_ context.Context, results []models.StudyResult) error {
	f.batches++
	return nil
}
func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

func sampleResults() []models.StudyResult {
	car := 0.03
	return []models.StudyResult{
		{Trade: tradeOn("AAPL"), CAR: &car},
		{Trade: tradeOn("ZZZFAKE")},
	}
}

func TestProcessBatchRoutesToKafka(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeStore{}
	p := NewResultProcessor(pub, store, nopMetrics{}, BackendKafka)

	if err := p.ProcessBatch(context.Background(), sampleResults()); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if pub.batches != 1 || store.batches != 0 {
		t.Fatalf("pub=%d store=%d, want batch published only", pub.batches, store.batches)
	}
}

func TestProcessBatchRoutesToClickHouse(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeStore{}
	p := NewResultProcessor(pub, store, nopMetrics{}, BackendClickHouse)

	if err := p.ProcessBatch(context.Background(), sampleResults()); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if pub.batches != 0 || store.batches != 1 {
		t.Fatalf("pub=%d store=%d, want batch stored only", pub.batches, store.batches)
	}
}

func TestProcessBatchNoneBackendIsNoop(t *testing.T) {
	p := NewResultProcessor(nil, nil, nopMetrics{}, BackendNone)
	if err := p.ProcessBatch(context.Background(), sampleResults()); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
}

func TestProcessBatchUnknownBackend(t *testing.T) {
	p := NewResultProcessor(&fakePublisher{}, &fakeStore{}, nopMetrics{}, "postgres")
	if err := p.ProcessBatch(context.Background(), sampleResults()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestProcessBatchPublisherError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	p := NewResultProcessor(pub, nil, nopMetrics{}, BackendKafka)
	if err := p.ProcessBatch(context.Background(), sampleResults()); err == nil {
		t.Fatal("expected publish error to surface")
	}
}
