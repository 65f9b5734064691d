package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/FrankPreci/capitol-shill/internal/domain/models"
	"github.com/FrankPreci/capitol-shill/internal/symbols"
	"github.com/FrankPreci/capitol-shill/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordStudy(string)             {}
func (nopMetrics) RecordCAR(float64)              {}
func (nopMetrics) RecordProviderRequest(string)   {}
func (nopMetrics) RecordCacheLookup(string, bool) {}
func (nopMetrics) RecordResultSent(string)        {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordLatency(string, float64)  {}

type fakeCalc struct {
	mu   sync.Mutex
	cars map[string]float64
	seen []string
}

func (f *fakeCalc) CalculateCAR(_ context.Context, ticker string, _ time.Time, _ int) *float64 {
	f.mu.Lock()
	f.seen = append(f.seen, ticker)
	f.mu.Unlock()
	if v, ok := f.cars[ticker]; ok {
		car := v
		return &car
	}
	return nil
}

type fakeAssets struct{ infos map[string]*models.AssetInfo }

func (f *fakeAssets) Asset(_ context.Context, symbol string) *models.AssetInfo {
	if info, ok := f.infos[symbol]; ok {
		return info
	}
	return models.UnknownAsset()
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func tradeOn(ticker string) models.TradeRecord {
	return models.TradeRecord{
		Ticker:          ticker,
		TransactionDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestRunPreservesOrder(t *testing.T) {
	calc := &fakeCalc{cars: map[string]float64{"AAPL": 0.05, "MSFT": -0.02}}
	runner := NewStudyRunner(calc, nil, symbols.New(nil), 3, testLogger(t), nopMetrics{})

	trades := []models.TradeRecord{
		tradeOn("AAPL"), tradeOn("ZZZFAKE"), tradeOn("MSFT"), tradeOn("AAPL"),
	}
	results := runner.Run(context.Background(), trades, 30)

	if len(results) != len(trades) {
		t.Fatalf("got %d results, want %d", len(results), len(trades))
	}
	for i, res := range results {
		if res.Trade.Ticker != trades[i].Ticker {
			t.Fatalf("result %d is for %q, want %q", i, res.Trade.Ticker, trades[i].Ticker)
		}
	}
	if results[0].CAR == nil || *results[0].CAR != 0.05 {
		t.Fatalf("AAPL CAR = %v, want 0.05", results[0].CAR)
	}
	if results[1].CAR != nil {
		t.Fatalf("unknown ticker CAR = %v, want nil", *results[1].CAR)
	}
	if results[2].CAR == nil || *results[2].CAR != -0.02 {
		t.Fatalf("MSFT CAR = %v, want -0.02", results[2].CAR)
	}
}

func TestRunFailedTradeDoesNotAbortBatch(t *testing.T) {
	calc := &fakeCalc{cars: map[string]float64{"GOOD": 0.01}}
	runner := NewStudyRunner(calc, nil, symbols.New(nil), 2, testLogger(t), nopMetrics{})

	results := runner.Run(context.Background(), []models.TradeRecord{
		tradeOn("BAD1"), tradeOn("GOOD"), tradeOn("BAD2"),
	}, 30)

	if results[1].CAR == nil {
		t.Fatal("good trade lost its CAR")
	}
	if results[0].CAR != nil || results[2].CAR != nil {
		t.Fatal("failed trades should carry nil CAR")
	}
	if len(calc.seen) != 3 {
		t.Fatalf("calculator saw %d trades, want 3", len(calc.seen))
	}
}

func TestRunAttachesMetadata(t *testing.T) {
	calc := &fakeCalc{}
	assets := &fakeAssets{infos: map[string]*models.AssetInfo{
		"BRK-B": {Name: "Berkshire Hathaway", Sector: "Financial Services", Industry: "Insurance"},
	}}
	runner := NewStudyRunner(calc, assets, symbols.New(nil), 1, testLogger(t), nopMetrics{})

	results := runner.Run(context.Background(), []models.TradeRecord{
		tradeOn("brk/b"), tradeOn("--"),
	}, 30)

	if results[0].Asset == nil || results[0].Asset.Name != "Berkshire Hathaway" {
		t.Fatalf("share-class ticker not enriched: %+v", results[0].Asset)
	}
	if results[1].Asset == nil || results[1].Asset.Name != "Unknown" {
		t.Fatalf("placeholder ticker should get the Unknown record: %+v", results[1].Asset)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	runner := NewStudyRunner(&fakeCalc{}, nil, symbols.New(nil), 4, testLogger(t), nopMetrics{})
	results := runner.Run(context.Background(), nil, 30)
	if len(results) != 0 {
		t.Fatalf("got %d results for empty batch", len(results))
	}
}
