package portfolio

import (
	"context"
	"math"
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

type fakeSource struct {
	data map[string]models.PriceSeries
}

func (f *fakeSource) Fetch(_ context.Context, syms []string, _, _ time.Time) (map[string]models.PriceSeries, error) {
	out := make(map[string]models.PriceSeries, len(syms))
	for _, s := range syms {
		out[s] = f.data[s]
	}
	return out, nil
}

func day(offset int) time.Time {
	return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// dailyPrices builds a series with a fixed daily return plus a small
// deterministic wobble so the covariance matrix is non-singular.
func dailyPrices(days int, ret, wobble float64) models.PriceSeries {
	series := make(models.PriceSeries, 0, days)
	price := 100.0
	for i := 0; i < days; i++ {
		series = append(series, models.PricePoint{Date: day(i), AdjClose: price})
		r := ret
		if i%2 == 0 {
			r += wobble
		} else {
			r -= wobble
		}
		price *= 1 + r
	}
	return series
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newOptimizer(t *testing.T, src *fakeSource) *Optimizer {
	return New(src, symbols.New(nil), Config{RiskFreeRate: 0.02}, testLogger(t), nopMetrics{})
}

func TestOptimizeWeightsSumToOne(t *testing.T) {
	src := &fakeSource{data: map[string]models.PriceSeries{
		"AAA": dailyPrices(120, 0.002, 0.010),
		"BBB": dailyPrices(120, 0.0005, 0.012),
		"CCC": dailyPrices(120, 0.001, 0.008),
	}}
	report, err := newOptimizer(t, src).Optimize(context.Background(), []string{"AAA", "BBB", "CCC"})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if report == nil {
		t.Fatal("expected a report")
	}

	var total float64
	for _, w := range report.Weights {
		if w < 0 {
			t.Fatalf("negative weight in %v", report.Weights)
		}
		total += w
	}
	if math.Abs(total-1) > 1e-3 {
		t.Fatalf("weights sum to %v, want 1", total)
	}
	if report.Volatility <= 0 {
		t.Fatalf("volatility = %v, want > 0", report.Volatility)
	}
}

func TestOptimizeFavorsHigherSharpe(t *testing.T) {
	// Same wobble, very different drift: the optimizer should lean into AAA.
	src := &fakeSource{data: map[string]models.PriceSeries{
		"AAA": dailyPrices(120, 0.003, 0.010),
		"BBB": dailyPrices(120, 0.0001, 0.010),
	}}
	report, err := newOptimizer(t, src).Optimize(context.Background(), []string{"AAA", "BBB"})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if report == nil {
		t.Fatal("expected a report")
	}
	if report.Weights["AAA"] <= report.Weights["BBB"] {
		t.Fatalf("weights = %v, want AAA favored", report.Weights)
	}
}

func TestOptimizeTooFewTickers(t *testing.T) {
	src := &fakeSource{data: map[string]models.PriceSeries{
		"AAA": dailyPrices(120, 0.001, 0.01),
	}}
	report, err := newOptimizer(t, src).Optimize(context.Background(), []string{"AAA", "--", "123BAD"})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if report != nil {
		t.Fatalf("expected nil report, got %+v", report)
	}
}

func TestOptimizeDropsSparseSymbol(t *testing.T) {
	src := &fakeSource{data: map[string]models.PriceSeries{
		"AAA": dailyPrices(120, 0.002, 0.010),
		"BBB": dailyPrices(120, 0.001, 0.012),
		// Far too little overlap with the others.
		"SPARSE": dailyPrices(5, 0.001, 0.01),
	}}
	report, err := newOptimizer(t, src).Optimize(context.Background(), []string{"AAA", "BBB", "SPARSE"})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if report == nil {
		t.Fatal("expected a report")
	}
	if _, ok := report.Weights["SPARSE"]; ok {
		t.Fatalf("sparse symbol kept: %v", report.Weights)
	}
}

func TestSolveLinear(t *testing.T) {
	a := [][]float64{
		{2, 1},
		{1, 3},
	}
	b := []float64{5, 10}
	x, ok := solveLinear(a, b)
	if !ok {
		t.Fatal("solveLinear reported singular")
	}
	if math.Abs(x[0]-1) > 1e-9 || math.Abs(x[1]-3) > 1e-9 {
		t.Fatalf("x = %v, want [1 3]", x)
	}
}

func TestSolveLinearSingular(t *testing.T) {
	a := [][]float64{
		{1, 2},
		{2, 4},
	}
	if _, ok := solveLinear(a, []float64{1, 2}); ok {
		t.Fatal("expected singular matrix to be rejected")
	}
}

func TestCleanWeightsClipsShorts(t *testing.T) {
	w := cleanWeights([]float64{0.8, -0.3, 0.2})
	if w[1] != 0 {
		t.Fatalf("short not clipped: %v", w)
	}
	var total float64
	for _, v := range w {
		total += v
	}
	if math.Abs(total-1) > 1e-3 {
		t.Fatalf("weights sum to %v, want 1", total)
	}
}
