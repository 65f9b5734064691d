package eventstudy

import (
	"context"
	"errors"
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

// fakeSource serves canned series clipped to the requested range and records
// the exact symbol sets it was asked for.
type fakeSource struct {
	data  map[string]models.PriceSeries
	calls [][]string
	err   error
}

func (f *fakeSource) Fetch(_ context.Context, syms []string, start, end time.Time) (map[string]models.PriceSeries, error) {
	f.calls = append(f.calls, append([]string(nil), syms...))
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]models.PriceSeries, len(syms))
	for _, s := range syms {
		var clipped models.PriceSeries
		for _, p := range f.data[s] {
			if !p.Date.Before(start) && p.Date.Before(end) {
				clipped = append(clipped, p)
			}
		}
		out[s] = clipped
	}
	return out, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// dailyPrices generates a series with a constant daily return.
func dailyPrices(start time.Time, days int, ret float64) models.PriceSeries {
	out := make(models.PriceSeries, days)
	price := 100.0
	for i := 0; i < days; i++ {
		out[i] = models.PricePoint{Date: start.AddDate(0, 0, i), AdjClose: price}
		price *= 1 + ret
	}
	return out
}

func newTestEngine(t *testing.T, src *fakeSource) *Engine {
	t.Helper()
	return NewEngine(src, symbols.New(nil), Config{Benchmark: "^GSPC"}, testLogger(t), nopMetrics{})
}

func TestCalculateCARMissingDate(t *testing.T) {
	e := newTestEngine(t, &fakeSource{})
	if car := e.CalculateCAR(context.Background(), "AAPL", time.Time{}, 30); car != nil {
		t.Fatalf("expected nil for missing date, got %v", *car)
	}
}

func TestCalculateCARUnusableTicker(t *testing.T) {
	src := &fakeSource{}
	e := newTestEngine(t, src)
	for _, ticker := range []string{"--", "", "NaN", "$DOGE", "912828YK0"} {
		if car := e.CalculateCAR(context.Background(), ticker, day(2024, 8, 1), 30); car != nil {
			t.Errorf("expected nil for ticker %q, got %v", ticker, *car)
		}
	}
	if len(src.calls) != 0 {
		t.Fatalf("unusable tickers must never reach the provider, saw %v", src.calls)
	}
}

func TestCalculateCARProviderError(t *testing.T) {
	e := newTestEngine(t, &fakeSource{err: errors.New("connection refused")})
	if car := e.CalculateCAR(context.Background(), "AAPL", day(2024, 8, 1), 30); car != nil {
		t.Fatalf("expected nil on provider error, got %v", *car)
	}
}

func TestCalculateCARThinHistory(t *testing.T) {
	tradeDate := day(2024, 8, 1)
	short := dailyPrices(tradeDate.AddDate(0, 0, -20), 30, 0.01)
	src := &fakeSource{data: map[string]models.PriceSeries{
		"AAPL":  short,
		"^GSPC": short,
	}}
	e := newTestEngine(t, src)
	if car := e.CalculateCAR(context.Background(), "AAPL", tradeDate, 30); car != nil {
		t.Fatalf("expected nil below the observation floor, got %v", *car)
	}
}

func TestCalculateCARConstantReturns(t *testing.T) {
	tradeDate := day(2024, 8, 1)
	full := dailyPrices(tradeDate.AddDate(0, 0, -210), 260, 0.01)
	src := &fakeSource{data: map[string]models.PriceSeries{
		"AAPL":  full,
		"^GSPC": full,
	}}
	e := newTestEngine(t, src)

	car := e.CalculateCAR(context.Background(), "AAPL", tradeDate, 30)
	if car == nil {
		t.Fatal("expected a CAR value")
	}
	// Actual equals expected every day, so abnormal returns sum to ~0.
	if math.Abs(*car) > 1e-9 {
		t.Errorf("car = %v, want ~0", *car)
	}

	again := e.CalculateCAR(context.Background(), "AAPL", tradeDate, 30)
	if again == nil || *again != *car {
		t.Error("repeated invocation must be deterministic")
	}
}

func TestCalculateCARNormalizesBeforeFetch(t *testing.T) {
	tradeDate := day(2024, 8, 1)
	full := dailyPrices(tradeDate.AddDate(0, 0, -210), 260, 0.01)
	src := &fakeSource{data: map[string]models.PriceSeries{
		"BRK-B":   full,
		"BTC-USD": full,
		"SPY":     full,
		"^GSPC":   full,
	}}
	e := newTestEngine(t, src)

	cases := map[string]string{
		"BRK/B": "BRK-B",
		"$BTC":  "BTC-USD",
		"XSP":   "SPY",
	}
	for raw, want := range cases {
		src.calls = nil
		e.CalculateCAR(context.Background(), raw, tradeDate, 30)
		if len(src.calls) != 1 {
			t.Fatalf("expected one fetch for %q, got %d", raw, len(src.calls))
		}
		if got := src.calls[0][0]; got != want {
			t.Errorf("provider saw %q for raw ticker %q, want %q", got, raw, want)
		}
	}
}

func TestCalculateCARFetchRangeHasPad(t *testing.T) {
	tradeDate := day(2024, 8, 1)
	full := dailyPrices(tradeDate.AddDate(0, 0, -210), 260, 0.01)

	var gotStart, gotEnd time.Time
	src := &fakeSource{data: map[string]models.PriceSeries{"AAPL": full, "^GSPC": full}}
	e := NewEngine(fetchRangeRecorder{src: src, start: &gotStart, end: &gotEnd},
		symbols.New(nil), Config{Benchmark: "^GSPC"}, testLogger(t), nopMetrics{})

	e.CalculateCAR(context.Background(), "AAPL", tradeDate, 30)

	if want := tradeDate.AddDate(0, 0, -200); !gotStart.Equal(want) {
		t.Errorf("fetch start %v, want %v", gotStart, want)
	}
	// Event window ends at t+30; the request is padded 5 days past it.
	if want := tradeDate.AddDate(0, 0, 35); !gotEnd.Equal(want) {
		t.Errorf("fetch end %v, want %v", gotEnd, want)
	}
}

type fetchRangeRecorder struct {
	src   *fakeSource
	start *time.Time
	end   *time.Time
}

func (r fetchRangeRecorder) Fetch(ctx context.Context, syms []string, start, end time.Time) (map[string]models.PriceSeries, error) {
	*r.start = start
	*r.end = end
	return r.src.Fetch(ctx, syms, start, end)
}

func TestCalculateCARBenchmarkOnlyFetchedOnce(t *testing.T) {
	tradeDate := day(2024, 8, 1)
	full := dailyPrices(tradeDate.AddDate(0, 0, -210), 260, 0.01)
	src := &fakeSource{data: map[string]models.PriceSeries{"^GSPC": full}}
	e := newTestEngine(t, src)

	car := e.CalculateCAR(context.Background(), "^GSPC", tradeDate, 30)
	if car == nil {
		t.Fatal("expected a CAR value for the benchmark itself")
	}
	if len(src.calls[0]) != 1 {
		t.Fatalf("expected deduplicated symbol set, got %v", src.calls[0])
	}
}
