package eventstudy

import (
	"math"
	"testing"
	"time"
)

func wideWindow() Window {
	return Window{Start: day(2020, 1, 1), End: day(2030, 1, 1)}
}

func seriesFrom(start time.Time, values []float64) ReturnSeries {
	out := make(ReturnSeries, len(values))
	for i, v := range values {
		out[i] = ReturnPoint{Date: start.AddDate(0, 0, i), Return: v}
	}
	return out
}

func TestFitMarketModelExactLine(t *testing.T) {
	start := day(2024, 1, 1)
	bench := make([]float64, 120)
	asset := make([]float64, 120)
	for i := range bench {
		bench[i] = 0.01 * math.Sin(float64(i))
		asset[i] = 0.002 + 1.5*bench[i]
	}

	m, ok := FitMarketModel(seriesFrom(start, asset), seriesFrom(start, bench), wideWindow())
	if !ok {
		t.Fatal("fit failed")
	}
	if math.Abs(m.Alpha-0.002) > 1e-12 {
		t.Errorf("alpha = %v, want 0.002", m.Alpha)
	}
	if math.Abs(m.Beta-1.5) > 1e-12 {
		t.Errorf("beta = %v, want 1.5", m.Beta)
	}
}

func TestFitMarketModelMatchesClosedForm(t *testing.T) {
	start := day(2024, 1, 1)
	bench := []float64{0.01, -0.02, 0.015, 0.005, -0.01, 0.02, 0.0, -0.005}
	asset := []float64{0.012, -0.025, 0.02, 0.001, -0.008, 0.024, 0.002, -0.004}

	// Closed-form OLS computed independently.
	n := float64(len(bench))
	var sx, sy float64
	for i := range bench {
		sx += bench[i]
		sy += asset[i]
	}
	mx, my := sx/n, sy/n
	var sxx, sxy float64
	for i := range bench {
		sxx += (bench[i] - mx) * (bench[i] - mx)
		sxy += (bench[i] - mx) * (asset[i] - my)
	}
	wantBeta := sxy / sxx
	wantAlpha := my - wantBeta*mx

	m, ok := FitMarketModel(seriesFrom(start, asset), seriesFrom(start, bench), wideWindow())
	if !ok {
		t.Fatal("fit failed")
	}
	if math.Abs(m.Beta-wantBeta) > 1e-12 || math.Abs(m.Alpha-wantAlpha) > 1e-12 {
		t.Errorf("got (%v, %v), want (%v, %v)", m.Alpha, m.Beta, wantAlpha, wantBeta)
	}
}

func TestFitMarketModelConstantBenchmark(t *testing.T) {
	start := day(2024, 1, 1)
	vals := make([]float64, 100)
	for i := range vals {
		vals[i] = 0.01
	}
	s := seriesFrom(start, vals)

	m, ok := FitMarketModel(s, s, wideWindow())
	if !ok {
		t.Fatal("fit failed")
	}
	if math.Abs(m.Alpha) > 1e-12 {
		t.Errorf("alpha = %v, want 0", m.Alpha)
	}
	if math.Abs(m.Beta-1) > 1e-12 {
		t.Errorf("beta = %v, want 1", m.Beta)
	}
}

func TestFitMarketModelEmptyWindow(t *testing.T) {
	s := seriesFrom(day(2024, 1, 1), []float64{0.01, 0.02})
	w := Window{Start: day(2025, 1, 1), End: day(2025, 2, 1)}
	if _, ok := FitMarketModel(s, s, w); ok {
		t.Fatal("expected fit to fail on empty window restriction")
	}
}

func TestCumulativeAbnormalReturnZeroWhenModelPerfect(t *testing.T) {
	start := day(2024, 1, 1)
	vals := make([]float64, 60)
	for i := range vals {
		vals[i] = 0.01
	}
	s := seriesFrom(start, vals)

	m, _ := FitMarketModel(s, s, wideWindow())
	car, ok := CumulativeAbnormalReturn(m, s, s, wideWindow())
	if !ok {
		t.Fatal("aggregation failed")
	}
	if math.Abs(car) > 1e-9 {
		t.Errorf("car = %v, want ~0", car)
	}
}

func TestCumulativeAbnormalReturnSumsAbnormals(t *testing.T) {
	start := day(2024, 1, 1)
	bench := seriesFrom(start, []float64{0.01, -0.01, 0.02})
	asset := seriesFrom(start, []float64{0.02, 0.00, 0.03})
	m := MarketModel{Alpha: 0, Beta: 1}

	car, ok := CumulativeAbnormalReturn(m, asset, bench, wideWindow())
	if !ok {
		t.Fatal("aggregation failed")
	}
	// abnormal each day is 0.01
	if math.Abs(car-0.03) > 1e-12 {
		t.Errorf("car = %v, want 0.03", car)
	}
}

func TestCumulativeAbnormalReturnEmptyWindow(t *testing.T) {
	s := seriesFrom(day(2024, 1, 1), []float64{0.01})
	w := Window{Start: day(2025, 1, 1), End: day(2025, 1, 2)}
	if _, ok := CumulativeAbnormalReturn(MarketModel{}, s, s, w); ok {
		t.Fatal("expected failure on empty event window")
	}
}
