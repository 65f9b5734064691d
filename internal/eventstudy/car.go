package eventstudy

// CumulativeAbnormalReturn sums daily abnormal returns over the event
// window. For every date present in both series inside the window the
// expected return is alpha + beta*benchmark and the abnormal return is the
// actual minus the expected. The sum is plain arithmetic, no weighting.
// Returns false when the windowed overlap is empty.
func CumulativeAbnormalReturn(m MarketModel, asset, benchmark ReturnSeries, w Window) (float64, bool) {
	actual, market := alignInWindow(asset, benchmark, w)
	if len(actual) == 0 {
		return 0, false
	}

	car := 0.0
	for i := range actual {
		expected := m.Alpha + m.Beta*market[i]
		car += actual[i] - expected
	}
	return car, true
}
