package eventstudy

import "math"

// MarketModel is the single-factor linear relation between an asset's
// return and the benchmark's return over the estimation window.
type MarketModel struct {
	Alpha float64
	Beta  float64
}

// FitMarketModel fits ordinary least squares of the asset return (dependent)
// on the benchmark return (independent) over the estimation window:
//
//	asset ≈ alpha + beta*benchmark
//
// It returns false when the windowed overlap of the two series has fewer
// than two observations. When the benchmark shows no variance inside the
// window the slope is undefined; the fit degrades to the market-adjusted
// model (beta 1, alpha the mean excess return), which reproduces the same
// perfect-fit line.
func FitMarketModel(asset, benchmark ReturnSeries, w Window) (MarketModel, bool) {
	y, x := alignInWindow(asset, benchmark, w)
	if len(x) < 2 {
		return MarketModel{}, false
	}

	n := float64(len(x))
	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for i := range x {
		dx := x[i] - meanX
		sxx += dx * dx
		sxy += dx * (y[i] - meanY)
	}

	if sxx < 1e-18 || math.IsNaN(sxx) {
		return MarketModel{Alpha: meanY - meanX, Beta: 1}, true
	}

	beta := sxy / sxx
	return MarketModel{Alpha: meanY - beta*meanX, Beta: beta}, true
}
