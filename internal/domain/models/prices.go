package models

import "time"

// PricePoint is one daily adjusted close.
type PricePoint struct {
	Date     time.Time
	AdjClose float64
}

// PriceSeries is an ordered-by-date sequence of adjusted closes for one
// symbol. It may be empty when the provider could not resolve the symbol.
type PriceSeries []PricePoint

// AssetInfo is company metadata attached to a trade during enrichment.
// The zero-value substitutes are used when any lookup step fails.
type AssetInfo struct {
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	Industry  string  `json:"industry"`
	MarketCap float64 `json:"market_cap"`
}

// UnknownAsset is the fallback metadata record for unresolvable symbols.
func UnknownAsset() *AssetInfo {
	return &AssetInfo{Name: "Unknown", Sector: "Unknown", Industry: "Unknown"}
}

// PortfolioReport is the output of the mean-variance optimization.
type PortfolioReport struct {
	Weights        map[string]float64 `json:"weights"`
	ExpectedReturn float64            `json:"expected_return"`
	Volatility     float64            `json:"volatility"`
	SharpeRatio    float64            `json:"sharpe_ratio"`
}
