package models

import "time"

// TradeRecord is one disclosed trade from the filings dataset. The engine
// treats it as immutable input; extra filing columns ride along untouched.
type TradeRecord struct {
	Ticker          string    `json:"ticker"`
	TransactionDate time.Time `json:"transaction_date"` // zero when the filing omitted it
	Representative  string    `json:"representative,omitempty"`
	Transaction     string    `json:"transaction,omitempty"`
	Amount          string    `json:"amount,omitempty"`
}

// HasDate reports whether the filing carried a usable transaction date.
func (t *TradeRecord) HasDate() bool {
	return !t.TransactionDate.IsZero()
}

// StudyResult pairs a trade with its cumulative abnormal return.
// CAR is nil whenever the study could not be computed for the trade;
// a nil entry is a valid output, not an error.
type StudyResult struct {
	Trade TradeRecord `json:"trade"`
	CAR   *float64    `json:"car"`
	Asset *AssetInfo  `json:"asset,omitempty"`
}
