package models

// Requests for the study HTTP endpoints. Defined in domain for consistency and reuse.

type CARRequest struct {
	Ticker          string `json:"ticker" validate:"required"`
	TransactionDate string `json:"transaction_date" validate:"required"`
	WindowDays      int    `json:"window_days" default:"30" validate:"gte=1,lte=365"`
}

type TradeInput struct {
	Ticker          string `json:"ticker"`
	TransactionDate string `json:"transaction_date"`
	Representative  string `json:"representative,omitempty"`
	Transaction     string `json:"transaction,omitempty"`
	Amount          string `json:"amount,omitempty"`
}

type StudyRequest struct {
	Trades     []TradeInput `json:"trades" validate:"required,min=1,max=10000"`
	WindowDays int          `json:"window_days" default:"30" validate:"gte=1,lte=365"`
	Async      bool         `json:"async"` // enqueue instead of computing inline
}

type PortfolioRequest struct {
	Tickers []string `json:"tickers" validate:"required,min=1,max=200"`
}
