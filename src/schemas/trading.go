package schemas

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRequest carries the raw form values. Shares stays a string here:
// the handler parses it into a positive integer exactly once, before any
// quote lookup happens.
type TradeRequest struct {
	Symbol string `json:"symbol"`
	Shares string `json:"shares"`
}

type TradeConfirmation struct {
	Symbol  string          `json:"symbol"`
	Name    string          `json:"name"`
	Shares  int64           `json:"shares"`
	Price   decimal.Decimal `json:"price"`
	Total   decimal.Decimal `json:"total"`
	Message string          `json:"message"`
}

type TransactionRecord struct {
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	ExecutedAt time.Time       `json:"executedAt"`
}
