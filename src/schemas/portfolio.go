package schemas

import (
	"github.com/shopspring/decimal"
)

type HoldingResponse struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

type PortfolioResponse struct {
	Holdings    []HoldingResponse `json:"holdings"`
	MarketValue decimal.Decimal   `json:"marketValue"`
	Cash        decimal.Decimal   `json:"cash"`
	// Total is market value plus cash, the account's net worth.
	Total decimal.Decimal `json:"total"`
}

type QuoteResponse struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}
