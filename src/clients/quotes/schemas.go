package quotes

import (
	"github.com/shopspring/decimal"
)

// GetQuoteResponse mirrors the quote service's stock quote payload.
type GetQuoteResponse struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"companyName"`
	LatestPrice decimal.Decimal `json:"latestPrice"`
}
