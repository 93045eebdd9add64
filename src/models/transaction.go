package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one immutable ledger entry. Shares is signed:
// positive for buys, negative for sells, never zero.
type Transaction struct {
	ID         int64           `db:"id"`
	UserID     uuid.UUID       `db:"user_id"`
	Symbol     string          `db:"symbol"`
	Name       string          `db:"name"`
	Shares     int64           `db:"shares"`
	Price      decimal.Decimal `db:"price"`
	ExecutedAt time.Time       `db:"executed_at"`
}

// TotalValue is the cash moved by this entry, always positive.
func (t Transaction) TotalValue() decimal.Decimal {
	shares := t.Shares
	if shares < 0 {
		shares = -shares
	}
	return t.Price.Mul(decimal.NewFromInt(shares))
}
