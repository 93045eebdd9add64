package utils

import (
	"github.com/shopspring/decimal"
)

// FormatUSD renders a decimal amount as a dollar string with two decimals.
func FormatUSD(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Neg().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}
