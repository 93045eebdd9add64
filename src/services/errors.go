package services

import "errors"

// Ledger error kinds. Every rejected operation leaves persisted state
// untouched, so retrying after fixing the input is always safe.
var (
	// ErrInvalidSymbol means the quote service could not resolve the ticker.
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrInvalidQuantity means the share count was not a positive integer.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInsufficientFunds means a buy would cost more than current cash.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientShares means a sell exceeds the current derived holding.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrQuoteUnavailable means the quote service failed during a read-only
	// aggregation, so the whole result is withheld rather than misstated.
	ErrQuoteUnavailable = errors.New("quote service unavailable")
	// ErrStoreConflict means a concurrent writer changed the cash balance
	// between read and write; the operation was retried and still lost.
	ErrStoreConflict = errors.New("conflicting concurrent update")
)
