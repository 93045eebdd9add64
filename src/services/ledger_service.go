package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/rafa763/cs50-finance/src/clients/quotes"
	"github.com/rafa763/cs50-finance/src/models"
	"github.com/rafa763/cs50-finance/src/repositories"
	"github.com/rafa763/cs50-finance/src/utils"
)

// Holding is a derived (symbol, owned shares) pair priced at a fresh quote.
type Holding struct {
	Symbol string
	Name   string
	Shares int64
	Price  decimal.Decimal
}

// Value is the holding's market value at its quoted price.
func (h Holding) Value() decimal.Decimal {
	return h.Price.Mul(decimal.NewFromInt(h.Shares))
}

// Portfolio is the full state of a user's account at read time.
type Portfolio struct {
	Holdings    []Holding
	MarketValue decimal.Decimal
	Cash        decimal.Decimal
}

type LedgerServiceI interface {
	ComputePortfolio(ctx context.Context, userID uuid.UUID) (*Portfolio, error)
	Buy(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*models.Transaction, error)
	Sell(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*models.Transaction, error)
	GetHistory(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
}

// LedgerService validates and settles trades against the append-only ledger.
// It holds no state of its own: every decision is made against freshly read
// cash and holdings, and each settlement commits the transaction row and the
// cash adjustment as one atomic unit.
type LedgerService struct {
	ledgerRepo repositories.LedgerRepository
	quotes     quotes.QuoteServiceClientI
	maxRetries uint64
	backoff    time.Duration
}

func NewLedgerService(ledgerRepo repositories.LedgerRepository, quoteClient quotes.QuoteServiceClientI) *LedgerService {
	return &LedgerService{
		ledgerRepo: ledgerRepo,
		quotes:     quoteClient,
		maxRetries: 3,
		backoff:    20 * time.Millisecond,
	}
}

// ComputePortfolio derives current holdings from the transaction log, prices
// each at a fresh quote and returns them with the aggregate market value and
// cash. If any quote fails the whole read fails: omitting a holding would
// misstate net worth.
func (s *LedgerService) ComputePortfolio(ctx context.Context, userID uuid.UUID) (*Portfolio, error) {
	owned, err := s.ledgerRepo.SumSharesBySymbol(ctx, userID)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(owned))
	for symbol, shares := range owned {
		if shares > 0 {
			symbols = append(symbols, symbol)
		}
	}
	sort.Strings(symbols)

	portfolio := &Portfolio{
		Holdings:    make([]Holding, 0, len(symbols)),
		MarketValue: decimal.Zero,
	}
	for _, symbol := range symbols {
		quote, err := s.quotes.GetQuote(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrQuoteUnavailable, symbol, err)
		}
		holding := Holding{
			Symbol: symbol,
			Name:   quote.CompanyName,
			Shares: owned[symbol],
			Price:  quote.LatestPrice,
		}
		portfolio.Holdings = append(portfolio.Holdings, holding)
		portfolio.MarketValue = portfolio.MarketValue.Add(holding.Value())
	}

	portfolio.Cash, err = s.ledgerRepo.GetCash(ctx, userID)
	if err != nil {
		return nil, err
	}
	return portfolio, nil
}

// Buy purchases shares of symbol at the current quoted price, debiting cash.
func (s *LedgerService) Buy(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*models.Transaction, error) {
	if shares <= 0 {
		return nil, ErrInvalidQuantity
	}

	var settled *models.Transaction
	err := s.withConflictRetry(ctx, func(ctx context.Context) error {
		quote, err := s.quotes.GetQuote(ctx, symbol)
		if err != nil {
			return mapQuoteErr(err)
		}

		cash, err := s.ledgerRepo.GetCash(ctx, userID)
		if err != nil {
			return err
		}

		cost := quote.LatestPrice.Mul(decimal.NewFromInt(shares))
		if cost.GreaterThan(cash) {
			return ErrInsufficientFunds
		}

		t := &models.Transaction{
			UserID:     userID,
			Symbol:     quote.Symbol,
			Name:       quote.CompanyName,
			Shares:     shares,
			Price:      quote.LatestPrice,
			ExecutedAt: time.Now().UTC(),
		}
		if err := s.settle(ctx, t, cash, cash.Sub(cost)); err != nil {
			return err
		}
		settled = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// Sell disposes shares of symbol at the current quoted price, crediting
// cash. The sell quantity is checked against the same holdings derivation
// the portfolio view uses, from a read consistent with the settlement write.
func (s *LedgerService) Sell(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*models.Transaction, error) {
	if shares <= 0 {
		return nil, ErrInvalidQuantity
	}

	var settled *models.Transaction
	err := s.withConflictRetry(ctx, func(ctx context.Context) error {
		quote, err := s.quotes.GetQuote(ctx, symbol)
		if err != nil {
			return mapQuoteErr(err)
		}

		owned, err := s.ledgerRepo.SumSharesBySymbol(ctx, userID)
		if err != nil {
			return err
		}
		if shares > owned[quote.Symbol] {
			return ErrInsufficientShares
		}

		cash, err := s.ledgerRepo.GetCash(ctx, userID)
		if err != nil {
			return err
		}

		proceeds := quote.LatestPrice.Mul(decimal.NewFromInt(shares))
		t := &models.Transaction{
			UserID:     userID,
			Symbol:     quote.Symbol,
			Name:       quote.CompanyName,
			Shares:     -shares,
			Price:      quote.LatestPrice,
			ExecutedAt: time.Now().UTC(),
		}
		if err := s.settle(ctx, t, cash, cash.Add(proceeds)); err != nil {
			return err
		}
		settled = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// GetHistory returns every transaction of the user in execution order.
func (s *LedgerService) GetHistory(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	return s.ledgerRepo.ListTransactions(ctx, userID)
}

// withConflictRetry reruns the whole operation, quote lookup included, when
// the settlement loses a compare-and-swap race. Any other error kind aborts
// immediately. Exhausted retries surface as ErrStoreConflict.
func (s *LedgerService) withConflictRetry(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewConstant(s.backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if errors.Is(err, ErrStoreConflict) {
			utils.LoggerFromContext(ctx).WithError(err).Warning("settlement lost cash race, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *LedgerService) settle(ctx context.Context, t *models.Transaction, expectedCash, updatedCash decimal.Decimal) error {
	err := s.ledgerRepo.Settle(ctx, t, expectedCash, updatedCash)
	if errors.Is(err, repositories.ErrCashConflict) {
		return fmt.Errorf("%w: %v", ErrStoreConflict, err)
	}
	return err
}

func mapQuoteErr(err error) error {
	if errors.Is(err, quotes.ErrSymbolNotFound) {
		return fmt.Errorf("%w: %v", ErrInvalidSymbol, err)
	}
	return fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
}
