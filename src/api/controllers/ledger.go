package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rafa763/cs50-finance/src/clients/quotes"
	"github.com/rafa763/cs50-finance/src/models"
	"github.com/rafa763/cs50-finance/src/schemas"
	"github.com/rafa763/cs50-finance/src/services"
	"github.com/rafa763/cs50-finance/src/utils"
)

type LedgerController interface {
	GetPortfolio(ctx context.Context, userID uuid.UUID) (*schemas.PortfolioResponse, error)
	GetQuote(ctx context.Context, symbol string) (*schemas.QuoteResponse, error)
	Buy(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*schemas.TradeConfirmation, error)
	Sell(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*schemas.TradeConfirmation, error)
	GetHistory(ctx context.Context, userID uuid.UUID) ([]schemas.TransactionRecord, error)
}

func (c *Controller) GetPortfolio(ctx context.Context, userID uuid.UUID) (*schemas.PortfolioResponse, error) {
	portfolio, err := c.Ledger.ComputePortfolio(ctx, userID)
	if err != nil {
		return nil, err
	}

	response := &schemas.PortfolioResponse{
		Holdings:    make([]schemas.HoldingResponse, 0, len(portfolio.Holdings)),
		MarketValue: portfolio.MarketValue,
		Cash:        portfolio.Cash,
		Total:       portfolio.MarketValue.Add(portfolio.Cash),
	}
	for _, h := range portfolio.Holdings {
		response.Holdings = append(response.Holdings, schemas.HoldingResponse{
			Symbol: h.Symbol,
			Name:   h.Name,
			Shares: h.Shares,
			Price:  h.Price,
			Value:  h.Value(),
		})
	}
	return response, nil
}

func (c *Controller) GetQuote(ctx context.Context, symbol string) (*schemas.QuoteResponse, error) {
	quote, err := c.Quotes.GetQuote(ctx, symbol)
	if errors.Is(err, quotes.ErrSymbolNotFound) {
		return nil, fmt.Errorf("%w: %v", services.ErrInvalidSymbol, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrQuoteUnavailable, err)
	}
	return &schemas.QuoteResponse{
		Symbol: quote.Symbol,
		Name:   quote.CompanyName,
		Price:  quote.LatestPrice,
	}, nil
}

func (c *Controller) Buy(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*schemas.TradeConfirmation, error) {
	t, err := c.Ledger.Buy(ctx, userID, symbol, shares)
	if err != nil {
		return nil, err
	}
	return tradeConfirmation("Bought", t), nil
}

func (c *Controller) Sell(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*schemas.TradeConfirmation, error) {
	t, err := c.Ledger.Sell(ctx, userID, symbol, shares)
	if err != nil {
		return nil, err
	}
	return tradeConfirmation("Sold", t), nil
}

func (c *Controller) GetHistory(ctx context.Context, userID uuid.UUID) ([]schemas.TransactionRecord, error) {
	transactions, err := c.Ledger.GetHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	records := make([]schemas.TransactionRecord, 0, len(transactions))
	for _, t := range transactions {
		records = append(records, schemas.TransactionRecord{
			Symbol:     t.Symbol,
			Name:       t.Name,
			Shares:     t.Shares,
			Price:      t.Price,
			ExecutedAt: t.ExecutedAt,
		})
	}
	return records, nil
}

func tradeConfirmation(verb string, t *models.Transaction) *schemas.TradeConfirmation {
	shares := t.Shares
	if shares < 0 {
		shares = -shares
	}
	return &schemas.TradeConfirmation{
		Symbol:  t.Symbol,
		Name:    t.Name,
		Shares:  shares,
		Price:   t.Price,
		Total:   t.TotalValue(),
		Message: fmt.Sprintf("%s %d %s at %s", verb, shares, t.Symbol, utils.FormatUSD(t.Price)),
	}
}
