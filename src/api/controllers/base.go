package controllers

import (
	"github.com/rafa763/cs50-finance/src/clients/quotes"
	"github.com/rafa763/cs50-finance/src/services"
)

type IController interface {
	LedgerController
	AuthController
}

type Controller struct {
	Ledger services.LedgerServiceI
	Auth   services.AuthServiceI
	Quotes quotes.QuoteServiceClientI
}

func NewController(ledger services.LedgerServiceI, auth services.AuthServiceI, quoteClient quotes.QuoteServiceClientI) *Controller {
	return &Controller{
		Ledger: ledger,
		Auth:   auth,
		Quotes: quoteClient,
	}
}
