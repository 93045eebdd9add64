package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rafa763/cs50-finance/src/utils"
)

func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	ctx = utils.WithLogger(ctx, h.Logger)

	userID, err := currentUserID(r)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	portfolio, err := h.Controller.GetPortfolio(ctx, userID)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, portfolio, http.StatusOK)
}

func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	ctx = utils.WithLogger(ctx, h.Logger)

	symbol := chi.URLParam(r, "symbol")

	quote, err := h.Controller.GetQuote(ctx, symbol)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, quote, http.StatusOK)
}
