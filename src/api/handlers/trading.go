package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rafa763/cs50-finance/src/schemas"
	"github.com/rafa763/cs50-finance/src/services"
	"github.com/rafa763/cs50-finance/src/utils"
)

func (h *Handler) PostBuy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.Controller.Buy)
}

func (h *Handler) PostSell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.Controller.Sell)
}

func (h *Handler) trade(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*schemas.TradeConfirmation, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	ctx = utils.WithLogger(ctx, h.Logger)

	userID, err := currentUserID(r)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	var req schemas.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleErrors(w, utils.BadRequest("malformed request body"))
		return
	}
	if req.Symbol == "" {
		h.HandleErrors(w, utils.BadRequest("missing symbol"))
		return
	}

	// Share counts arrive as form strings. Parse once here; nothing past
	// this point ever sees a non-positive or non-integer quantity.
	shares, err := strconv.ParseInt(req.Shares, 10, 64)
	if err != nil || shares <= 0 {
		h.HandleErrors(w, services.ErrInvalidQuantity)
		return
	}

	confirmation, err := op(ctx, userID, req.Symbol, shares)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, confirmation, http.StatusOK)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	ctx = utils.WithLogger(ctx, h.Logger)

	userID, err := currentUserID(r)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}

	history, err := h.Controller.GetHistory(ctx, userID)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, history, http.StatusOK)
}
