package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"

	"github.com/rafa763/cs50-finance/src/schemas"
	"github.com/rafa763/cs50-finance/src/utils"
)

func (h *Handler) PostRegister(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	ctx = utils.WithLogger(ctx, h.Logger)

	var req schemas.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleErrors(w, utils.BadRequest("malformed request body"))
		return
	}

	user, err := h.Controller.Register(ctx, &req)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, user, http.StatusCreated)
}

func (h *Handler) PostLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	ctx = utils.WithLogger(ctx, h.Logger)

	var req schemas.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.HandleErrors(w, utils.BadRequest("malformed request body"))
		return
	}

	token, err := h.Controller.Login(ctx, &req)
	if err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, token, http.StatusOK)
}

func (h *Handler) PostLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	ctx = utils.WithLogger(ctx, h.Logger)

	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		h.HandleErrors(w, utils.Unauthorized("invalid token"))
		return
	}

	tokenID, _ := claims["jti"].(string)
	if err := h.Controller.Logout(ctx, tokenID, token.Expiration()); err != nil {
		h.HandleErrors(w, err)
		return
	}
	h.respond(w, r, map[string]string{"message": "logged out"}, http.StatusOK)
}
