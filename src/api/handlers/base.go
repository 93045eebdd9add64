package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rafa763/cs50-finance/src/api/controllers"
	"github.com/rafa763/cs50-finance/src/clients/quotes"
	"github.com/rafa763/cs50-finance/src/config"
	"github.com/rafa763/cs50-finance/src/database"
	"github.com/rafa763/cs50-finance/src/repositories"
	"github.com/rafa763/cs50-finance/src/services"
	"github.com/rafa763/cs50-finance/src/utils"
	redis_utils "github.com/rafa763/cs50-finance/src/utils/redis"
)

type Handler struct {
	Controller controllers.IController
	TokenAuth  *jwtauth.JWTAuth
	Auth       services.AuthServiceI
	Logger     *logrus.Logger
}

func NewHandler(cfg *config.Config, logger *logrus.Logger) (*Handler, error) {
	db, err := database.SetupDB(cfg)
	if err != nil {
		return nil, err
	}

	quoteClient, err := quotes.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	var denylist services.TokenDenylist
	if cfg.Databases.Redis.Host != "" {
		redisHandler, err := redis_utils.NewRedisHandler(cfg)
		if err != nil {
			return nil, err
		}
		denylist = redisHandler
	}

	tokenAuth := jwtauth.New("HS256", []byte(cfg.Auth.JWTSecret), nil)
	tokenTTL := time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute

	ledgerRepo := repositories.NewLedgerRepository(db)
	userRepo := repositories.NewUserRepository(db)

	ledgerService := services.NewLedgerService(ledgerRepo, quoteClient)
	authService := services.NewAuthService(userRepo, tokenAuth, denylist, tokenTTL)

	controller := controllers.NewController(ledgerService, authService, quoteClient)
	return &Handler{
		Controller: controller,
		TokenAuth:  tokenAuth,
		Auth:       authService,
		Logger:     logger,
	}, nil
}

func Healthcheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) respond(w http.ResponseWriter, _ *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

// HandleErrors maps ledger error kinds and HTTPErrors onto status codes.
func (h *Handler) HandleErrors(w http.ResponseWriter, err error) {
	var httpErr *utils.HTTPError
	var status int
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &httpErr):
		status = httpErr.Code
	case errors.Is(err, services.ErrInvalidSymbol),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrInsufficientShares):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrQuoteUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, services.ErrStoreConflict):
		status = http.StatusConflict
	case errors.Is(err, repositories.ErrUserNotFound):
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}
	h.Logger.WithError(err).WithField("status", status).Warning("request failed")
	h.respond(w, nil, map[string]string{"error": err.Error()}, status)
}

// currentUserID resolves the authenticated user from the verified JWT.
// The engine itself never sees tokens, only explicit user IDs.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, utils.Unauthorized("invalid token")
	}
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, utils.Unauthorized("token missing user identity")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, utils.Unauthorized("malformed user identity")
	}
	return userID, nil
}
