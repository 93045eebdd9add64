package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logrus_test "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafa763/cs50-finance/src/api/handlers"
	"github.com/rafa763/cs50-finance/src/schemas"
	"github.com/rafa763/cs50-finance/src/services"
)

// fakeController records calls and returns canned results, so handler
// parsing and error mapping can be exercised without a database.
type fakeController struct {
	tradeCalls int
	tradeErr   error
	quoteErr   error
}

func (f *fakeController) GetPortfolio(_ context.Context, _ uuid.UUID) (*schemas.PortfolioResponse, error) {
	return &schemas.PortfolioResponse{
		Holdings: []schemas.HoldingResponse{},
		Cash:     decimal.NewFromInt(10000),
		Total:    decimal.NewFromInt(10000),
	}, nil
}

func (f *fakeController) GetQuote(_ context.Context, symbol string) (*schemas.QuoteResponse, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &schemas.QuoteResponse{Symbol: symbol, Name: "Test Co", Price: decimal.NewFromInt(10)}, nil
}

func (f *fakeController) Buy(_ context.Context, _ uuid.UUID, symbol string, shares int64) (*schemas.TradeConfirmation, error) {
	f.tradeCalls++
	if f.tradeErr != nil {
		return nil, f.tradeErr
	}
	return &schemas.TradeConfirmation{Symbol: symbol, Shares: shares}, nil
}

func (f *fakeController) Sell(ctx context.Context, userID uuid.UUID, symbol string, shares int64) (*schemas.TradeConfirmation, error) {
	return f.Buy(ctx, userID, symbol, shares)
}

func (f *fakeController) GetHistory(_ context.Context, _ uuid.UUID) ([]schemas.TransactionRecord, error) {
	return []schemas.TransactionRecord{}, nil
}

func (f *fakeController) Register(_ context.Context, req *schemas.RegisterRequest) (*schemas.UserResponse, error) {
	return &schemas.UserResponse{ID: uuid.New(), Username: req.Username}, nil
}

func (f *fakeController) Login(_ context.Context, req *schemas.LoginRequest) (*schemas.TokenResponse, error) {
	return &schemas.TokenResponse{Token: "token"}, nil
}

func (f *fakeController) Logout(_ context.Context, _ string, _ time.Time) error {
	return nil
}

// newTestRouter mounts the handlers behind a middleware that plants a
// verified token in the request context, standing in for jwtauth.Verifier.
// Log entries emitted while serving are captured on the returned hook.
func newTestRouter(t *testing.T, fake *fakeController) (http.Handler, *logrus_test.Hook) {
	t.Helper()

	logger, hook := logrus_test.NewNullLogger()
	tokenAuth := jwtauth.New("HS256", []byte("testing-secret"), nil)
	h := &handlers.Handler{Controller: fake, TokenAuth: tokenAuth, Logger: logger}

	claims := map[string]interface{}{"user_id": uuid.NewString(), "jti": uuid.NewString()}
	jwtauth.SetExpiryIn(claims, time.Hour)
	token, _, err := tokenAuth.Encode(claims)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(jwtauth.NewContext(r.Context(), token, nil)))
		})
	})
	router.Post("/api/buy", h.PostBuy)
	router.Post("/api/sell", h.PostSell)
	router.Get("/api/portfolio", h.GetPortfolio)
	router.Get("/api/quote/{symbol}", h.GetQuote)
	return router, hook
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTradeHandlers(t *testing.T) {
	t.Run("non-numeric shares rejected before the controller runs", func(t *testing.T) {
		fake := &fakeController{}
		router, _ := newTestRouter(t, fake)

		rec := postJSON(t, router, "/api/buy", schemas.TradeRequest{Symbol: "AAPL", Shares: "abc"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, fake.tradeCalls)
	})

	t.Run("non-positive shares rejected", func(t *testing.T) {
		fake := &fakeController{}
		router, _ := newTestRouter(t, fake)

		for _, shares := range []string{"0", "-5", "2.5", ""} {
			rec := postJSON(t, router, "/api/sell", schemas.TradeRequest{Symbol: "AAPL", Shares: shares})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		}
		assert.Equal(t, 0, fake.tradeCalls)
	})

	t.Run("missing symbol rejected", func(t *testing.T) {
		fake := &fakeController{}
		router, _ := newTestRouter(t, fake)

		rec := postJSON(t, router, "/api/buy", schemas.TradeRequest{Shares: "10"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, fake.tradeCalls)
	})

	t.Run("valid trade passes parsed values through", func(t *testing.T) {
		fake := &fakeController{}
		router, _ := newTestRouter(t, fake)

		rec := postJSON(t, router, "/api/buy", schemas.TradeRequest{Symbol: "AAPL", Shares: "10"})
		assert.Equal(t, http.StatusOK, rec.Code)

		var confirmation schemas.TradeConfirmation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmation))
		assert.Equal(t, int64(10), confirmation.Shares)
		assert.Equal(t, 1, fake.tradeCalls)
	})

	t.Run("error kinds map to status codes", func(t *testing.T) {
		cases := []struct {
			err  error
			code int
		}{
			{services.ErrInsufficientFunds, http.StatusBadRequest},
			{services.ErrInsufficientShares, http.StatusBadRequest},
			{services.ErrInvalidSymbol, http.StatusBadRequest},
			{services.ErrStoreConflict, http.StatusConflict},
			{services.ErrQuoteUnavailable, http.StatusBadGateway},
		}
		for _, tc := range cases {
			fake := &fakeController{tradeErr: tc.err}
			router, _ := newTestRouter(t, fake)

			rec := postJSON(t, router, "/api/buy", schemas.TradeRequest{Symbol: "AAPL", Shares: "1"})
			assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
		}
	})

	t.Run("quote endpoint maps unavailability to 502", func(t *testing.T) {
		fake := &fakeController{quoteErr: services.ErrQuoteUnavailable}
		router, _ := newTestRouter(t, fake)

		req := httptest.NewRequest(http.MethodGet, "/api/quote/AAPL", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("portfolio responds with account state", func(t *testing.T) {
		fake := &fakeController{}
		router, _ := newTestRouter(t, fake)

		req := httptest.NewRequest(http.MethodGet, "/api/portfolio", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var portfolio schemas.PortfolioResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &portfolio))
		assert.True(t, decimal.NewFromInt(10000).Equal(portfolio.Cash))
	})

	t.Run("failed requests land in the log with their status", func(t *testing.T) {
		fake := &fakeController{tradeErr: services.ErrInsufficientFunds}
		router, hook := newTestRouter(t, fake)

		rec := postJSON(t, router, "/api/buy", schemas.TradeRequest{Symbol: "AAPL", Shares: "10"})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.WarnLevel, entry.Level)
		assert.Equal(t, http.StatusBadRequest, entry.Data["status"])
		loggedErr, ok := entry.Data[logrus.ErrorKey].(error)
		require.True(t, ok)
		assert.ErrorIs(t, loggedErr, services.ErrInsufficientFunds)
	})
}
