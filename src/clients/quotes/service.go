package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rafa763/cs50-finance/src/config"
	aws_handler "github.com/rafa763/cs50-finance/src/utils/aws"
	"github.com/rafa763/cs50-finance/src/utils/requests"
)

var (
	// ErrSymbolNotFound means the service resolved the request but knows
	// no such ticker.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrUnavailable covers every other failure mode of the quote service.
	ErrUnavailable = errors.New("quote service unavailable")
)

type QuoteServiceClientI interface {
	GetQuote(ctx context.Context, symbol string) (*GetQuoteResponse, error)
}

type QuoteServiceClient struct {
	API     *requests.ExternalAPIService
	BaseURL string
	token   string
}

// NewClient creates a new instance of QuoteServiceClient. The API token
// comes from config, falling back to AWS Secrets Manager when only a
// secret ID is configured.
func NewClient(cfg *config.Config) (*QuoteServiceClient, error) {
	token := cfg.ExternalClients.Quotes.Token
	if token == "" && cfg.ExternalClients.Quotes.TokenSecretID != "" {
		awsHandler, err := aws_handler.NewAWSHandler(cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		token, err = awsHandler.SecretManager.GetSecretValue(cfg.ExternalClients.Quotes.TokenSecretID)
		if err != nil {
			return nil, err
		}
	}

	api := requests.NewExternalAPIService()
	return &QuoteServiceClient{
		API:     api,
		BaseURL: cfg.ExternalClients.Quotes.BaseURL,
		token:   token,
	}, nil
}

// GetQuote fetches a fresh quote for symbol. Results are never cached:
// every trade and valuation prices against the value returned here.
func (c *QuoteServiceClient) GetQuote(ctx context.Context, symbol string) (*GetQuoteResponse, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrSymbolNotFound
	}

	endpoint := fmt.Sprintf("%s/stable/stock/%s/quote", c.BaseURL, url.PathEscape(symbol))

	params := url.Values{}
	params.Add("token", c.token)

	resp, err := c.API.Get(ctx, endpoint, "", params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrSymbolNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var quoteResponse GetQuoteResponse
	if err := json.Unmarshal(responseBody, &quoteResponse); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if quoteResponse.Symbol == "" {
		quoteResponse.Symbol = symbol
	}

	return &quoteResponse, nil
}
