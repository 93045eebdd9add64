package services_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/rafa763/cs50-finance/src/clients/quotes"
	"github.com/rafa763/cs50-finance/src/models"
	"github.com/rafa763/cs50-finance/src/repositories"
)

// memLedgerRepo is an in-memory LedgerRepository with the same
// compare-and-swap semantics the Postgres implementation has.
type memLedgerRepo struct {
	mu     sync.Mutex
	cash   map[uuid.UUID]decimal.Decimal
	log    []models.Transaction
	nextID int64
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{cash: make(map[uuid.UUID]decimal.Decimal)}
}

func (m *memLedgerRepo) setBalance(userID uuid.UUID, cash decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cash[userID] = cash
}

func (m *memLedgerRepo) entries() []models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Transaction, len(m.log))
	copy(out, m.log)
	return out
}

func (m *memLedgerRepo) GetCash(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cash, ok := m.cash[userID]
	if !ok {
		return decimal.Decimal{}, repositories.ErrUserNotFound
	}
	return cash, nil
}

func (m *memLedgerRepo) SetCash(_ context.Context, userID uuid.UUID, expected, updated decimal.Decimal, _ pgx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setCashLocked(userID, expected, updated)
}

func (m *memLedgerRepo) setCashLocked(userID uuid.UUID, expected, updated decimal.Decimal) error {
	cash, ok := m.cash[userID]
	if !ok || !cash.Equal(expected) {
		return repositories.ErrCashConflict
	}
	m.cash[userID] = updated
	return nil
}

func (m *memLedgerRepo) Append(_ context.Context, t *models.Transaction, _ pgx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLocked(t)
	return nil
}

func (m *memLedgerRepo) appendLocked(t *models.Transaction) {
	m.nextID++
	t.ID = m.nextID
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = time.Now().UTC()
	}
	m.log = append(m.log, *t)
}

func (m *memLedgerRepo) SumSharesBySymbol(_ context.Context, userID uuid.UUID) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owned := make(map[string]int64)
	for _, t := range m.log {
		if t.UserID == userID {
			owned[t.Symbol] += t.Shares
		}
	}
	return owned, nil
}

func (m *memLedgerRepo) ListTransactions(_ context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, t := range m.log {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memLedgerRepo) Settle(_ context.Context, t *models.Transaction, expectedCash, updatedCash decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setCashLocked(t.UserID, expectedCash, updatedCash); err != nil {
		return err
	}
	m.appendLocked(t)
	return nil
}

// conflictingRepo wraps a LedgerRepository and fails the first n settles
// with a cash conflict, as if another writer kept winning the race.
type conflictingRepo struct {
	repositories.LedgerRepository
	mu        sync.Mutex
	conflicts int
}

func (c *conflictingRepo) Settle(ctx context.Context, t *models.Transaction, expectedCash, updatedCash decimal.Decimal) error {
	c.mu.Lock()
	if c.conflicts > 0 {
		c.conflicts--
		c.mu.Unlock()
		return repositories.ErrCashConflict
	}
	c.mu.Unlock()
	return c.LedgerRepository.Settle(ctx, t, expectedCash, updatedCash)
}

// mockQuoteClient serves quotes from a fixed table. Unknown symbols
// resolve to ErrSymbolNotFound; a set err fails every lookup.
type mockQuoteClient struct {
	mu      sync.Mutex
	table   map[string]*quotes.GetQuoteResponse
	err     error
	lookups int
}

func newMockQuoteClient() *mockQuoteClient {
	return &mockQuoteClient{table: make(map[string]*quotes.GetQuoteResponse)}
}

func (m *mockQuoteClient) setQuote(symbol, name string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table[symbol] = &quotes.GetQuoteResponse{
		Symbol:      symbol,
		CompanyName: name,
		LatestPrice: price,
	}
}

func (m *mockQuoteClient) lookupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

func (m *mockQuoteClient) GetQuote(_ context.Context, symbol string) (*quotes.GetQuoteResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	quote, ok := m.table[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return nil, quotes.ErrSymbolNotFound
	}
	return quote, nil
}
