package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rafa763/cs50-finance/src/models"
)

// LedgerRepository is the persistent boundary of the ledger engine: cash
// reads, conditional cash writes, the append-only transaction log and the
// holdings derivation. Settle is the transactional wrapper that commits an
// append plus a cash update as one unit.
type LedgerRepository interface {
	GetCash(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	SetCash(ctx context.Context, userID uuid.UUID, expected, updated decimal.Decimal, tx pgx.Tx) error
	Append(ctx context.Context, t *models.Transaction, tx pgx.Tx) error
	SumSharesBySymbol(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	Settle(ctx context.Context, t *models.Transaction, expectedCash, updatedCash decimal.Decimal) error
}

type ledgerRepo struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) LedgerRepository {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) GetCash(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT cash FROM users WHERE id = $1`, userID).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Decimal{}, ErrUserNotFound
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	return cash, nil
}

// SetCash performs a compare-and-swap on the stored balance. Zero rows
// affected means the balance no longer equals expected and the whole
// operation must be retried from a fresh read.
func (r *ledgerRepo) SetCash(ctx context.Context, userID uuid.UUID, expected, updated decimal.Decimal, tx pgx.Tx) error {
	query := `UPDATE users SET cash = $1 WHERE id = $2 AND cash = $3`

	var tag interface{ RowsAffected() int64 }
	var err error
	if tx == nil {
		tag, err = r.db.Exec(ctx, query, updated, userID, expected)
	} else {
		tag, err = tx.Exec(ctx, query, updated, userID, expected)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCashConflict
	}
	return nil
}

func (r *ledgerRepo) Append(ctx context.Context, t *models.Transaction, tx pgx.Tx) error {
	query := `
		INSERT INTO transactions (user_id, symbol, name, shares, price, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = time.Now().UTC()
	}

	var err error
	if tx == nil {
		tx, err = r.db.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback(ctx)
			}
		}()

		err = tx.QueryRow(ctx, query,
			t.UserID, t.Symbol, t.Name, t.Shares, t.Price, t.ExecutedAt,
		).Scan(&t.ID)
		if err != nil {
			return err
		}
		return tx.Commit(ctx)
	}

	return tx.QueryRow(ctx, query,
		t.UserID, t.Symbol, t.Name, t.Shares, t.Price, t.ExecutedAt,
	).Scan(&t.ID)
}

func (r *ledgerRepo) SumSharesBySymbol(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT symbol, SUM(shares) AS owned FROM transactions WHERE user_id = $1 GROUP BY symbol`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owned := make(map[string]int64)
	for rows.Next() {
		var symbol string
		var sum int64
		if err := rows.Scan(&symbol, &sum); err != nil {
			return nil, err
		}
		owned[symbol] = sum
	}
	return owned, rows.Err()
}

func (r *ledgerRepo) ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, symbol, name, shares, price, executed_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY executed_at, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &t.Name, &t.Shares, &t.Price, &t.ExecutedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// Settle appends the transaction and swaps the cash balance inside one
// database transaction. Either both writes commit or neither does.
func (r *ledgerRepo) Settle(ctx context.Context, t *models.Transaction, expectedCash, updatedCash decimal.Decimal) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = r.Append(ctx, t, tx); err != nil {
		return err
	}
	if err = r.SetCash(ctx, t.UserID, expectedCash, updatedCash, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
