package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           uuid.UUID       `db:"id"`
	Username     string          `db:"username"`
	PasswordHash string          `db:"password_hash"`
	Cash         decimal.Decimal `db:"cash"`
	CreatedAt    time.Time       `db:"created_at"`
}
