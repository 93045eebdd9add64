package repositories

import "errors"

var (
	// ErrCashConflict means a conditional cash update matched no row:
	// another writer committed between the caller's read and this write.
	ErrCashConflict = errors.New("cash balance modified concurrently")

	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)
