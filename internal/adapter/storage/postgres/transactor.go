package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor hands out transactions from the pool. Services hold it as
// ports.DBTransactor so every mutating operation opens exactly one tx.
type Transactor struct {
	pool Pool
}

// NewTransactor wraps the connection pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin opens a database transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.Begin(ctx)
}
