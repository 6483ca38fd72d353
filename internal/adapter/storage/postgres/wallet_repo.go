package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository. Balances are kept in the
// smallest unit of the funding currency.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (address, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, w.Address, w.Balance, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByAddress fetches a wallet (without locking).
func (r *WalletRepo) GetByAddress(ctx context.Context, address string) (*domain.Wallet, error) {
	query := `SELECT address, balance, created_at, updated_at FROM wallets WHERE address = $1`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, address).Scan(&w.Address, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// GetByAddressForUpdate fetches a wallet with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByAddressForUpdate(ctx context.Context, tx pgx.Tx, address string) (*domain.Wallet, error) {
	query := `SELECT address, balance, created_at, updated_at FROM wallets WHERE address = $1 FOR UPDATE`

	w := &domain.Wallet{}
	err := tx.QueryRow(ctx, query, address).Scan(&w.Address, &w.Balance, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// GetOrCreateForUpdate locks the wallet row, inserting a zero-balance row
// first when the address has never held funds.
func (r *WalletRepo) GetOrCreateForUpdate(ctx context.Context, tx pgx.Tx, address string) (*domain.Wallet, error) {
	insert := `INSERT INTO wallets (address, balance, created_at, updated_at)
		VALUES ($1, 0, NOW(), NOW())
		ON CONFLICT (address) DO NOTHING`
	if _, err := tx.Exec(ctx, insert, address); err != nil {
		return nil, fmt.Errorf("ensure wallet: %w", err)
	}
	return r.GetByAddressForUpdate(ctx, tx, address)
}

// UpdateBalance sets a wallet's balance within a transaction.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, address string, balance int64) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE address = $2`

	tag, err := tx.Exec(ctx, query, balance, address)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", address)
	}
	return nil
}
