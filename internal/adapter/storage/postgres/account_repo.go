package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, username, password_hash, address, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, a.ID, a.Username, a.PasswordHash, a.Address, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByUsername fetches an account by username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `SELECT id, username, password_hash, address, created_at FROM accounts WHERE username = $1`

	a := &domain.Account{}
	err := r.pool.QueryRow(ctx, query, username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Address, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by username: %w", err)
	}
	return a, nil
}

// GetByAddress fetches an account by exchange address.
func (r *AccountRepo) GetByAddress(ctx context.Context, address string) (*domain.Account, error) {
	query := `SELECT id, username, password_hash, address, created_at FROM accounts WHERE address = $1`

	a := &domain.Account{}
	err := r.pool.QueryRow(ctx, query, address).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Address, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account by address: %w", err)
	}
	return a, nil
}
