package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// RewardRepo implements ports.RewardRepository.
type RewardRepo struct {
	pool Pool
}

// NewRewardRepo creates a new RewardRepo.
func NewRewardRepo(pool Pool) *RewardRepo {
	return &RewardRepo{pool: pool}
}

// GetByAddress fetches a reward account (without locking).
func (r *RewardRepo) GetByAddress(ctx context.Context, address string) (*domain.RewardAccount, error) {
	query := `SELECT address, balance, claimed_units, updated_at FROM reward_accounts WHERE address = $1`

	a := &domain.RewardAccount{}
	err := r.pool.QueryRow(ctx, query, address).Scan(&a.Address, &a.Balance, &a.ClaimedUnits, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reward account: %w", err)
	}
	return a, nil
}

// GetOrCreateForUpdate locks the reward account row, inserting an empty row
// first when the address has never held DREM.
func (r *RewardRepo) GetOrCreateForUpdate(ctx context.Context, tx pgx.Tx, address string) (*domain.RewardAccount, error) {
	insert := `INSERT INTO reward_accounts (address, balance, claimed_units, updated_at)
		VALUES ($1, 0, 0, NOW())
		ON CONFLICT (address) DO NOTHING`
	if _, err := tx.Exec(ctx, insert, address); err != nil {
		return nil, fmt.Errorf("ensure reward account: %w", err)
	}

	query := `SELECT address, balance, claimed_units, updated_at FROM reward_accounts WHERE address = $1 FOR UPDATE`
	a := &domain.RewardAccount{}
	err := tx.QueryRow(ctx, query, address).Scan(&a.Address, &a.Balance, &a.ClaimedUnits, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get reward account for update: %w", err)
	}
	return a, nil
}

// Update writes a reward account's balance and claim bookkeeping within a
// transaction.
func (r *RewardRepo) Update(ctx context.Context, tx pgx.Tx, acct *domain.RewardAccount) error {
	query := `UPDATE reward_accounts SET balance = $1, claimed_units = $2, updated_at = NOW() WHERE address = $3`

	tag, err := tx.Exec(ctx, query, acct.Balance, acct.ClaimedUnits, acct.Address)
	if err != nil {
		return fmt.Errorf("update reward account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reward account not found: %s", acct.Address)
	}
	return nil
}
