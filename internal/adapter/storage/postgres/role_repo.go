package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// RoleRepo implements ports.RoleRepository over a single-row table.
type RoleRepo struct {
	pool Pool
}

// NewRoleRepo creates a new RoleRepo.
func NewRoleRepo(pool Pool) *RoleRepo {
	return &RoleRepo{pool: pool}
}

// Get fetches the role-holder row (without locking).
func (r *RoleRepo) Get(ctx context.Context) (*domain.RoleSet, error) {
	query := `SELECT ceo, cfo, coo, pause_owner FROM roles WHERE id = 1`

	rs := &domain.RoleSet{}
	err := r.pool.QueryRow(ctx, query).Scan(&rs.CEO, &rs.CFO, &rs.COO, &rs.Owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get roles: %w", err)
	}
	return rs, nil
}

// GetForUpdate fetches the role-holder row with pessimistic locking.
// This MUST be called within a transaction.
func (r *RoleRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.RoleSet, error) {
	query := `SELECT ceo, cfo, coo, pause_owner FROM roles WHERE id = 1 FOR UPDATE`

	rs := &domain.RoleSet{}
	err := tx.QueryRow(ctx, query).Scan(&rs.CEO, &rs.CFO, &rs.COO, &rs.Owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get roles for update: %w", err)
	}
	return rs, nil
}

// Update writes the role-holder row within a transaction.
func (r *RoleRepo) Update(ctx context.Context, tx pgx.Tx, rs *domain.RoleSet) error {
	query := `UPDATE roles SET ceo = $1, cfo = $2, coo = $3, pause_owner = $4 WHERE id = 1`

	tag, err := tx.Exec(ctx, query, rs.CEO, rs.CFO, rs.COO, rs.Owner)
	if err != nil {
		return fmt.Errorf("update roles: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("roles row missing")
	}
	return nil
}

// Init seeds the role-holder row if it does not exist yet.
func (r *RoleRepo) Init(ctx context.Context, rs *domain.RoleSet) error {
	query := `INSERT INTO roles (id, ceo, cfo, coo, pause_owner)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, rs.CEO, rs.CFO, rs.COO, rs.Owner)
	if err != nil {
		return fmt.Errorf("init roles: %w", err)
	}
	return nil
}
