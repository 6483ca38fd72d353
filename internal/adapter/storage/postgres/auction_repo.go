package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AuctionRepo implements ports.AuctionRepository. One row per escrowed token.
type AuctionRepo struct {
	pool Pool
}

// NewAuctionRepo creates a new AuctionRepo.
func NewAuctionRepo(pool Pool) *AuctionRepo {
	return &AuctionRepo{pool: pool}
}

const auctionColumns = `token_id, seller, starting_price, ending_price, duration, started_at`

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	a := &domain.Auction{}
	err := row.Scan(&a.TokenID, &a.Seller, &a.StartingPrice, &a.EndingPrice, &a.Duration, &a.StartedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new auction within a transaction.
func (r *AuctionRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Auction) error {
	query := `INSERT INTO auctions (token_id, seller, starting_price, ending_price, duration, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, a.TokenID, a.Seller, a.StartingPrice, a.EndingPrice, a.Duration, a.StartedAt)
	if err != nil {
		return fmt.Errorf("insert auction: %w", err)
	}
	return nil
}

// GetByTokenID fetches the auction on a token (without locking).
func (r *AuctionRepo) GetByTokenID(ctx context.Context, tokenID int64) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE token_id = $1`

	a, err := scanAuction(r.pool.QueryRow(ctx, query, tokenID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auction: %w", err)
	}
	return a, nil
}

// GetByTokenIDForUpdate fetches the auction on a token with pessimistic
// locking. This MUST be called within a transaction.
func (r *AuctionRepo) GetByTokenIDForUpdate(ctx context.Context, tx pgx.Tx, tokenID int64) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE token_id = $1 FOR UPDATE`

	a, err := scanAuction(tx.QueryRow(ctx, query, tokenID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auction for update: %w", err)
	}
	return a, nil
}

// List returns all live auctions, oldest first.
func (r *AuctionRepo) List(ctx context.Context) ([]domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions ORDER BY started_at, token_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	defer rows.Close()

	var auctions []domain.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan auction: %w", err)
		}
		auctions = append(auctions, *a)
	}
	return auctions, rows.Err()
}

// Delete removes the auction row, reporting whether it existed.
func (r *AuctionRepo) Delete(ctx context.Context, tx pgx.Tx, tokenID int64) (bool, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM auctions WHERE token_id = $1`, tokenID)
	if err != nil {
		return false, fmt.Errorf("delete auction: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
