package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"card-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CardRepo implements ports.CardRepository. Traits masks are stored as BIGINT
// and round-tripped through int64.
type CardRepo struct {
	pool Pool
}

// NewCardRepo creates a new CardRepo.
func NewCardRepo(pool Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

const cardColumns = `id, traits, card_type, matron_id, sire_id, pack_id, cooldown_end, cooldown_index, owner, approved, created_at`

func scanCard(row pgx.Row) (*domain.Card, error) {
	c := &domain.Card{}
	var traits int64
	err := row.Scan(
		&c.ID, &traits, &c.CardType, &c.MatronID, &c.SireID, &c.PackID,
		&c.CooldownEnd, &c.CooldownIndex, &c.Owner, &c.Approved, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Traits = uint64(traits)
	return c, nil
}

// Create inserts a card and assigns the next sequential id into card.ID.
func (r *CardRepo) Create(ctx context.Context, tx pgx.Tx, card *domain.Card) error {
	query := `INSERT INTO cards (traits, card_type, matron_id, sire_id, pack_id, cooldown_end, cooldown_index, owner, approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	err := tx.QueryRow(ctx, query,
		int64(card.Traits), card.CardType, card.MatronID, card.SireID, card.PackID,
		card.CooldownEnd, card.CooldownIndex, card.Owner, card.Approved, card.CreatedAt,
	).Scan(&card.ID)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// GetByID fetches a card by id (without locking).
func (r *CardRepo) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card by id: %w", err)
	}
	return card, nil
}

// GetByIDForUpdate fetches a card by id with pessimistic locking.
// This MUST be called within a transaction.
func (r *CardRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1 FOR UPDATE`

	card, err := scanCard(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get card for update: %w", err)
	}
	return card, nil
}

// GetByOwner lists the cards held by an address, oldest first.
func (r *CardRepo) GetByOwner(ctx context.Context, owner string) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE owner = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("get cards by owner: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// CountByOwner counts the cards held by an address.
func (r *CardRepo) CountByOwner(ctx context.Context, owner string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards WHERE owner = $1`, owner).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cards by owner: %w", err)
	}
	return n, nil
}

// CountByOwnerTx counts the cards held by an address inside a transaction.
func (r *CardRepo) CountByOwnerTx(ctx context.Context, tx pgx.Tx, owner string) (int64, error) {
	var n int64
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM cards WHERE owner = $1`, owner).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cards by owner: %w", err)
	}
	return n, nil
}

// TotalSupply counts every card ever minted.
func (r *CardRepo) TotalSupply(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

// TraitsExist reports whether a card with exactly these traits exists. It
// takes a transaction-scoped advisory lock on the bitmask first, so two
// concurrent mints of the same traits serialize and the loser sees the
// winner's row.
func (r *CardRepo) TraitsExist(ctx context.Context, tx pgx.Tx, traits uint64) (bool, error) {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(traits)); err != nil {
		return false, fmt.Errorf("lock traits: %w", err)
	}
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cards WHERE traits = $1)`, int64(traits)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check traits exist: %w", err)
	}
	return exists, nil
}

// UpdateOwner transfers a card and resets its approval within a transaction.
func (r *CardRepo) UpdateOwner(ctx context.Context, tx pgx.Tx, id int64, owner, approved string) error {
	tag, err := tx.Exec(ctx, `UPDATE cards SET owner = $1, approved = $2 WHERE id = $3`, owner, approved, id)
	if err != nil {
		return fmt.Errorf("update card owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %d", id)
	}
	return nil
}

// UpdateCooldown sets a card's cooldown end and ladder index within a transaction.
func (r *CardRepo) UpdateCooldown(ctx context.Context, tx pgx.Tx, id int64, end time.Time, index uint8) error {
	tag, err := tx.Exec(ctx, `UPDATE cards SET cooldown_end = $1, cooldown_index = $2 WHERE id = $3`, end, index, id)
	if err != nil {
		return fmt.Errorf("update card cooldown: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %d", id)
	}
	return nil
}
