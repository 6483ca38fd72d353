package postgres

import (
	"context"
	"errors"
	"fmt"

	"card-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// SettingsRepo implements ports.SettingsRepository over a single-row table.
type SettingsRepo struct {
	pool Pool
}

// NewSettingsRepo creates a new SettingsRepo.
func NewSettingsRepo(pool Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

const settingsColumns = `current_pack_id, pack_price, cards_per_pack, season_pack_limit, season_packs_minted,
		max_card_types, ascend_price, transmogrify_fee, owner_cut_bps, reward_threshold, reward_unit,
		pack_price_drem, deck_paused, auction_paused`

func scanSettings(row pgx.Row) (*domain.Settings, error) {
	s := &domain.Settings{}
	err := row.Scan(
		&s.CurrentPackID, &s.PackPrice, &s.CardsPerPack, &s.SeasonPackLimit, &s.SeasonPacksMinted,
		&s.MaxCardTypes, &s.AscendPrice, &s.TransmogrifyFee, &s.OwnerCutBps, &s.RewardThreshold, &s.RewardUnit,
		&s.PackPriceDrem, &s.DeckPaused, &s.AuctionPaused,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Get fetches the knob row (without locking).
func (r *SettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	query := `SELECT ` + settingsColumns + ` FROM settings WHERE id = 1`

	s, err := scanSettings(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// GetForUpdate fetches the knob row with pessimistic locking.
// This MUST be called within a transaction.
func (r *SettingsRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.Settings, error) {
	query := `SELECT ` + settingsColumns + ` FROM settings WHERE id = 1 FOR UPDATE`

	s, err := scanSettings(tx.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("get settings for update: %w", err)
	}
	return s, nil
}

// Update writes the knob row within a transaction.
func (r *SettingsRepo) Update(ctx context.Context, tx pgx.Tx, s *domain.Settings) error {
	query := `UPDATE settings SET
		current_pack_id = $1, pack_price = $2, cards_per_pack = $3, season_pack_limit = $4,
		season_packs_minted = $5, max_card_types = $6, ascend_price = $7, transmogrify_fee = $8,
		owner_cut_bps = $9, reward_threshold = $10, reward_unit = $11, pack_price_drem = $12,
		deck_paused = $13, auction_paused = $14
		WHERE id = 1`

	tag, err := tx.Exec(ctx, query,
		s.CurrentPackID, s.PackPrice, s.CardsPerPack, s.SeasonPackLimit,
		s.SeasonPacksMinted, s.MaxCardTypes, s.AscendPrice, s.TransmogrifyFee,
		s.OwnerCutBps, s.RewardThreshold, s.RewardUnit, s.PackPriceDrem,
		s.DeckPaused, s.AuctionPaused,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("settings row missing")
	}
	return nil
}

// Init seeds the knob row if it does not exist yet.
func (r *SettingsRepo) Init(ctx context.Context, s *domain.Settings) error {
	query := `INSERT INTO settings (id, ` + settingsColumns + `)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		s.CurrentPackID, s.PackPrice, s.CardsPerPack, s.SeasonPackLimit,
		s.SeasonPacksMinted, s.MaxCardTypes, s.AscendPrice, s.TransmogrifyFee,
		s.OwnerCutBps, s.RewardThreshold, s.RewardUnit, s.PackPriceDrem,
		s.DeckPaused, s.AuctionPaused,
	)
	if err != nil {
		return fmt.Errorf("init settings: %w", err)
	}
	return nil
}
