package postgres

import (
	"context"
	"testing"

	"card-exchange/internal/core/domain"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettings() *domain.Settings {
	return &domain.Settings{
		CurrentPackID:     1,
		PackPrice:         1000,
		CardsPerPack:      5,
		SeasonPackLimit:   -1,
		SeasonPacksMinted: 0,
		MaxCardTypes:      32,
		AscendPrice:       200,
		TransmogrifyFee:   300,
		OwnerCutBps:       375,
		RewardThreshold:   10,
		RewardUnit:        100,
		PackPriceDrem:     50,
		DeckPaused:        false,
		AuctionPaused:     false,
	}
}

func settingsColumnNames() []string {
	return []string{"current_pack_id", "pack_price", "cards_per_pack", "season_pack_limit", "season_packs_minted",
		"max_card_types", "ascend_price", "transmogrify_fee", "owner_cut_bps", "reward_threshold", "reward_unit",
		"pack_price_drem", "deck_paused", "auction_paused"}
}

func settingsRow(s *domain.Settings) *pgxmock.Rows {
	return pgxmock.NewRows(settingsColumnNames()).AddRow(
		s.CurrentPackID, s.PackPrice, s.CardsPerPack, s.SeasonPackLimit, s.SeasonPacksMinted,
		s.MaxCardTypes, s.AscendPrice, s.TransmogrifyFee, s.OwnerCutBps, s.RewardThreshold, s.RewardUnit,
		s.PackPriceDrem, s.DeckPaused, s.AuctionPaused,
	)
}

func TestSettingsRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettingsRepo(mock)
	s := newTestSettings()

	mock.ExpectQuery("SELECT .+ FROM settings WHERE id").
		WillReturnRows(settingsRow(s))

	result, err := repo.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, s.PackPrice, result.PackPrice)
	assert.Equal(t, s.OwnerCutBps, result.OwnerCutBps)
	assert.Equal(t, s.SeasonPackLimit, result.SeasonPackLimit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepo_GetForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettingsRepo(mock)
	s := newTestSettings()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM settings WHERE id = 1 FOR UPDATE").
		WillReturnRows(settingsRow(s))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetForUpdate(context.Background(), tx)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, s.CardsPerPack, result.CardsPerPack)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettingsRepo(mock)
	s := newTestSettings()
	s.SeasonPacksMinted = 42

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE settings SET").
		WithArgs(s.CurrentPackID, s.PackPrice, s.CardsPerPack, s.SeasonPackLimit,
			s.SeasonPacksMinted, s.MaxCardTypes, s.AscendPrice, s.TransmogrifyFee,
			s.OwnerCutBps, s.RewardThreshold, s.RewardUnit, s.PackPriceDrem,
			s.DeckPaused, s.AuctionPaused).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Update(context.Background(), tx, s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepo_Update_RowMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettingsRepo(mock)
	s := newTestSettings()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE settings SET").
		WithArgs(s.CurrentPackID, s.PackPrice, s.CardsPerPack, s.SeasonPackLimit,
			s.SeasonPacksMinted, s.MaxCardTypes, s.AscendPrice, s.TransmogrifyFee,
			s.OwnerCutBps, s.RewardThreshold, s.RewardUnit, s.PackPriceDrem,
			s.DeckPaused, s.AuctionPaused).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Update(context.Background(), tx, s)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "settings row missing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepo_Init(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSettingsRepo(mock)
	s := newTestSettings()

	mock.ExpectExec("INSERT INTO settings").
		WithArgs(s.CurrentPackID, s.PackPrice, s.CardsPerPack, s.SeasonPackLimit,
			s.SeasonPacksMinted, s.MaxCardTypes, s.AscendPrice, s.TransmogrifyFee,
			s.OwnerCutBps, s.RewardThreshold, s.RewardUnit, s.PackPriceDrem,
			s.DeckPaused, s.AuctionPaused).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Init(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
