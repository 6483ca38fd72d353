package postgres

import (
	"context"
	"testing"
	"time"

	"card-exchange/internal/core/domain"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCard(id int64, owner string) *domain.Card {
	return &domain.Card{
		ID:            id,
		Traits:        0x1234,
		CardType:      3,
		MatronID:      0,
		SireID:        0,
		PackID:        1,
		CooldownEnd:   time.Time{},
		CooldownIndex: 0,
		Owner:         owner,
		Approved:      "",
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
}

func cardColumnNames() []string {
	return []string{"id", "traits", "card_type", "matron_id", "sire_id", "pack_id",
		"cooldown_end", "cooldown_index", "owner", "approved", "created_at"}
}

func cardRow(c *domain.Card) *pgxmock.Rows {
	return pgxmock.NewRows(cardColumnNames()).AddRow(
		c.ID, int64(c.Traits), c.CardType, c.MatronID, c.SireID, c.PackID,
		c.CooldownEnd, c.CooldownIndex, c.Owner, c.Approved, c.CreatedAt,
	)
}

func TestCardRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)
	c := newTestCard(0, "0xowner")

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO cards").
		WithArgs(int64(c.Traits), c.CardType, c.MatronID, c.SireID, c.PackID,
			c.CooldownEnd, c.CooldownIndex, c.Owner, c.Approved, c.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, c)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)
	c := newTestCard(7, "0xowner")

	mock.ExpectQuery("SELECT .+ FROM cards WHERE id").
		WithArgs(c.ID).
		WillReturnRows(cardRow(c))

	result, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, c.ID, result.ID)
	assert.Equal(t, c.Traits, result.Traits)
	assert.Equal(t, c.Owner, result.Owner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM cards WHERE id").
		WithArgs(int64(999)).
		WillReturnRows(pgxmock.NewRows(cardColumnNames()))

	result, err := repo.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)
	c := newTestCard(7, "0xowner")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM cards WHERE id .+ FOR UPDATE").
		WithArgs(c.ID).
		WillReturnRows(cardRow(c))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, c.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_GetByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)
	c1 := newTestCard(1, "0xowner")
	c2 := newTestCard(2, "0xowner")
	c2.Traits = 0x5678

	rows := pgxmock.NewRows(cardColumnNames()).
		AddRow(c1.ID, int64(c1.Traits), c1.CardType, c1.MatronID, c1.SireID, c1.PackID,
			c1.CooldownEnd, c1.CooldownIndex, c1.Owner, c1.Approved, c1.CreatedAt).
		AddRow(c2.ID, int64(c2.Traits), c2.CardType, c2.MatronID, c2.SireID, c2.PackID,
			c2.CooldownEnd, c2.CooldownIndex, c2.Owner, c2.Approved, c2.CreatedAt)

	mock.ExpectQuery("SELECT .+ FROM cards WHERE owner").
		WithArgs("0xowner").
		WillReturnRows(rows)

	result, err := repo.GetByOwner(context.Background(), "0xowner")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, int64(1), result[0].ID)
	assert.Equal(t, uint64(0x5678), result[1].Traits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_CountByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("0xowner").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))

	n, err := repo.CountByOwner(context.Background(), "0xowner")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_TraitsExist(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)

	// The bitmask lock is taken before the lookup so concurrent duplicate
	// checks serialize.
	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(int64(0x1234)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(0x1234)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	exists, err := repo.TraitsExist(context.Background(), tx, 0x1234)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_UpdateOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE cards SET owner").
		WithArgs("0xnew", "", int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateOwner(context.Background(), tx, 7, "0xnew", "")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_UpdateOwner_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE cards SET owner").
		WithArgs("0xnew", "", int64(999)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateOwner(context.Background(), tx, 999, "0xnew", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "card not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_UpdateCooldown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)
	end := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE cards SET cooldown_end").
		WithArgs(end, uint8(3), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateCooldown(context.Background(), tx, 7, end, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
