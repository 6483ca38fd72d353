package ports

import (
	"context"
	"time"

	"card-exchange/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CardRepository defines persistence for cards, including the ownership and
// approval bookkeeping every other component consumes. Methods accepting
// pgx.Tx run inside transaction blocks with pessimistic locking.
type CardRepository interface {
	// Create inserts a card and assigns the next sequential id into card.ID.
	Create(ctx context.Context, tx pgx.Tx, card *domain.Card) error
	GetByID(ctx context.Context, id int64) (*domain.Card, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Card, error)
	GetByOwner(ctx context.Context, owner string) ([]domain.Card, error)
	CountByOwner(ctx context.Context, owner string) (int64, error)
	CountByOwnerTx(ctx context.Context, tx pgx.Tx, owner string) (int64, error)
	TotalSupply(ctx context.Context) (int64, error)
	// TraitsExist reports whether a card with exactly these traits exists.
	// Runs inside tx and serializes concurrent callers on the same bitmask,
	// so a duplicate check held to commit cannot race a concurrent mint.
	TraitsExist(ctx context.Context, tx pgx.Tx, traits uint64) (bool, error)
	UpdateOwner(ctx context.Context, tx pgx.Tx, id int64, owner, approved string) error
	UpdateCooldown(ctx context.Context, tx pgx.Tx, id int64, end time.Time, index uint8) error
}

// AuctionRepository defines persistence for live auctions. At most one row
// exists per token id.
type AuctionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, a *domain.Auction) error
	GetByTokenID(ctx context.Context, tokenID int64) (*domain.Auction, error)
	GetByTokenIDForUpdate(ctx context.Context, tx pgx.Tx, tokenID int64) (*domain.Auction, error)
	List(ctx context.Context) ([]domain.Auction, error)
	// Delete removes the auction row, reporting whether it existed. Settlement
	// and cancellation call this before moving the token or any funds.
	Delete(ctx context.Context, tx pgx.Tx, tokenID int64) (bool, error)
}

// SettingsRepository persists the single row of economy knobs.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.Settings, error)
	Update(ctx context.Context, tx pgx.Tx, s *domain.Settings) error
	// Init seeds the row if it does not exist yet.
	Init(ctx context.Context, s *domain.Settings) error
}

// RoleRepository persists the single row of privileged role-holders.
type RoleRepository interface {
	Get(ctx context.Context) (*domain.RoleSet, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.RoleSet, error)
	Update(ctx context.Context, tx pgx.Tx, r *domain.RoleSet) error
	Init(ctx context.Context, r *domain.RoleSet) error
}

// WalletRepository persists funding-currency balances keyed by address.
type WalletRepository interface {
	Create(ctx context.Context, w *domain.Wallet) error
	GetByAddress(ctx context.Context, address string) (*domain.Wallet, error)
	GetByAddressForUpdate(ctx context.Context, tx pgx.Tx, address string) (*domain.Wallet, error)
	// GetOrCreateForUpdate locks the wallet row, inserting a zero-balance row
	// first when the address has never held funds.
	GetOrCreateForUpdate(ctx context.Context, tx pgx.Tx, address string) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, address string, balance int64) error
}

// RewardRepository persists DREM balances and claim bookkeeping.
type RewardRepository interface {
	GetByAddress(ctx context.Context, address string) (*domain.RewardAccount, error)
	GetOrCreateForUpdate(ctx context.Context, tx pgx.Tx, address string) (*domain.RewardAccount, error)
	Update(ctx context.Context, tx pgx.Tx, acct *domain.RewardAccount) error
}

// AccountRepository persists authentication accounts.
type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByAddress(ctx context.Context, address string) (*domain.Account, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
