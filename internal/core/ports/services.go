package ports

import (
	"context"
	"time"

	"card-exchange/internal/core/domain"
)

// Clock abstracts time so price curves and cooldowns are testable.
type Clock interface {
	Now() time.Time
}

// EventPublisher emits observable domain events after a transaction commits.
// Publishing is best-effort; the domain state is the source of truth.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}

// TraitEngine deterministically derives rarity-weighted trait masks. The same
// inputs always produce the same mask and a generated mask is never zero.
type TraitEngine interface {
	Generate(seed uint64, cardType domain.CardType) uint64
	Combine(matron, sire, seed uint64) uint64
	CombineThree(first, second, third, seed uint64) uint64
}

// AccessService answers role checks and handles CEO-gated role reassignment.
type AccessService interface {
	Roles(ctx context.Context) (*domain.RoleSet, error)
	RequireCEO(ctx context.Context, caller string) error
	RequireCFO(ctx context.Context, caller string) error
	RequireCOO(ctx context.Context, caller string) error
	RequireCLevel(ctx context.Context, caller string) error
	RequireOwner(ctx context.Context, caller string) error
	SetCEO(ctx context.Context, caller, newAddr string) error
	SetCFO(ctx context.Context, caller, newAddr string) error
	SetCOO(ctx context.Context, caller, newAddr string) error
}

// CardService mints cards (promo and packs), answers registry queries, and
// owns the deck-side knobs.
type CardService interface {
	CreatePromoCard(ctx context.Context, caller string, packID int64, cardType domain.CardType, traits uint64, owner string) (*domain.Card, error)
	CreatePromoAuction(ctx context.Context, caller string, cardType domain.CardType, traits uint64, startingPrice, endingPrice, duration int64) (*domain.Card, error)
	BuyPack(ctx context.Context, buyer string, payment int64) ([]domain.Card, error)
	GetCard(ctx context.Context, id int64) (*domain.Card, error)
	GetCardsByOwner(ctx context.Context, owner string) ([]domain.Card, error)
	TotalSupply(ctx context.Context) (int64, error)
	PackState(ctx context.Context) (*domain.Settings, error)
	SetCurrentPackID(ctx context.Context, caller string, packID int64) error
	SetPackPrice(ctx context.Context, caller string, price int64) error
	SetCardsPerPack(ctx context.Context, caller string, n int) error
	SetMaxCardTypes(ctx context.Context, caller string, n int) error
	SetSeasonPackLimit(ctx context.Context, caller string, limit int64) error
	Pause(ctx context.Context, caller string) error
	Unpause(ctx context.Context, caller string) error
}

// AuctionService runs the clock auction state machine.
type AuctionService interface {
	Create(ctx context.Context, seller string, tokenID, startingPrice, endingPrice, duration int64) (*domain.Auction, error)
	Bid(ctx context.Context, bidder string, tokenID, payment int64) (*domain.Card, error)
	Cancel(ctx context.Context, caller string, tokenID int64) error
	Get(ctx context.Context, tokenID int64) (*domain.Auction, int64, error)
	List(ctx context.Context) ([]domain.Auction, error)
	SetOwnerCut(ctx context.Context, caller string, bps int) error
	Pause(ctx context.Context, caller string) error
	Unpause(ctx context.Context, caller string) error
}

// BreedingService orchestrates ascend and transmogrify.
type BreedingService interface {
	Ascend(ctx context.Context, caller string, matronID, sireID, payment int64) (*domain.Card, error)
	Transmogrify(ctx context.Context, caller string, id1, id2, id3, payment int64) (*domain.Card, error)
	GetCooldown(ctx context.Context, cardID int64) (time.Duration, error)
	SetAscendPrice(ctx context.Context, caller string, price int64) error
	SetTransmogrifyFee(ctx context.Context, caller string, fee int64) error
}

// RewardService is the DREM ledger: CFO minting, collection-size claims, and
// token-for-pack exchange.
type RewardService interface {
	Mint(ctx context.Context, caller, to string, amount int64) error
	BalanceOf(ctx context.Context, address string) (int64, error)
	PreviewClaim(ctx context.Context, address string) (int64, error)
	// Claim pays out pending reward units. A zero result is a no-op, not an
	// error; repeated claims are safe.
	Claim(ctx context.Context, address string) (int64, error)
	BuyPackWithDrem(ctx context.Context, buyer string, packCount int64) ([]domain.Card, error)
	SetRewardThreshold(ctx context.Context, caller string, threshold int64) error
	SetRewardUnit(ctx context.Context, caller string, unit int64) error
}

// WalletService exposes funding balance operations. Topup stands in for the
// external funding rail.
type WalletService interface {
	Topup(ctx context.Context, address string, amount int64) (*domain.Wallet, error)
	Balance(ctx context.Context, address string) (int64, error)
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error)
}

// RegisterRequest holds input for account registration.
type RegisterRequest struct {
	Username string
	Password string
}

// RegisterResponse holds the registration result.
type RegisterResponse struct {
	Address  string
	Username string
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(address string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Address string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}
