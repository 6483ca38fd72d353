package service

import (
	"context"
	"fmt"

	"card-exchange/internal/core/domain"
	"card-exchange/internal/core/ports"
	"card-exchange/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// CardServiceImpl mints cards, answers registry queries, and owns the
// deck-side knobs.
type CardServiceImpl struct {
	cardRepo     ports.CardRepository
	auctionRepo  ports.AuctionRepository
	settingsRepo ports.SettingsRepository
	walletRepo   ports.WalletRepository
	transactor   ports.DBTransactor
	access       ports.AccessService
	traits       ports.TraitEngine
	clock        ports.Clock
	events       ports.EventPublisher
	log          zerolog.Logger
}

// NewCardService creates a new CardServiceImpl.
func NewCardService(
	cardRepo ports.CardRepository,
	auctionRepo ports.AuctionRepository,
	settingsRepo ports.SettingsRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	access ports.AccessService,
	traits ports.TraitEngine,
	clock ports.Clock,
	events ports.EventPublisher,
	log zerolog.Logger,
) *CardServiceImpl {
	return &CardServiceImpl{
		cardRepo:     cardRepo,
		auctionRepo:  auctionRepo,
		settingsRepo: settingsRepo,
		walletRepo:   walletRepo,
		transactor:   transactor,
		access:       access,
		traits:       traits,
		clock:        clock,
		events:       events,
		log:          log,
	}
}

// mintSeed derives a per-card entropy seed. The loop index is mixed in with an
// odd multiplier so cards minted in the same batch never share a seed.
func mintSeed(base uint64, i int) uint64 {
	return base ^ (uint64(i+1) * 0x9e3779b97f4a7c15)
}

// mintPackCards mints packs*CardsPerPack cards to owner inside tx and returns
// the cards plus the events to publish after commit. Shared by the funding and
// reward purchase paths so both mint identically.
func mintPackCards(
	ctx context.Context,
	tx pgx.Tx,
	cardRepo ports.CardRepository,
	settings *domain.Settings,
	traits ports.TraitEngine,
	clock ports.Clock,
	owner string,
	packs int64,
) ([]domain.Card, []domain.Event, error) {
	now := clock.Now()
	base := uint64(now.UnixNano())
	total := int(packs) * settings.CardsPerPack

	cards := make([]domain.Card, 0, total)
	events := make([]domain.Event, 0, total*2)
	for i := 0; i < total; i++ {
		seed := mintSeed(base, i)
		cardType := domain.CardType(seed % uint64(settings.MaxCardTypes))
		card := &domain.Card{
			Traits:    traits.Generate(seed, cardType),
			CardType:  cardType,
			PackID:    settings.CurrentPackID,
			Owner:     owner,
			CreatedAt: now,
		}
		if err := cardRepo.Create(ctx, tx, card); err != nil {
			return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("mint card: %w", err))
		}
		cards = append(cards, *card)
		events = append(events,
			domain.NewCardCreated(card),
			domain.NewTransfer(domain.ZeroAddress, owner, card.ID),
		)
	}
	return cards, events, nil
}

// CreatePromoCard mints a single card outside the pack flow. COO-only. A zero
// traits value asks the engine for a fresh mask; explicit traits must be
// unique across the registry.
func (s *CardServiceImpl) CreatePromoCard(ctx context.Context, caller string, packID int64, cardType domain.CardType, traits uint64, owner string) (*domain.Card, error) {
	if err := s.access.RequireCOO(ctx, caller); err != nil {
		return nil, err
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if cardType < 0 || int(cardType) >= settings.MaxCardTypes {
		return nil, apperror.ErrInvalidCardType()
	}
	if owner == domain.ZeroAddress {
		owner = caller
	}

	now := s.clock.Now()

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if traits == 0 {
		traits = s.traits.Generate(uint64(now.UnixNano()), cardType)
	} else {
		// Checked inside the transaction: the repo serializes on the bitmask,
		// so concurrent mints of the same explicit traits cannot both pass.
		exists, err := s.cardRepo.TraitsExist(ctx, tx, traits)
		if err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
		if exists {
			return nil, apperror.ErrDuplicateTraits()
		}
	}

	card := &domain.Card{
		Traits:    traits,
		CardType:  cardType,
		PackID:    packID,
		Owner:     owner,
		CreatedAt: now,
	}
	if err := s.cardRepo.Create(ctx, tx, card); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("mint promo card: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.publish(ctx, domain.NewCardCreated(card), domain.NewTransfer(domain.ZeroAddress, owner, card.ID))
	s.log.Info().Int64("card_id", card.ID).Str("owner", owner).Msg("promo card minted")
	return card, nil
}

// CreatePromoAuction mints a card straight into auction escrow with the
// treasury as seller. COO-only.
func (s *CardServiceImpl) CreatePromoAuction(ctx context.Context, caller string, cardType domain.CardType, traits uint64, startingPrice, endingPrice, duration int64) (*domain.Card, error) {
	if err := s.access.RequireCOO(ctx, caller); err != nil {
		return nil, err
	}
	if startingPrice < 0 || endingPrice < 0 {
		return nil, apperror.ErrInvalidPrice()
	}
	if duration <= 0 {
		return nil, apperror.ErrInvalidDuration()
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if cardType < 0 || int(cardType) >= settings.MaxCardTypes {
		return nil, apperror.ErrInvalidCardType()
	}

	now := s.clock.Now()
	if traits == 0 {
		traits = s.traits.Generate(uint64(now.UnixNano()), cardType)
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	card := &domain.Card{
		Traits:    traits,
		CardType:  cardType,
		PackID:    settings.CurrentPackID,
		Owner:     domain.EscrowAddress,
		CreatedAt: now,
	}
	if err := s.cardRepo.Create(ctx, tx, card); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("mint promo card: %w", err))
	}

	auction := &domain.Auction{
		TokenID:       card.ID,
		Seller:        domain.TreasuryAddress,
		StartingPrice: startingPrice,
		EndingPrice:   endingPrice,
		Duration:      duration,
		StartedAt:     now,
	}
	if err := s.auctionRepo.Create(ctx, tx, auction); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create promo auction: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.publish(ctx,
		domain.NewCardCreated(card),
		domain.NewTransfer(domain.ZeroAddress, domain.EscrowAddress, card.ID),
		domain.NewAuctionCreated(auction),
	)
	s.log.Info().Int64("card_id", card.ID).Int64("starting_price", startingPrice).Msg("promo auction created")
	return card, nil
}

// BuyPack mints floor(payment/packPrice) packs of cards to buyer, debiting
// exactly the price of the packs bought. Overpayment below the next pack
// boundary stays in the buyer's wallet.
func (s *CardServiceImpl) BuyPack(ctx context.Context, buyer string, payment int64) ([]domain.Card, error) {
	if buyer == domain.ZeroAddress {
		return nil, apperror.ErrZeroAddress()
	}
	if payment <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	settings, err := s.settingsRepo.GetForUpdate(ctx, tx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if settings.DeckPaused {
		return nil, apperror.ErrPaused()
	}
	if payment < settings.PackPrice {
		return nil, apperror.ErrInsufficientPayment()
	}
	packs := payment / settings.PackPrice
	if !settings.CanMintPacks(packs) {
		return nil, apperror.ErrSeasonPackLimitReached()
	}
	cost := packs * settings.PackPrice

	wallet, err := s.walletRepo.GetByAddressForUpdate(ctx, tx, buyer)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if wallet == nil || wallet.Balance < cost {
		return nil, apperror.ErrInsufficientBalance()
	}
	if err := s.walletRepo.UpdateBalance(ctx, tx, buyer, wallet.Balance-cost); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	treasury, err := s.walletRepo.GetOrCreateForUpdate(ctx, tx, domain.TreasuryAddress)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := s.walletRepo.UpdateBalance(ctx, tx, domain.TreasuryAddress, treasury.Balance+cost); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	cards, events, err := mintPackCards(ctx, tx, s.cardRepo, settings, s.traits, s.clock, buyer, packs)
	if err != nil {
		return nil, err
	}

	settings.SeasonPacksMinted += packs
	if err := s.settingsRepo.Update(ctx, tx, settings); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.publish(ctx, events...)
	s.log.Info().Str("buyer", buyer).Int64("packs", packs).Int("cards", len(cards)).Msg("pack purchase complete")
	return cards, nil
}

// GetCard returns a card by id.
func (s *CardServiceImpl) GetCard(ctx context.Context, id int64) (*domain.Card, error) {
	card, err := s.cardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if card == nil {
		return nil, apperror.ErrCardNotFound(id)
	}
	return card, nil
}

// GetCardsByOwner lists the cards held by an address.
func (s *CardServiceImpl) GetCardsByOwner(ctx context.Context, owner string) ([]domain.Card, error) {
	if owner == domain.ZeroAddress {
		return nil, apperror.ErrZeroAddress()
	}
	cards, err := s.cardRepo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return cards, nil
}

// TotalSupply returns the number of cards ever minted.
func (s *CardServiceImpl) TotalSupply(ctx context.Context) (int64, error) {
	n, err := s.cardRepo.TotalSupply(ctx)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	return n, nil
}

// PackState returns the current economy knobs.
func (s *CardServiceImpl) PackState(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if settings == nil {
		return nil, apperror.ErrNotFound("settings")
	}
	return settings, nil
}

// SetCurrentPackID rolls the season to a new pack id and resets the season
// mint counter. CEO-only.
func (s *CardServiceImpl) SetCurrentPackID(ctx context.Context, caller string, packID int64) error {
	if err := s.access.RequireCEO(ctx, caller); err != nil {
		return err
	}
	if packID < 0 {
		return apperror.ErrInvalidAmount()
	}
	return s.updateSettings(ctx, "current_pack_id", packID, func(st *domain.Settings) {
		st.CurrentPackID = packID
		st.SeasonPacksMinted = 0
	})
}

// SetPackPrice updates the funding-currency pack price. C-level only.
func (s *CardServiceImpl) SetPackPrice(ctx context.Context, caller string, price int64) error {
	if err := s.access.RequireCLevel(ctx, caller); err != nil {
		return err
	}
	if price <= 0 {
		return apperror.ErrInvalidPrice()
	}
	return s.updateSettings(ctx, "pack_price", price, func(st *domain.Settings) {
		st.PackPrice = price
	})
}

// SetCardsPerPack updates the per-pack card count. C-level only.
func (s *CardServiceImpl) SetCardsPerPack(ctx context.Context, caller string, n int) error {
	if err := s.access.RequireCLevel(ctx, caller); err != nil {
		return err
	}
	if n <= 0 {
		return apperror.ErrInvalidAmount()
	}
	return s.updateSettings(ctx, "cards_per_pack", int64(n), func(st *domain.Settings) {
		st.CardsPerPack = n
	})
}

// SetMaxCardTypes raises the card-type ceiling. C-level only.
func (s *CardServiceImpl) SetMaxCardTypes(ctx context.Context, caller string, n int) error {
	if err := s.access.RequireCLevel(ctx, caller); err != nil {
		return err
	}
	if n <= 0 {
		return apperror.ErrInvalidAmount()
	}
	return s.updateSettings(ctx, "max_card_types", int64(n), func(st *domain.Settings) {
		st.MaxCardTypes = n
	})
}

// SetSeasonPackLimit updates the per-season pack ceiling. Zero closes the
// season outright; a negative limit removes the cap. C-level only.
func (s *CardServiceImpl) SetSeasonPackLimit(ctx context.Context, caller string, limit int64) error {
	if err := s.access.RequireCLevel(ctx, caller); err != nil {
		return err
	}
	return s.updateSettings(ctx, "season_pack_limit", limit, func(st *domain.Settings) {
		st.SeasonPackLimit = limit
	})
}

// Pause halts deck mutations. Owner-only.
func (s *CardServiceImpl) Pause(ctx context.Context, caller string) error {
	if err := s.access.RequireOwner(ctx, caller); err != nil {
		return err
	}
	return s.setPaused(ctx, true)
}

// Unpause resumes deck mutations. Owner-only; fails if not paused.
func (s *CardServiceImpl) Unpause(ctx context.Context, caller string) error {
	if err := s.access.RequireOwner(ctx, caller); err != nil {
		return err
	}
	return s.setPaused(ctx, false)
}

func (s *CardServiceImpl) setPaused(ctx context.Context, paused bool) error {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	settings, err := s.settingsRepo.GetForUpdate(ctx, tx)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if settings.DeckPaused == paused {
		if paused {
			return apperror.ErrPaused()
		}
		return apperror.ErrNotPaused()
	}
	settings.DeckPaused = paused
	if err := s.settingsRepo.Update(ctx, tx, settings); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(err)
	}

	if paused {
		s.publish(ctx, domain.NewPaused("deck"))
	} else {
		s.publish(ctx, domain.NewUnpaused("deck"))
	}
	s.log.Info().Bool("paused", paused).Msg("deck pause state changed")
	return nil
}

func (s *CardServiceImpl) updateSettings(ctx context.Context, knob string, value int64, apply func(*domain.Settings)) error {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	settings, err := s.settingsRepo.GetForUpdate(ctx, tx)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	apply(settings)
	if err := s.settingsRepo.Update(ctx, tx, settings); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(err)
	}

	s.publish(ctx, domain.NewKnobUpdated(knob, value))
	s.log.Info().Str("knob", knob).Int64("value", value).Msg("economy knob updated")
	return nil
}

func (s *CardServiceImpl) publish(ctx context.Context, events ...domain.Event) {
	if err := s.events.Publish(ctx, events...); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish events")
	}
}
