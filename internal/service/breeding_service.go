package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"card-exchange/internal/core/domain"
	"card-exchange/internal/core/ports"
	"card-exchange/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// BreedingServiceImpl orchestrates ascend (two parents breed a child) and
// transmogrify (three cards burn into one).
type BreedingServiceImpl struct {
	cardRepo     ports.CardRepository
	settingsRepo ports.SettingsRepository
	walletRepo   ports.WalletRepository
	transactor   ports.DBTransactor
	access       ports.AccessService
	traits       ports.TraitEngine
	clock        ports.Clock
	events       ports.EventPublisher
	log          zerolog.Logger
}

// NewBreedingService creates a new BreedingServiceImpl.
func NewBreedingService(
	cardRepo ports.CardRepository,
	settingsRepo ports.SettingsRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	access ports.AccessService,
	traits ports.TraitEngine,
	clock ports.Clock,
	events ports.EventPublisher,
	log zerolog.Logger,
) *BreedingServiceImpl {
	return &BreedingServiceImpl{
		cardRepo:     cardRepo,
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

// lockCards locks the given card rows in ascending id order so concurrent
// breeds over overlapping cards cannot deadlock.
func (s *BreedingServiceImpl) lockCards(ctx context.Context, tx pgx.Tx, ids ...int64) (map[int64]*domain.Card, error) {
	ordered := append([]int64(nil), ids...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	cards := make(map[int64]*domain.Card, len(ordered))
	for _, id := range ordered {
		card, err := s.cardRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
		if card == nil {
			return nil, apperror.ErrCardNotFound(id)
		}
		cards[id] = card
	}
	return cards, nil
}

func (s *BreedingServiceImpl) chargeFee(ctx context.Context, tx pgx.Tx, payer string, fee int64) error {
	if fee <= 0 {
		return nil
	}
	wallet, err := s.walletRepo.GetByAddressForUpdate(ctx, tx, payer)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if wallet == nil || wallet.Balance < fee {
		return apperror.ErrInsufficientBalance()
	}
	if err := s.walletRepo.UpdateBalance(ctx, tx, payer, wallet.Balance-fee); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	treasury, err := s.walletRepo.GetOrCreateForUpdate(ctx, tx, domain.TreasuryAddress)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if err := s.walletRepo.UpdateBalance(ctx, tx, domain.TreasuryAddress, treasury.Balance+fee); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	return nil
}

// Ascend breeds a child from two cards the caller owns. Both parents must be
// off cooldown; each incurs its next cooldown rung afterwards.
func (s *BreedingServiceImpl) Ascend(ctx context.Context, caller string, matronID, sireID, payment int64) (*domain.Card, error) {
	if caller == domain.ZeroAddress {
		return nil, apperror.ErrZeroAddress()
	}
	if matronID == sireID {
		return nil, apperror.Validation("Matron and sire must be distinct cards")
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if settings.DeckPaused {
		return nil, apperror.ErrPaused()
	}
	if payment < settings.AscendPrice {
		return nil, apperror.ErrInsufficientPayment()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cards, err := s.lockCards(ctx, tx, matronID, sireID)
	if err != nil {
		return nil, err
	}
	matron, sire := cards[matronID], cards[sireID]

	now := s.clock.Now()
	for _, parent := range []*domain.Card{matron, sire} {
		if parent.Owner != caller {
			return nil, apperror.ErrNotCardOwner(parent.ID)
		}
		if !parent.ReadyAt(now) {
			return nil, apperror.ErrCardOnCooldown(parent.ID)
		}
	}

	if err := s.chargeFee(ctx, tx, caller, settings.AscendPrice); err != nil {
		return nil, err
	}

	for _, parent := range []*domain.Card{matron, sire} {
		end := now.Add(parent.NextCooldown())
		index := parent.CooldownIndex
		if int(index) < len(domain.Cooldowns)-1 {
			index++
		}
		if err := s.cardRepo.UpdateCooldown(ctx, tx, parent.ID, end, index); err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
	}

	child := &domain.Card{
		Traits:    s.traits.Combine(matron.Traits, sire.Traits, uint64(now.UnixNano())),
		CardType:  matron.CardType,
		MatronID:  matronID,
		SireID:    sireID,
		PackID:    settings.CurrentPackID,
		Owner:     caller,
		CreatedAt: now,
	}
	if err := s.cardRepo.Create(ctx, tx, child); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("mint child card: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.publish(ctx,
		domain.NewCardCreated(child),
		domain.NewTransfer(domain.ZeroAddress, caller, child.ID),
	)
	s.log.Info().Int64("child_id", child.ID).Int64("matron_id", matronID).Int64("sire_id", sireID).Msg("ascend complete")
	return child, nil
}

// Transmogrify burns three non-hero cards the caller owns and mints one card
// whose traits fold all three inputs together.
func (s *BreedingServiceImpl) Transmogrify(ctx context.Context, caller string, id1, id2, id3, payment int64) (*domain.Card, error) {
	if caller == domain.ZeroAddress {
		return nil, apperror.ErrZeroAddress()
	}
	if id1 == id2 || id1 == id3 || id2 == id3 {
		return nil, apperror.Validation("Transmogrify requires three distinct cards")
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if settings.DeckPaused {
		return nil, apperror.ErrPaused()
	}
	if payment < settings.TransmogrifyFee {
		return nil, apperror.ErrInsufficientPayment()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cards, err := s.lockCards(ctx, tx, id1, id2, id3)
	if err != nil {
		return nil, err
	}
	first, second, third := cards[id1], cards[id2], cards[id3]

	for _, card := range []*domain.Card{first, second, third} {
		if card.Owner != caller {
			return nil, apperror.ErrNotCardOwner(card.ID)
		}
		if card.CardType == domain.CardTypeHero {
			return nil, apperror.ErrHeroCard(card.ID)
		}
	}

	if err := s.chargeFee(ctx, tx, caller, settings.TransmogrifyFee); err != nil {
		return nil, err
	}

	for _, card := range []*domain.Card{first, second, third} {
		if err := s.cardRepo.UpdateOwner(ctx, tx, card.ID, domain.BurnedAddress, domain.ZeroAddress); err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
	}

	now := s.clock.Now()
	result := &domain.Card{
		Traits:    s.traits.CombineThree(first.Traits, second.Traits, third.Traits, uint64(now.UnixNano())),
		CardType:  first.CardType,
		PackID:    settings.CurrentPackID,
		Owner:     caller,
		CreatedAt: now,
	}
	if err := s.cardRepo.Create(ctx, tx, result); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("mint transmogrified card: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	events := []domain.Event{
		domain.NewTransfer(caller, domain.BurnedAddress, id1),
		domain.NewTransfer(caller, domain.BurnedAddress, id2),
		domain.NewTransfer(caller, domain.BurnedAddress, id3),
		domain.NewCardCreated(result),
		domain.NewTransfer(domain.ZeroAddress, caller, result.ID),
	}
	s.publish(ctx, events...)
	s.log.Info().Int64("result_id", result.ID).Msg("transmogrify complete")
	return result, nil
}

// GetCooldown returns how long until the card may ascend again, or 0.
func (s *BreedingServiceImpl) GetCooldown(ctx context.Context, cardID int64) (time.Duration, error) {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	if card == nil {
		return 0, apperror.ErrCardNotFound(cardID)
	}
	return card.RemainingCooldown(s.clock.Now()), nil
}

// SetAscendPrice updates the ascend fee. CEO-only.
func (s *BreedingServiceImpl) SetAscendPrice(ctx context.Context, caller string, price int64) error {
	if err := s.access.RequireCEO(ctx, caller); err != nil {
		return err
	}
	if price < 0 {
		return apperror.ErrInvalidPrice()
	}
	return s.updateSettings(ctx, "ascend_price", price, func(st *domain.Settings) {
		st.AscendPrice = price
	})
}

// SetTransmogrifyFee updates the transmogrify fee. C-level only.
func (s *BreedingServiceImpl) SetTransmogrifyFee(ctx context.Context, caller string, fee int64) error {
	if err := s.access.RequireCLevel(ctx, caller); err != nil {
		return err
	}
	if fee < 0 {
		return apperror.ErrInvalidPrice()
	}
	return s.updateSettings(ctx, "transmogrify_fee", fee, func(st *domain.Settings) {
		st.TransmogrifyFee = fee
	})
}

func (s *BreedingServiceImpl) updateSettings(ctx context.Context, knob string, value int64, apply func(*domain.Settings)) error {
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

func (s *BreedingServiceImpl) publish(ctx context.Context, events ...domain.Event) {
	if err := s.events.Publish(ctx, events...); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish events")
	}
}
