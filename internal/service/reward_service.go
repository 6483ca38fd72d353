package service

import (
	"context"

	"card-exchange/internal/core/domain"
	"card-exchange/internal/core/ports"
	"card-exchange/pkg/apperror"

	"github.com/rs/zerolog"
)

// RewardServiceImpl is the DREM ledger: CFO minting, collection-size claims,
// and token-for-pack exchange. Claim bookkeeping is monotone, so replaying a
// claim pays nothing extra.
type RewardServiceImpl struct {
	rewardRepo   ports.RewardRepository
	cardRepo     ports.CardRepository
	settingsRepo ports.SettingsRepository
	transactor   ports.DBTransactor
	access       ports.AccessService
	traits       ports.TraitEngine
	clock        ports.Clock
	events       ports.EventPublisher
	log          zerolog.Logger
}

// NewRewardService creates a new RewardServiceImpl.
func NewRewardService(
	rewardRepo ports.RewardRepository,
	cardRepo ports.CardRepository,
	settingsRepo ports.SettingsRepository,
	transactor ports.DBTransactor,
	access ports.AccessService,
	traits ports.TraitEngine,
	clock ports.Clock,
	events ports.EventPublisher,
	log zerolog.Logger,
) *RewardServiceImpl {
	return &RewardServiceImpl{
		rewardRepo:   rewardRepo,
		cardRepo:     cardRepo,
		settingsRepo: settingsRepo,
		transactor:   transactor,
		access:       access,
		traits:       traits,
		clock:        clock,
		events:       events,
		log:          log,
	}
}

// Mint credits DREM to an address. CFO-only.
func (s *RewardServiceImpl) Mint(ctx context.Context, caller, to string, amount int64) error {
	if err := s.access.RequireCFO(ctx, caller); err != nil {
		return err
	}
	if to == domain.ZeroAddress {
		return apperror.ErrZeroAddress()
	}
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	acct, err := s.rewardRepo.GetOrCreateForUpdate(ctx, tx, to)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	acct.Balance += amount
	if err := s.rewardRepo.Update(ctx, tx, acct); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(err)
	}

	s.log.Info().Str("to", to).Int64("amount", amount).Msg("drem minted")
	return nil
}

// BalanceOf returns an address's DREM balance. Unknown addresses hold zero.
func (s *RewardServiceImpl) BalanceOf(ctx context.Context, address string) (int64, error) {
	if address == domain.ZeroAddress {
		return 0, apperror.ErrZeroAddress()
	}
	acct, err := s.rewardRepo.GetByAddress(ctx, address)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	if acct == nil {
		return 0, nil
	}
	return acct.Balance, nil
}

// PreviewClaim returns the DREM an address would receive from Claim right now.
func (s *RewardServiceImpl) PreviewClaim(ctx context.Context, address string) (int64, error) {
	if address == domain.ZeroAddress {
		return 0, apperror.ErrZeroAddress()
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	acct, err := s.rewardRepo.GetByAddress(ctx, address)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	if acct == nil {
		acct = &domain.RewardAccount{Address: address}
	}
	count, err := s.cardRepo.CountByOwner(ctx, address)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	return acct.ClaimableUnits(count, settings.RewardThreshold) * settings.RewardUnit, nil
}

// Claim pays out pending reward units for the caller's collection size. The
// card count is read in the same transaction that locks the reward account,
// so concurrent claims cannot double-pay. A zero payout is not an error.
func (s *RewardServiceImpl) Claim(ctx context.Context, address string) (int64, error) {
	if address == domain.ZeroAddress {
		return 0, apperror.ErrZeroAddress()
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	acct, err := s.rewardRepo.GetOrCreateForUpdate(ctx, tx, address)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	count, err := s.cardRepo.CountByOwnerTx(ctx, tx, address)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	units := acct.ClaimableUnits(count, settings.RewardThreshold)
	if units == 0 {
		return 0, nil
	}

	amount := units * settings.RewardUnit
	acct.ClaimedUnits += units
	acct.Balance += amount
	if err := s.rewardRepo.Update(ctx, tx, acct); err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}

	s.log.Info().Str("address", address).Int64("amount", amount).Msg("reward claimed")
	return amount, nil
}

// BuyPackWithDrem spends DREM on card packs at the DREM pack price. Packs
// bought this way count against the season limit like funded packs do.
func (s *RewardServiceImpl) BuyPackWithDrem(ctx context.Context, buyer string, packCount int64) ([]domain.Card, error) {
	if buyer == domain.ZeroAddress {
		return nil, apperror.ErrZeroAddress()
	}
	if packCount <= 0 {
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
	if !settings.CanMintPacks(packCount) {
		return nil, apperror.ErrSeasonPackLimitReached()
	}
	cost := packCount * settings.PackPriceDrem

	acct, err := s.rewardRepo.GetOrCreateForUpdate(ctx, tx, buyer)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if acct.Balance < cost {
		return nil, apperror.ErrInsufficientBalance()
	}
	acct.Balance -= cost
	if err := s.rewardRepo.Update(ctx, tx, acct); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	cards, events, err := mintPackCards(ctx, tx, s.cardRepo, settings, s.traits, s.clock, buyer, packCount)
	if err != nil {
		return nil, err
	}

	settings.SeasonPacksMinted += packCount
	if err := s.settingsRepo.Update(ctx, tx, settings); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.publish(ctx, events...)
	s.log.Info().Str("buyer", buyer).Int64("packs", packCount).Int64("cost", cost).Msg("drem pack purchase complete")
	return cards, nil
}

// SetRewardThreshold updates the cards-per-reward-unit threshold. C-level only.
func (s *RewardServiceImpl) SetRewardThreshold(ctx context.Context, caller string, threshold int64) error {
	if err := s.access.RequireCLevel(ctx, caller); err != nil {
		return err
	}
	if threshold <= 0 {
		return apperror.ErrInvalidAmount()
	}
	return s.updateSettings(ctx, "reward_threshold", threshold, func(st *domain.Settings) {
		st.RewardThreshold = threshold
	})
}

// SetRewardUnit updates the DREM paid per reward unit. CFO-only.
func (s *RewardServiceImpl) SetRewardUnit(ctx context.Context, caller string, unit int64) error {
	if err := s.access.RequireCFO(ctx, caller); err != nil {
		return err
	}
	if unit <= 0 {
		return apperror.ErrInvalidAmount()
	}
	return s.updateSettings(ctx, "reward_unit", unit, func(st *domain.Settings) {
		st.RewardUnit = unit
	})
}

func (s *RewardServiceImpl) updateSettings(ctx context.Context, knob string, value int64, apply func(*domain.Settings)) error {
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

func (s *RewardServiceImpl) publish(ctx context.Context, events ...domain.Event) {
	if err := s.events.Publish(ctx, events...); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish events")
	}
}
