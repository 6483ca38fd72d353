package service

import (
	"context"
	"fmt"

	"card-exchange/internal/core/domain"
	"card-exchange/internal/core/ports"
	"card-exchange/pkg/apperror"

	"github.com/rs/zerolog"
)

// AuctionServiceImpl runs the clock auction state machine. The auction row is
// deleted before the token or any funds move, so a settled or cancelled
// auction can never be acted on twice.
type AuctionServiceImpl struct {
	cardRepo     ports.CardRepository
	auctionRepo  ports.AuctionRepository
	settingsRepo ports.SettingsRepository
	walletRepo   ports.WalletRepository
	transactor   ports.DBTransactor
	access       ports.AccessService
	clock        ports.Clock
	events       ports.EventPublisher
	log          zerolog.Logger
}

// NewAuctionService creates a new AuctionServiceImpl.
func NewAuctionService(
	cardRepo ports.CardRepository,
	auctionRepo ports.AuctionRepository,
	settingsRepo ports.SettingsRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	access ports.AccessService,
	clock ports.Clock,
	events ports.EventPublisher,
	log zerolog.Logger,
) *AuctionServiceImpl {
	return &AuctionServiceImpl{
		cardRepo:     cardRepo,
		auctionRepo:  auctionRepo,
		settingsRepo: settingsRepo,
		walletRepo:   walletRepo,
		transactor:   transactor,
		access:       access,
		clock:        clock,
		events:       events,
		log:          log,
	}
}

// Create escrows the seller's card and opens a clock auction on it.
func (s *AuctionServiceImpl) Create(ctx context.Context, seller string, tokenID, startingPrice, endingPrice, duration int64) (*domain.Auction, error) {
	if seller == domain.ZeroAddress {
		return nil, apperror.ErrZeroAddress()
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
	if settings.AuctionPaused {
		return nil, apperror.ErrPaused()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	card, err := s.cardRepo.GetByIDForUpdate(ctx, tx, tokenID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if card == nil {
		return nil, apperror.ErrCardNotFound(tokenID)
	}
	if card.Owner != seller {
		return nil, apperror.ErrNotCardOwner(tokenID)
	}
	existing, err := s.auctionRepo.GetByTokenIDForUpdate(ctx, tx, tokenID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if existing != nil {
		return nil, apperror.ErrAlreadyOnAuction(tokenID)
	}

	if err := s.cardRepo.UpdateOwner(ctx, tx, tokenID, domain.EscrowAddress, domain.ZeroAddress); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	auction := &domain.Auction{
		TokenID:       tokenID,
		Seller:        seller,
		StartingPrice: startingPrice,
		EndingPrice:   endingPrice,
		Duration:      duration,
		StartedAt:     s.clock.Now(),
	}
	if err := s.auctionRepo.Create(ctx, tx, auction); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create auction: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.publish(ctx,
		domain.NewTransfer(seller, domain.EscrowAddress, tokenID),
		domain.NewAuctionCreated(auction),
	)
	s.log.Info().Int64("token_id", tokenID).Str("seller", seller).Msg("auction created")
	return auction, nil
}

// Bid settles the auction at the current clock price. The bid must cover that
// price; only the price is debited, any excess never leaves the bidder. The
// exchange cut comes out of the seller's proceeds.
func (s *AuctionServiceImpl) Bid(ctx context.Context, bidder string, tokenID, payment int64) (*domain.Card, error) {
	if bidder == domain.ZeroAddress {
		return nil, apperror.ErrZeroAddress()
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if settings.AuctionPaused {
		return nil, apperror.ErrPaused()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	auction, err := s.auctionRepo.GetByTokenIDForUpdate(ctx, tx, tokenID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if auction == nil {
		return nil, apperror.ErrAuctionNotLive(tokenID)
	}
	price := auction.PriceAt(s.clock.Now())
	if payment < price {
		return nil, apperror.ErrInsufficientBid(price)
	}

	// Remove the auction before anything of value moves.
	removed, err := s.auctionRepo.Delete(ctx, tx, tokenID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if !removed {
		return nil, apperror.ErrAuctionNotLive(tokenID)
	}

	wallet, err := s.walletRepo.GetByAddressForUpdate(ctx, tx, bidder)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if wallet == nil || wallet.Balance < price {
		return nil, apperror.ErrInsufficientBalance()
	}
	if err := s.walletRepo.UpdateBalance(ctx, tx, bidder, wallet.Balance-price); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	sellerShare, cut := settings.SellerProceeds(price)
	if auction.Seller == domain.TreasuryAddress {
		// Promo sales pay the treasury in full; a cut from itself is a no-op.
		sellerShare, cut = 0, price
	}
	if sellerShare > 0 {
		sellerWallet, err := s.walletRepo.GetOrCreateForUpdate(ctx, tx, auction.Seller)
		if err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
		if err := s.walletRepo.UpdateBalance(ctx, tx, auction.Seller, sellerWallet.Balance+sellerShare); err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
	}
	if cut > 0 {
		treasury, err := s.walletRepo.GetOrCreateForUpdate(ctx, tx, domain.TreasuryAddress)
		if err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
		if err := s.walletRepo.UpdateBalance(ctx, tx, domain.TreasuryAddress, treasury.Balance+cut); err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
	}

	card, err := s.cardRepo.GetByIDForUpdate(ctx, tx, tokenID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if card == nil {
		return nil, apperror.ErrCardNotFound(tokenID)
	}
	if err := s.cardRepo.UpdateOwner(ctx, tx, tokenID, bidder, domain.ZeroAddress); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	card.Owner = bidder
	card.Approved = domain.ZeroAddress
	s.publish(ctx,
		domain.NewAuctionSucceeded(tokenID, price, bidder),
		domain.NewTransfer(domain.EscrowAddress, bidder, tokenID),
	)
	s.log.Info().Int64("token_id", tokenID).Str("winner", bidder).Int64("price", price).Msg("auction settled")
	return card, nil
}

// Cancel tears down a live auction and returns the card to the seller. Only
// the seller may cancel, and not while the auction house is paused; the pause
// owner may cancel any auction while paused.
func (s *AuctionServiceImpl) Cancel(ctx context.Context, caller string, tokenID int64) error {
	if caller == domain.ZeroAddress {
		return apperror.ErrZeroAddress()
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	auction, err := s.auctionRepo.GetByTokenIDForUpdate(ctx, tx, tokenID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if auction == nil {
		return apperror.ErrAuctionNotLive(tokenID)
	}
	if caller != auction.Seller {
		if !settings.AuctionPaused {
			return apperror.ErrNotSeller()
		}
		if err := s.access.RequireOwner(ctx, caller); err != nil {
			return apperror.ErrNotSeller()
		}
	} else if settings.AuctionPaused {
		return apperror.ErrPaused()
	}

	removed, err := s.auctionRepo.Delete(ctx, tx, tokenID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if !removed {
		return apperror.ErrAuctionNotLive(tokenID)
	}
	if err := s.cardRepo.UpdateOwner(ctx, tx, tokenID, auction.Seller, domain.ZeroAddress); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(err)
	}

	s.publish(ctx,
		domain.NewAuctionCancelled(tokenID),
		domain.NewTransfer(domain.EscrowAddress, auction.Seller, tokenID),
	)
	s.log.Info().Int64("token_id", tokenID).Msg("auction cancelled")
	return nil
}

// Get returns the auction on a token and its current ask price.
func (s *AuctionServiceImpl) Get(ctx context.Context, tokenID int64) (*domain.Auction, int64, error) {
	auction, err := s.auctionRepo.GetByTokenID(ctx, tokenID)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(err)
	}
	if auction == nil {
		return nil, 0, apperror.ErrAuctionNotLive(tokenID)
	}
	return auction, auction.PriceAt(s.clock.Now()), nil
}

// List returns all live auctions.
func (s *AuctionServiceImpl) List(ctx context.Context) ([]domain.Auction, error) {
	auctions, err := s.auctionRepo.List(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	return auctions, nil
}

// SetOwnerCut updates the exchange's cut of auction sales in basis points.
// C-level only.
func (s *AuctionServiceImpl) SetOwnerCut(ctx context.Context, caller string, bps int) error {
	if err := s.access.RequireCLevel(ctx, caller); err != nil {
		return err
	}
	if bps < 0 || bps > 10000 {
		return apperror.ErrInvalidOwnerCut()
	}
	return s.updateSettings(ctx, "owner_cut_bps", int64(bps), func(st *domain.Settings) {
		st.OwnerCutBps = bps
	})
}

// Pause halts auction creation and bidding. Owner-only.
func (s *AuctionServiceImpl) Pause(ctx context.Context, caller string) error {
	if err := s.access.RequireOwner(ctx, caller); err != nil {
		return err
	}
	return s.setPaused(ctx, true)
}

// Unpause resumes the auction house. Owner-only; fails if not paused.
func (s *AuctionServiceImpl) Unpause(ctx context.Context, caller string) error {
	if err := s.access.RequireOwner(ctx, caller); err != nil {
		return err
	}
	return s.setPaused(ctx, false)
}

func (s *AuctionServiceImpl) setPaused(ctx context.Context, paused bool) error {
	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	settings, err := s.settingsRepo.GetForUpdate(ctx, tx)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if settings.AuctionPaused == paused {
		if paused {
			return apperror.ErrPaused()
		}
		return apperror.ErrNotPaused()
	}
	settings.AuctionPaused = paused
	if err := s.settingsRepo.Update(ctx, tx, settings); err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(err)
	}

	if paused {
		s.publish(ctx, domain.NewPaused("auction"))
	} else {
		s.publish(ctx, domain.NewUnpaused("auction"))
	}
	s.log.Info().Bool("paused", paused).Msg("auction pause state changed")
	return nil
}

func (s *AuctionServiceImpl) updateSettings(ctx context.Context, knob string, value int64, apply func(*domain.Settings)) error {
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

func (s *AuctionServiceImpl) publish(ctx context.Context, events ...domain.Event) {
	if err := s.events.Publish(ctx, events...); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish events")
	}
}
