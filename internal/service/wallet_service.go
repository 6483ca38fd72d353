package service

import (
	"context"

	"card-exchange/internal/core/domain"
	"card-exchange/internal/core/ports"
	"card-exchange/pkg/apperror"

	"github.com/rs/zerolog"
)

// WalletServiceImpl exposes funding balance operations. Topup stands in for
// the external funding rail.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(walletRepo ports.WalletRepository, transactor ports.DBTransactor, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		transactor: transactor,
		log:        log,
	}
}

// Topup credits funding currency to an address, creating the wallet if it
// does not exist yet.
func (s *WalletServiceImpl) Topup(ctx context.Context, address string, amount int64) (*domain.Wallet, error) {
	if address == domain.ZeroAddress {
		return nil, apperror.ErrZeroAddress()
	}
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetOrCreateForUpdate(ctx, tx, address)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	wallet.Balance += amount
	if err := s.walletRepo.UpdateBalance(ctx, tx, address, wallet.Balance); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.log.Info().Str("address", address).Int64("amount", amount).Msg("wallet topped up")
	return wallet, nil
}

// Balance returns the funding balance of an address. Unknown addresses hold
// zero.
func (s *WalletServiceImpl) Balance(ctx context.Context, address string) (int64, error) {
	if address == domain.ZeroAddress {
		return 0, apperror.ErrZeroAddress()
	}
	wallet, err := s.walletRepo.GetByAddress(ctx, address)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	if wallet == nil {
		return 0, nil
	}
	return wallet.Balance, nil
}
