package service

import (
	"context"
	"fmt"

	"card-exchange/internal/core/domain"
	"card-exchange/internal/core/ports"
	"card-exchange/pkg/apperror"

	"github.com/rs/zerolog"
)

// AccessServiceImpl implements ports.AccessService over the role table.
// All role-gated components consume this one check path instead of
// duplicating modifiers.
type AccessServiceImpl struct {
	roleRepo   ports.RoleRepository
	transactor ports.DBTransactor
	events     ports.EventPublisher
	log        zerolog.Logger
}

// NewAccessService creates a new AccessServiceImpl.
func NewAccessService(
	roleRepo ports.RoleRepository,
	transactor ports.DBTransactor,
	events ports.EventPublisher,
	log zerolog.Logger,
) *AccessServiceImpl {
	return &AccessServiceImpl{
		roleRepo:   roleRepo,
		transactor: transactor,
		events:     events,
		log:        log,
	}
}

// Roles returns the current role-holders.
func (s *AccessServiceImpl) Roles(ctx context.Context) (*domain.RoleSet, error) {
	roles, err := s.roleRepo.Get(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load roles: %w", err))
	}
	if roles == nil {
		return nil, apperror.ErrNotFound("role set")
	}
	return roles, nil
}

// RequireCEO fails with an access error unless caller is the CEO.
func (s *AccessServiceImpl) RequireCEO(ctx context.Context, caller string) error {
	roles, err := s.Roles(ctx)
	if err != nil {
		return err
	}
	if caller == domain.ZeroAddress || caller != roles.CEO {
		return apperror.ErrOnlyCEO()
	}
	return nil
}

// RequireCFO fails with an access error unless caller is the CFO.
func (s *AccessServiceImpl) RequireCFO(ctx context.Context, caller string) error {
	roles, err := s.Roles(ctx)
	if err != nil {
		return err
	}
	if caller == domain.ZeroAddress || caller != roles.CFO {
		return apperror.ErrOnlyCFO()
	}
	return nil
}

// RequireCOO fails with an access error unless caller is the COO.
func (s *AccessServiceImpl) RequireCOO(ctx context.Context, caller string) error {
	roles, err := s.Roles(ctx)
	if err != nil {
		return err
	}
	if caller == domain.ZeroAddress || caller != roles.COO {
		return apperror.ErrOnlyCOO()
	}
	return nil
}

// RequireCLevel fails unless caller holds any of the CFO/CEO/COO roles.
func (s *AccessServiceImpl) RequireCLevel(ctx context.Context, caller string) error {
	roles, err := s.Roles(ctx)
	if err != nil {
		return err
	}
	if !roles.IsCLevel(caller) {
		return apperror.ErrOnlyCLevel()
	}
	return nil
}

// RequireOwner fails unless caller holds the pause-owner capability.
func (s *AccessServiceImpl) RequireOwner(ctx context.Context, caller string) error {
	roles, err := s.Roles(ctx)
	if err != nil {
		return err
	}
	if caller == domain.ZeroAddress || caller != roles.Owner {
		return apperror.ErrOnlyOwner()
	}
	return nil
}

// SetCEO reassigns the CEO role. CEO-only; the new address must be non-empty.
func (s *AccessServiceImpl) SetCEO(ctx context.Context, caller, newAddr string) error {
	return s.setRole(ctx, caller, "ceo", newAddr, func(r *domain.RoleSet) { r.CEO = newAddr })
}

// SetCFO reassigns the CFO role. CEO-only.
func (s *AccessServiceImpl) SetCFO(ctx context.Context, caller, newAddr string) error {
	return s.setRole(ctx, caller, "cfo", newAddr, func(r *domain.RoleSet) { r.CFO = newAddr })
}

// SetCOO reassigns the COO role. CEO-only.
func (s *AccessServiceImpl) SetCOO(ctx context.Context, caller, newAddr string) error {
	return s.setRole(ctx, caller, "coo", newAddr, func(r *domain.RoleSet) { r.COO = newAddr })
}

func (s *AccessServiceImpl) setRole(ctx context.Context, caller, role, newAddr string, apply func(*domain.RoleSet)) error {
	if newAddr == domain.ZeroAddress {
		return apperror.ErrZeroAddress()
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	roles, err := s.roleRepo.GetForUpdate(ctx, tx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock roles: %w", err))
	}
	if roles == nil {
		return apperror.ErrNotFound("role set")
	}
	if caller == domain.ZeroAddress || caller != roles.CEO {
		return apperror.ErrOnlyCEO()
	}

	apply(roles)
	if err := s.roleRepo.Update(ctx, tx, roles); err != nil {
		return apperror.InternalError(fmt.Errorf("update roles: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if err := s.events.Publish(ctx, domain.NewRoleChanged(role, newAddr)); err != nil {
		s.log.Warn().Err(err).Str("role", role).Msg("failed to publish role change event")
	}

	s.log.Info().Str("role", role).Str("address", newAddr).Msg("role reassigned")
	return nil
}
