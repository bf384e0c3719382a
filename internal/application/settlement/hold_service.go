package settlement

import (
	"context"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/evmarket/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoHold is returned when releasing a vendor that is not on hold
var ErrNoHold = shared.NewDomainError("NOT_FOUND", "Vendor has no settlement hold")

// HoldService lets operators inspect and lift consistency holds
type HoldService struct {
	uow   settlement.UnitOfWork
	holds settlement.HoldRepository
}

// NewHoldService creates a new HoldService
func NewHoldService(uow settlement.UnitOfWork, holds settlement.HoldRepository) *HoldService {
	return &HoldService{uow: uow, holds: holds}
}

// GetHold returns the vendor's hold, or ErrNoHold
func (s *HoldService) GetHold(ctx context.Context, vendorID uuid.UUID) (*settlement.Hold, error) {
	hold, err := s.holds.Find(ctx, vendorID)
	if err != nil {
		return nil, readError("find hold", err)
	}
	if hold == nil {
		return nil, ErrNoHold
	}
	return hold, nil
}

// ReleaseHold lifts the vendor's hold after manual reconciliation
func (s *HoldService) ReleaseHold(ctx context.Context, vendorID uuid.UUID, releasedBy string) error {
	err := s.uow.WithinVendorLock(ctx, vendorID, func(ctx context.Context, repos settlement.Repositories) error {
		released, err := repos.Holds.Release(ctx, vendorID)
		if err != nil {
			return err
		}
		if !released {
			return ErrNoHold
		}
		return recordEvents(ctx, repos, settlement.NewHoldReleasedEvent(vendorID, releasedBy))
	})
	if err != nil {
		return err
	}

	logger.L(ctx).Warn("Settlement hold released",
		zap.String("vendor_id", vendorID.String()),
		zap.String("released_by", releasedBy),
	)
	return nil
}
