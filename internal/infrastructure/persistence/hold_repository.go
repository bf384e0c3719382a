package persistence

import (
	"context"
	"errors"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormHoldRepository implements settlement.HoldRepository using GORM
type GormHoldRepository struct {
	db *gorm.DB
}

// NewGormHoldRepository creates a new GormHoldRepository
func NewGormHoldRepository(db *gorm.DB) *GormHoldRepository {
	return &GormHoldRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GormHoldRepository) WithTx(tx *gorm.DB) *GormHoldRepository {
	return &GormHoldRepository{db: tx}
}

// Find returns the vendor's hold, or nil if there is none
func (r *GormHoldRepository) Find(ctx context.Context, vendorID uuid.UUID) (*settlement.Hold, error) {
	var model models.SettlementHoldModel
	if err := r.db.WithContext(ctx).First(&model, "vendor_id = ?", vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError("find settlement hold", err)
	}
	return model.ToDomain(), nil
}

// Place records a hold. An existing hold is kept, so the first detection wins.
func (r *GormHoldRepository) Place(ctx context.Context, hold *settlement.Hold) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vendor_id"}},
			DoNothing: true,
		}).
		Create(models.SettlementHoldModelFromDomain(hold)).Error
	return translateError("place settlement hold", err)
}

// Release removes the vendor's hold and reports whether one existed
func (r *GormHoldRepository) Release(ctx context.Context, vendorID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.SettlementHoldModel{}, "vendor_id = ?", vendorID)
	if result.Error != nil {
		return false, translateError("release settlement hold", result.Error)
	}
	return result.RowsAffected > 0, nil
}

var _ settlement.HoldRepository = (*GormHoldRepository)(nil)
