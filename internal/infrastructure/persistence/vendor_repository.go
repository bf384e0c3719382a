package persistence

import (
	"context"
	"errors"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVendorRepository reads vendor profiles using GORM
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// FindProfile returns the vendor profile, or nil if the vendor is unknown
func (r *GormVendorRepository) FindProfile(ctx context.Context, vendorID uuid.UUID) (*settlement.VendorProfile, error) {
	var model models.VendorModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError("find vendor", err)
	}
	return model.ToDomain(), nil
}

// ListIDs returns every vendor id in a stable order
func (r *GormVendorRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.VendorModel{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, translateError("list vendors", err)
	}
	return ids, nil
}

// Save creates or updates a vendor profile
func (r *GormVendorRepository) Save(ctx context.Context, profile *settlement.VendorProfile) error {
	return translateError("save vendor", r.db.WithContext(ctx).Save(models.VendorModelFromDomain(profile)).Error)
}

var _ settlement.VendorRepository = (*GormVendorRepository)(nil)
