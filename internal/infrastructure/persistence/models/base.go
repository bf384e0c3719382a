package models

import (
	"time"

	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// VendorAggregateModel provides persistence fields for vendor-scoped aggregate roots,
// with version for optimistic locking.
type VendorAggregateModel struct {
	BaseModel
	VendorID uuid.UUID `gorm:"type:uuid;not null;index"`
	Version  int       `gorm:"not null;default:1"`
}

// FromDomainVendorAggregateRoot populates the model from a domain VendorAggregateRoot
func (m *VendorAggregateModel) FromDomainVendorAggregateRoot(a shared.VendorAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.VendorID = a.VendorID
	m.Version = a.Version
}

// ToDomainVendorAggregateRoot rebuilds the domain VendorAggregateRoot
func (m *VendorAggregateModel) ToDomainVendorAggregateRoot() shared.VendorAggregateRoot {
	return shared.VendorAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		VendorID: m.VendorID,
	}
}
