package persistence

import (
	"context"
	"errors"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/evmarket/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSettlementRepository implements settlement.SettlementRepository using GORM
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GormSettlementRepository) WithTx(tx *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: tx}
}

// FindByID finds a settlement by its ID
func (r *GormSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.Settlement, error) {
	var model models.SettlementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, settlement.ErrSettlementNotFound
		}
		return nil, translateError("find settlement", err)
	}
	return model.ToDomain(), nil
}

// FindByIDForVendor finds a settlement by ID within a vendor
func (r *GormSettlementRepository) FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*settlement.Settlement, error) {
	var model models.SettlementModel
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND id = ?", vendorID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, settlement.ErrSettlementNotFound
		}
		return nil, translateError("find settlement", err)
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the settlements with the given ids, skipping unknown ones
func (r *GormSettlementRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]settlement.Settlement, error) {
	if len(ids) == 0 {
		return []settlement.Settlement{}, nil
	}
	var out []settlement.Settlement
	for start := 0; start < len(ids); start += findByIDsChunk {
		end := min(start+findByIDsChunk, len(ids))
		chunk, err := r.findAll(r.db.WithContext(ctx).Where("id IN ?", ids[start:end]), "find settlements")
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// findByIDsChunk keeps IN lists well under the bind parameter limit
const findByIDsChunk = 1000

func (r *GormSettlementRepository) findAll(query *gorm.DB, op string) ([]settlement.Settlement, error) {
	var rows []models.SettlementModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(op, err)
	}
	out := make([]settlement.Settlement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// ListActive returns pending and processing settlements of a vendor
func (r *GormSettlementRepository) ListActive(ctx context.Context, vendorID uuid.UUID) ([]settlement.Settlement, error) {
	query := r.db.WithContext(ctx).
		Where("vendor_id = ? AND status IN ?", vendorID,
			[]settlement.Status{settlement.StatusPending, settlement.StatusProcessing}).
		Order("requested_at ASC")
	return r.findAll(query, "list active settlements")
}

// ListByVendor returns every settlement of a vendor, oldest first
func (r *GormSettlementRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]settlement.Settlement, error) {
	query := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("requested_at ASC")
	return r.findAll(query, "list settlements")
}

// List returns a page of settlements and the total count. Pages are newest
// first unless the filter names a whitelisted sort column.
func (r *GormSettlementRepository) List(ctx context.Context, vendorID uuid.UUID, filter settlement.SettlementFilter) ([]settlement.Settlement, int64, error) {
	page := filter.Filter.Normalized()
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SettlementModel{}).Where("vendor_id = ?", vendorID), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count settlements", err)
	}

	items, err := r.findAll(
		r.applyFilter(r.db.WithContext(ctx).Where("vendor_id = ?", vendorID), filter).
			Order(settlementOrder(page.OrderBy, page.OrderDir)).
			Offset(shared.Offset(page.Page, page.PageSize)).
			Limit(page.PageSize),
		"list settlements",
	)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormSettlementRepository) applyFilter(query *gorm.DB, filter settlement.SettlementFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RequestType != nil {
		query = query.Where("request_type = ?", *filter.RequestType)
	}
	if filter.From != nil {
		query = query.Where("period_end >= ?", settlement.CivilDate(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("period_start <= ?", settlement.CivilDate(*filter.To))
	}
	return query
}

// SumCompletedAmount sums the amounts of completed settlements
func (r *GormSettlementRepository) SumCompletedAmount(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.SettlementModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("vendor_id = ? AND status = ?", vendorID, settlement.StatusCompleted).
		Scan(&result).Error; err != nil {
		return decimal.Zero, translateError("sum completed settlements", err)
	}
	return result.Total, nil
}

// Create inserts a new settlement
func (r *GormSettlementRepository) Create(ctx context.Context, s *settlement.Settlement) error {
	model := models.SettlementModelFromDomain(s)
	return translateError("create settlement", r.db.WithContext(ctx).Create(model).Error)
}

// SaveWithLock saves a status transition; the stored version must be the one
// the transition started from
func (r *GormSettlementRepository) SaveWithLock(ctx context.Context, s *settlement.Settlement) error {
	model := models.SettlementModelFromDomain(s)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", s.ID, s.Version-1).
		Updates(model)
	if result.Error != nil {
		return translateError("save settlement", result.Error)
	}
	if result.RowsAffected == 0 {
		return settlement.ErrSettlementConcurrency
	}
	return nil
}

var _ settlement.SettlementRepository = (*GormSettlementRepository)(nil)
