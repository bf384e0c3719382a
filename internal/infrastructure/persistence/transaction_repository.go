package persistence

import (
	"context"
	"time"

	"github.com/evmarket/backend/internal/domain/settlement"
	"github.com/evmarket/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// revenueTimeExpr is the instant a transaction's revenue is booked at
const revenueTimeExpr = "COALESCE(completed_at, updated_at)"

// GormTransactionRepository implements settlement.TransactionRepository over
// the charging_sessions and food_orders tables
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GormTransactionRepository) WithTx(tx *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: tx}
}

func (r *GormTransactionRepository) table(ctx context.Context, kind settlement.TransactionKind) *gorm.DB {
	return r.db.WithContext(ctx).Table(models.TransactionTable(kind))
}

func (r *GormTransactionRepository) find(query *gorm.DB, kind settlement.TransactionKind, op string) ([]settlement.Transaction, error) {
	var rows []models.TransactionModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(op, err)
	}
	txs := make([]settlement.Transaction, len(rows))
	for i := range rows {
		txs[i] = rows[i].ToDomain(kind)
	}
	return txs, nil
}

// ListCompleted returns completed transactions whose revenue time lies in [from, to)
func (r *GormTransactionRepository) ListCompleted(ctx context.Context, vendorID uuid.UUID, kind settlement.TransactionKind, from, to time.Time) ([]settlement.Transaction, error) {
	query := r.table(ctx, kind).
		Where("vendor_id = ? AND status = ?", vendorID, settlement.TransactionStatusCompleted).
		Where(revenueTimeExpr+" >= ? AND "+revenueTimeExpr+" < ?", from.UTC(), to.UTC()).
		Order(revenueTimeExpr + " ASC")
	return r.find(query, kind, "list completed "+kind.String())
}

// ListAllCompleted returns every completed transaction of a kind for the vendor
func (r *GormTransactionRepository) ListAllCompleted(ctx context.Context, vendorID uuid.UUID, kind settlement.TransactionKind) ([]settlement.Transaction, error) {
	query := r.table(ctx, kind).
		Where("vendor_id = ? AND status = ?", vendorID, settlement.TransactionStatusCompleted).
		Order(revenueTimeExpr + " ASC")
	return r.find(query, kind, "list all completed "+kind.String())
}

// ListCreated returns transactions of any status created in [from, to)
func (r *GormTransactionRepository) ListCreated(ctx context.Context, vendorID uuid.UUID, kind settlement.TransactionKind, from, to time.Time) ([]settlement.Transaction, error) {
	query := r.table(ctx, kind).
		Where("vendor_id = ? AND created_at >= ? AND created_at < ?", vendorID, from.UTC(), to.UTC()).
		Order("created_at ASC")
	return r.find(query, kind, "list created "+kind.String())
}

// FindByIDs returns the vendor's transactions of a kind with the given ids
func (r *GormTransactionRepository) FindByIDs(ctx context.Context, vendorID uuid.UUID, kind settlement.TransactionKind, ids []uuid.UUID) ([]settlement.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := r.table(ctx, kind).Where("vendor_id = ? AND id IN ?", vendorID, ids)
	return r.find(query, kind, "find "+kind.String()+" by ids")
}

// MarkIncluded claims still-pending transactions for settlementID.
// updated_at is left alone: it is the revenue time of rows without completed_at.
func (r *GormTransactionRepository) MarkIncluded(ctx context.Context, kind settlement.TransactionKind, ids []uuid.UUID, settlementID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.table(ctx, kind).
		Where("id IN ? AND settlement_status = ?", ids, settlement.SettlementStatusPending).
		Updates(map[string]any{
			"settlement_status": settlement.SettlementStatusIncluded,
			"settlement_id":     settlementID,
			"version":           gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, translateError("mark "+kind.String()+" included", result.Error)
	}
	return result.RowsAffected, nil
}

// ReleaseSettlement returns transactions still claimed by settlementID to pending.
// settlement_id is kept as a back-reference to the rejected claim.
func (r *GormTransactionRepository) ReleaseSettlement(ctx context.Context, kind settlement.TransactionKind, settlementID uuid.UUID) (int64, error) {
	result := r.table(ctx, kind).
		Where("settlement_id = ? AND settlement_status = ?", settlementID, settlement.SettlementStatusIncluded).
		Updates(map[string]any{
			"settlement_status": settlement.SettlementStatusPending,
			"version":           gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, translateError("release "+kind.String(), result.Error)
	}
	return result.RowsAffected, nil
}

// Save creates or updates a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, tx *settlement.Transaction) error {
	if !tx.Kind.IsValid() {
		return settlement.NewValidationError("transaction kind must be charging or food")
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	now := time.Now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	if tx.UpdatedAt.IsZero() {
		tx.UpdatedAt = now
	}
	model := models.TransactionModelFromDomain(tx)
	return translateError("save "+tx.Kind.String(), r.table(ctx, tx.Kind).Save(model).Error)
}

var _ settlement.TransactionRepository = (*GormTransactionRepository)(nil)
