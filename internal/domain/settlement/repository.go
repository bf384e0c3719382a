package settlement

import (
	"context"
	"time"

	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementFilter defines filtering options for settlement history queries
type SettlementFilter struct {
	shared.Filter
	Status      *Status      // Filter by payout status
	RequestType *RequestType // Filter by request type
	From        *time.Time   // Settlements whose period ends on or after this date
	To          *time.Time   // Settlements whose period starts on or before this date
}

// TransactionRepository reads charging sessions and food orders and owns
// their settlement fields. Instant ranges are half-open [from, to).
type TransactionRepository interface {
	// ListCompleted returns completed transactions of a kind whose revenue time
	// (completed_at, falling back to updated_at) lies in [from, to)
	ListCompleted(ctx context.Context, vendorID uuid.UUID, kind TransactionKind, from, to time.Time) ([]Transaction, error)

	// ListAllCompleted returns every completed transaction of a kind for the vendor
	ListAllCompleted(ctx context.Context, vendorID uuid.UUID, kind TransactionKind) ([]Transaction, error)

	// ListCreated returns transactions of any status created in [from, to)
	ListCreated(ctx context.Context, vendorID uuid.UUID, kind TransactionKind, from, to time.Time) ([]Transaction, error)

	// FindByIDs returns the vendor's transactions of a kind with the given ids
	FindByIDs(ctx context.Context, vendorID uuid.UUID, kind TransactionKind, ids []uuid.UUID) ([]Transaction, error)

	// MarkIncluded sets settlement_status=included_in_settlement and settlement_id
	// on still-pending transactions. Returns the number of rows changed.
	MarkIncluded(ctx context.Context, kind TransactionKind, ids []uuid.UUID, settlementID uuid.UUID) (int64, error)

	// ReleaseSettlement returns transactions claimed by the settlement to pending
	ReleaseSettlement(ctx context.Context, kind TransactionKind, settlementID uuid.UUID) (int64, error)

	// Save creates or updates a transaction
	Save(ctx context.Context, tx *Transaction) error
}

// SettlementRepository persists settlements
type SettlementRepository interface {
	// FindByID finds a settlement by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Settlement, error)

	// FindByIDForVendor finds a settlement by ID within a vendor
	FindByIDForVendor(ctx context.Context, vendorID, id uuid.UUID) (*Settlement, error)

	// FindByIDs returns the settlements with the given ids across vendors.
	// Unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Settlement, error)

	// ListActive returns pending and processing settlements of a vendor
	ListActive(ctx context.Context, vendorID uuid.UUID) ([]Settlement, error)

	// ListByVendor returns every settlement of a vendor
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]Settlement, error)

	// List returns a page of settlements and the total count
	List(ctx context.Context, vendorID uuid.UUID, filter SettlementFilter) ([]Settlement, int64, error)

	// SumCompletedAmount sums the amounts of completed settlements
	SumCompletedAmount(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error)

	// Create inserts a new settlement
	Create(ctx context.Context, s *Settlement) error

	// SaveWithLock saves a status transition with optimistic locking
	SaveWithLock(ctx context.Context, s *Settlement) error
}

// HoldRepository persists consistency holds
type HoldRepository interface {
	// Find returns the vendor's hold, or nil when settlement creation is allowed
	Find(ctx context.Context, vendorID uuid.UUID) (*Hold, error)

	// Place records a hold, keeping the first one if a hold already exists
	Place(ctx context.Context, hold *Hold) error

	// Release removes the hold. Returns false if there was none.
	Release(ctx context.Context, vendorID uuid.UUID) (bool, error)
}

// VendorProfile is the vendor data settlement needs
type VendorProfile struct {
	ID          uuid.UUID
	Name        string
	Timezone    string
	BankDetails *BankDetails
}

// Location returns the vendor reporting timezone, or fallback when unset or unknown
func (v *VendorProfile) Location(fallback *time.Location) *time.Location {
	if v == nil || v.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// VendorRepository reads vendor profiles and payout accounts
type VendorRepository interface {
	// FindProfile returns the vendor profile, or nil if the vendor is unknown
	FindProfile(ctx context.Context, vendorID uuid.UUID) (*VendorProfile, error)
}

// Repositories groups the repositories bound to one database transaction
type Repositories struct {
	Transactions TransactionRepository
	Settlements  SettlementRepository
	Holds        HoldRepository
	Events       shared.EventRecorder
}

// UnitOfWork runs settlement writes atomically
type UnitOfWork interface {
	// WithinVendorLock runs fn in a serializable transaction that holds the
	// vendor's settlement lock. Returning an error rolls everything back.
	WithinVendorLock(ctx context.Context, vendorID uuid.UUID, fn func(ctx context.Context, repos Repositories) error) error
}
