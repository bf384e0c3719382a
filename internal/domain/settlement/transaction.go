package settlement

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes the two revenue-bearing transaction types
type TransactionKind string

const (
	// KindCharging is an EV charging session
	KindCharging TransactionKind = "charging"
	// KindFood is an on-site restaurant order
	KindFood TransactionKind = "food"
)

// IsValid checks if the kind is a known transaction kind
func (k TransactionKind) IsValid() bool {
	return k == KindCharging || k == KindFood
}

// String returns the string representation of TransactionKind
func (k TransactionKind) String() string {
	return string(k)
}

// AllKinds lists every transaction kind in reporting order
func AllKinds() []TransactionKind {
	return []TransactionKind{KindCharging, KindFood}
}

// TransactionStatus is the booking/order lifecycle status.
// Only completed transactions bear revenue.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusActive    TransactionStatus = "active"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// IsValid checks if the status is a valid TransactionStatus
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusConfirmed, TransactionStatusActive,
		TransactionStatusCompleted, TransactionStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// PaymentStatus tracks whether the end customer has paid
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// SettlementStatus is the claim state of a transaction
type SettlementStatus string

const (
	// SettlementStatusPending means no active settlement claims the transaction
	SettlementStatusPending SettlementStatus = "pending"
	// SettlementStatusIncluded means a pending or processing settlement claims the transaction
	SettlementStatusIncluded SettlementStatus = "included_in_settlement"
	// SettlementStatusSettled means the claiming settlement has been paid out
	SettlementStatusSettled SettlementStatus = "settled"
)

// IsValid checks if the status is a valid SettlementStatus
func (s SettlementStatus) IsValid() bool {
	switch s {
	case SettlementStatusPending, SettlementStatusIncluded, SettlementStatusSettled:
		return true
	}
	return false
}

// String returns the string representation of SettlementStatus
func (s SettlementStatus) String() string {
	return string(s)
}

// AdjustmentType is the direction of a payment adjustment
type AdjustmentType string

const (
	AdjustmentTypeAdditionalCharge AdjustmentType = "additional_charge"
	AdjustmentTypeRefund           AdjustmentType = "refund"
)

// AdjustmentStatus is the processing state of a payment adjustment
type AdjustmentStatus string

const (
	AdjustmentStatusPending   AdjustmentStatus = "pending"
	AdjustmentStatusProcessed AdjustmentStatus = "processed"
	AdjustmentStatusRejected  AdjustmentStatus = "rejected"
)

// PaymentAdjustment is an after-the-fact additional charge or refund on a transaction
type PaymentAdjustment struct {
	Type       AdjustmentType   `json:"type"`
	Amount     decimal.Decimal  `json:"amount"`
	Status     AdjustmentStatus `json:"status"`
	Reason     string           `json:"reason,omitempty"`
	AdjustedBy string           `json:"adjusted_by,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// IsProcessed returns true if the adjustment affects net revenue
func (a PaymentAdjustment) IsProcessed() bool {
	return a.Status == AdjustmentStatusProcessed
}

// Validate checks the adjustment is well formed
func (a PaymentAdjustment) Validate() error {
	if a.Type != AdjustmentTypeAdditionalCharge && a.Type != AdjustmentTypeRefund {
		return NewValidationError("adjustment type must be additional_charge or refund")
	}
	switch a.Status {
	case AdjustmentStatusPending, AdjustmentStatusProcessed, AdjustmentStatusRejected:
	default:
		return NewValidationError("adjustment status must be pending, processed or rejected")
	}
	if a.Amount.IsNegative() {
		return NewValidationError("adjustment amount cannot be negative")
	}
	return nil
}

// PaymentAdjustments is an ordered adjustment history stored as JSONB
type PaymentAdjustments []PaymentAdjustment

// Value implements driver.Valuer interface for GORM to store as JSONB
func (p PaymentAdjustments) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (p *PaymentAdjustments) Scan(value any) error {
	if value == nil {
		*p = PaymentAdjustments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentAdjustments: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentAdjustments{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// Transaction is a charging session or food order as seen by settlement.
// Bookings and orders are created and progressed elsewhere; this context
// only reads them and owns the SettlementStatus/SettlementID pair.
type Transaction struct {
	ID               uuid.UUID
	VendorID         uuid.UUID
	Kind             TransactionKind
	Status           TransactionStatus
	PaymentStatus    PaymentStatus
	GrossAmount      decimal.Decimal
	MerchantAmount   *decimal.Decimal
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	SettlementStatus SettlementStatus
	SettlementID     *uuid.UUID
	Adjustments      PaymentAdjustments
}

// RevenueTime is the instant used to bucket the transaction into a day:
// completion time, falling back to the last update.
func (t *Transaction) RevenueTime() time.Time {
	if t.CompletedAt != nil && !t.CompletedAt.IsZero() {
		return *t.CompletedAt
	}
	return t.UpdatedAt
}

// IsCompleted returns true if the transaction bears revenue
func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionStatusCompleted
}

// IsEstimatedRevenue returns true for paid transactions that have not completed yet
func (t *Transaction) IsEstimatedRevenue() bool {
	if t.PaymentStatus != PaymentStatusPaid {
		return false
	}
	return t.Status != TransactionStatusCompleted && t.Status != TransactionStatusCancelled
}

// RawSettlementStatus returns the stored claim state, treating unset as pending
func (t *Transaction) RawSettlementStatus() SettlementStatus {
	if t.SettlementStatus == "" {
		return SettlementStatusPending
	}
	return t.SettlementStatus
}

// IsClaimable returns true if a new settlement may include the transaction
func (t *Transaction) IsClaimable() bool {
	return t.IsCompleted() && t.RawSettlementStatus() == SettlementStatusPending
}

