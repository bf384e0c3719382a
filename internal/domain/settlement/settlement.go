package settlement

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the payout status of a settlement
type Status string

const (
	// StatusPending is a freshly requested settlement awaiting payout processing
	StatusPending Status = "pending"
	// StatusProcessing means the payout collaborator picked the settlement up
	StatusProcessing Status = "processing"
	// StatusCompleted means the payout was made
	StatusCompleted Status = "completed"
	// StatusRejected means the payout was refused
	StatusRejected Status = "rejected"
)

// IsValid checks if the status is a valid settlement Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsActive returns true while the settlement still claims its transactions
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusProcessing
}

// CanTransitionTo checks the payout state machine
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusRejected
	case StatusProcessing:
		return next == StatusCompleted || next == StatusRejected
	}
	return false
}

// RequestType is the urgency of a settlement request
type RequestType string

const (
	RequestTypeScheduled RequestType = "scheduled"
	RequestTypeUrgent    RequestType = "urgent"
)

// IsValid checks if the request type is valid
func (t RequestType) IsValid() bool {
	return t == RequestTypeScheduled || t == RequestTypeUrgent
}

// BankDetails is the vendor payout account.
// Settlements keep an immutable snapshot taken at request time.
type BankDetails struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	RoutingCode   string `json:"routing_code,omitempty"`
}

// IsComplete returns true if a payout can be addressed to the account
func (b *BankDetails) IsComplete() bool {
	return b != nil &&
		strings.TrimSpace(b.AccountName) != "" &&
		strings.TrimSpace(b.AccountNumber) != "" &&
		strings.TrimSpace(b.BankName) != ""
}

// MaskedAccountNumber hides all but the last four digits
func (b BankDetails) MaskedAccountNumber() string {
	n := len(b.AccountNumber)
	if n <= 4 {
		return b.AccountNumber
	}
	return strings.Repeat("*", n-4) + b.AccountNumber[n-4:]
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (b BankDetails) Value() (driver.Value, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (b *BankDetails) Scan(value any) error {
	if value == nil {
		*b = BankDetails{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	}
	return errors.New("failed to scan BankDetails: unsupported type")
}

// IDSet is a list of transaction ids stored as JSONB
type IDSet []uuid.UUID

// Contains reports whether id is in the set
func (s IDSet) Contains(id uuid.UUID) bool {
	return slices.Contains(s, id)
}

// Value implements driver.Valuer interface for GORM to store as JSONB
func (s IDSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (s *IDSet) Scan(value any) error {
	if value == nil {
		*s = IDSet{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to scan IDSet: unsupported type")
	}
	if len(data) == 0 {
		*s = IDSet{}
		return nil
	}
	return json.Unmarshal(data, s)
}

// Settlement is a vendor payout request covering a set of completed transactions.
// Apart from status transitions it is immutable, and it is never deleted.
type Settlement struct {
	shared.VendorAggregateRoot

	Amount         decimal.Decimal
	Status         Status
	Period         Period
	TransactionIDs IDSet // charging sessions
	OrderIDs       IDSet // food orders
	RequestedAt    time.Time
	RequestType    RequestType
	Reason         string
	BankDetails    BankDetails

	RejectionReason string
	PayoutReference string
	ProcessedAt     *time.Time
	CompletedAt     *time.Time
	RejectedAt      *time.Time
}

// NewSettlement creates a pending settlement claiming txs.
// amount must already be verified against the transactions by the caller.
func NewSettlement(
	vendorID uuid.UUID,
	period Period,
	amount decimal.Decimal,
	requestType RequestType,
	reason string,
	bank BankDetails,
	txs []Transaction,
) (*Settlement, error) {
	if vendorID == uuid.Nil {
		return nil, NewValidationError("vendor id is required")
	}
	if len(txs) == 0 {
		return nil, NewNoEligibleTransactionsError(period)
	}
	if requestType == "" {
		requestType = RequestTypeScheduled
	}
	if !requestType.IsValid() {
		return nil, NewValidationError("request type must be scheduled or urgent")
	}
	if !bank.IsComplete() {
		return nil, NewMissingBankDetailsError(amount)
	}

	s := &Settlement{
		VendorAggregateRoot: shared.NewVendorAggregateRoot(vendorID),
		Amount:              amount,
		Status:              StatusPending,
		Period:              period,
		TransactionIDs:      IDSet{},
		OrderIDs:            IDSet{},
		RequestedAt:         time.Now(),
		RequestType:         requestType,
		Reason:              reason,
		BankDetails:         bank,
	}
	for i := range txs {
		if txs[i].VendorID != vendorID {
			return nil, NewConsistencyViolation("transaction " + txs[i].ID.String() + " belongs to another vendor")
		}
		if txs[i].Kind == KindFood {
			s.OrderIDs = append(s.OrderIDs, txs[i].ID)
		} else {
			s.TransactionIDs = append(s.TransactionIDs, txs[i].ID)
		}
	}

	s.AddDomainEvent(NewSettlementRequestedEvent(s))
	return s, nil
}

// ReferencedIDs returns every claimed id, charging sessions first
func (s *Settlement) ReferencedIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.TransactionIDs)+len(s.OrderIDs))
	ids = append(ids, s.TransactionIDs...)
	return append(ids, s.OrderIDs...)
}

// IDsOfKind returns the claimed ids of one transaction kind
func (s *Settlement) IDsOfKind(kind TransactionKind) []uuid.UUID {
	if kind == KindFood {
		return s.OrderIDs
	}
	return s.TransactionIDs
}

// IsActive returns true while the settlement claims its transactions
func (s *Settlement) IsActive() bool {
	return s.Status.IsActive()
}

// ConflictsWith reports whether an active settlement overlaps period
func (s *Settlement) ConflictsWith(period Period) bool {
	return s.IsActive() && s.Period.Overlaps(period)
}

// MarkProcessing moves the settlement into payout processing
func (s *Settlement) MarkProcessing() error {
	if err := s.transition(StatusProcessing); err != nil {
		return err
	}
	now := time.Now()
	s.ProcessedAt = &now
	s.AddDomainEvent(NewSettlementProcessingEvent(s))
	return nil
}

// Complete records a successful payout
func (s *Settlement) Complete(payoutReference string) error {
	if err := s.transition(StatusCompleted); err != nil {
		return err
	}
	now := time.Now()
	s.CompletedAt = &now
	s.PayoutReference = payoutReference
	s.AddDomainEvent(NewSettlementCompletedEvent(s))
	return nil
}

// Reject records a refused payout
func (s *Settlement) Reject(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return NewValidationError("rejection reason is required")
	}
	if err := s.transition(StatusRejected); err != nil {
		return err
	}
	now := time.Now()
	s.RejectedAt = &now
	s.RejectionReason = reason
	s.AddDomainEvent(NewSettlementRejectedEvent(s))
	return nil
}

func (s *Settlement) transition(next Status) error {
	if !s.Status.CanTransitionTo(next) {
		return shared.NewDomainError(ErrIllegalTransition.Code,
			"cannot move settlement from "+s.Status.String()+" to "+next.String())
	}
	s.Status = next
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}
