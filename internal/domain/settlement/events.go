package settlement

import (
	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeSettlementRequested   = "SettlementRequested"
	EventTypeSettlementProcessing  = "SettlementProcessing"
	EventTypeSettlementCompleted   = "SettlementCompleted"
	EventTypeSettlementRejected    = "SettlementRejected"
	EventTypeConsistencyViolation  = "SettlementConsistencyViolation"
	EventTypeSettlementHoldRelease = "SettlementHoldReleased"

	aggregateTypeSettlement = "Settlement"
	aggregateTypeVendor     = "Vendor"
)

// SettlementRequestedEvent is raised when a settlement request is accepted
type SettlementRequestedEvent struct {
	shared.BaseDomainEvent
	Amount           decimal.Decimal `json:"amount"`
	PeriodStart      string          `json:"period_start"`
	PeriodEnd        string          `json:"period_end"`
	RequestType      RequestType     `json:"request_type"`
	TransactionCount int             `json:"transaction_count"`
}

// NewSettlementRequestedEvent creates a new SettlementRequestedEvent
func NewSettlementRequestedEvent(s *Settlement) *SettlementRequestedEvent {
	return &SettlementRequestedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeSettlementRequested, aggregateTypeSettlement, s.ID, s.VendorID),
		Amount:           s.Amount,
		PeriodStart:      s.Period.Start.Format(DateLayout),
		PeriodEnd:        s.Period.End.Format(DateLayout),
		RequestType:      s.RequestType,
		TransactionCount: len(s.TransactionIDs) + len(s.OrderIDs),
	}
}

// SettlementProcessingEvent is raised when payout processing starts
type SettlementProcessingEvent struct {
	shared.BaseDomainEvent
	Amount decimal.Decimal `json:"amount"`
}

// NewSettlementProcessingEvent creates a new SettlementProcessingEvent
func NewSettlementProcessingEvent(s *Settlement) *SettlementProcessingEvent {
	return &SettlementProcessingEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementProcessing, aggregateTypeSettlement, s.ID, s.VendorID),
		Amount:          s.Amount,
	}
}

// SettlementCompletedEvent is raised when the payout was made
type SettlementCompletedEvent struct {
	shared.BaseDomainEvent
	Amount          decimal.Decimal `json:"amount"`
	PayoutReference string          `json:"payout_reference"`
}

// NewSettlementCompletedEvent creates a new SettlementCompletedEvent
func NewSettlementCompletedEvent(s *Settlement) *SettlementCompletedEvent {
	return &SettlementCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementCompleted, aggregateTypeSettlement, s.ID, s.VendorID),
		Amount:          s.Amount,
		PayoutReference: s.PayoutReference,
	}
}

// SettlementRejectedEvent is raised when the payout was refused
type SettlementRejectedEvent struct {
	shared.BaseDomainEvent
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// NewSettlementRejectedEvent creates a new SettlementRejectedEvent
func NewSettlementRejectedEvent(s *Settlement) *SettlementRejectedEvent {
	return &SettlementRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementRejected, aggregateTypeSettlement, s.ID, s.VendorID),
		Amount:          s.Amount,
		Reason:          s.RejectionReason,
	}
}

// ConsistencyViolationEvent is raised when settlement creation for a vendor is halted
type ConsistencyViolationEvent struct {
	shared.BaseDomainEvent
	Reason         string      `json:"reason"`
	TransactionIDs []uuid.UUID `json:"transaction_ids"`
}

// NewConsistencyViolationEvent creates a new ConsistencyViolationEvent
func NewConsistencyViolationEvent(h *Hold) *ConsistencyViolationEvent {
	return &ConsistencyViolationEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConsistencyViolation, aggregateTypeVendor, h.VendorID, h.VendorID),
		Reason:          h.Reason,
		TransactionIDs:  h.TransactionIDs,
	}
}

// HoldReleasedEvent is raised when an operator lifts a consistency hold
type HoldReleasedEvent struct {
	shared.BaseDomainEvent
	ReleasedBy string `json:"released_by"`
}

// NewHoldReleasedEvent creates a new HoldReleasedEvent
func NewHoldReleasedEvent(vendorID uuid.UUID, releasedBy string) *HoldReleasedEvent {
	return &HoldReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettlementHoldRelease, aggregateTypeVendor, vendorID, vendorID),
		ReleasedBy:      releasedBy,
	}
}
