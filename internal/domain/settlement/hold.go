package settlement

import (
	"time"

	"github.com/google/uuid"
)

// Hold blocks settlement creation for a vendor after a consistency violation.
// It stays in place until an operator reconciles the data and releases it.
type Hold struct {
	VendorID       uuid.UUID
	Reason         string
	TransactionIDs IDSet
	DetectedAt     time.Time
}

// NewHold creates a hold for the vendor
func NewHold(vendorID uuid.UUID, reason string, ids []uuid.UUID) *Hold {
	return &Hold{
		VendorID:       vendorID,
		Reason:         reason,
		TransactionIDs: IDSet(ids),
		DetectedAt:     time.Now(),
	}
}

// AsError converts the hold into the error returned to settlement requests
func (h *Hold) AsError() error {
	return NewConsistencyViolation("settlement creation is halted for this vendor: " + h.Reason)
}

// CheckInvariants inspects a vendor's active settlements and the candidate
// transactions of a new request. It returns a hold when a transaction is
// referenced by two active settlements, or when a transaction still marked
// pending is referenced by an active settlement. Nothing is repaired.
func CheckInvariants(vendorID uuid.UUID, active []Settlement, candidates []Transaction) *Hold {
	owner := make(map[uuid.UUID]uuid.UUID)
	var conflicts []uuid.UUID
	active = ActiveSettlements(active)
	for i := range active {
		for _, id := range active[i].ReferencedIDs() {
			if prev, ok := owner[id]; ok && prev != active[i].ID {
				conflicts = append(conflicts, id)
				continue
			}
			owner[id] = active[i].ID
		}
	}
	if len(conflicts) > 0 {
		return NewHold(vendorID, "transactions referenced by more than one active settlement", conflicts)
	}

	var unmarked []uuid.UUID
	for i := range candidates {
		if _, ok := owner[candidates[i].ID]; ok && candidates[i].IsClaimable() {
			unmarked = append(unmarked, candidates[i].ID)
		}
	}
	if len(unmarked) > 0 {
		return NewHold(vendorID, "transactions claimed by an active settlement are still marked pending", unmarked)
	}
	return nil
}
