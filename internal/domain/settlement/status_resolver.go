package settlement

import "github.com/google/uuid"

// StatusResolver derives the current claim state of a transaction from the
// vendor's settlements instead of trusting the stored field, which is only
// written eagerly when a settlement is created.
type StatusResolver struct {
	activeRefs map[uuid.UUID]struct{}
	statusByID map[uuid.UUID]Status
}

// NewStatusResolver indexes the vendor's settlements.
// Passing only active settlements is enough to detect claims; terminal
// settlements are needed to tell settled from rejected.
func NewStatusResolver(settlements []Settlement) *StatusResolver {
	r := &StatusResolver{
		activeRefs: make(map[uuid.UUID]struct{}),
		statusByID: make(map[uuid.UUID]Status, len(settlements)),
	}
	for i := range settlements {
		s := &settlements[i]
		r.statusByID[s.ID] = s.Status
		if !s.IsActive() {
			continue
		}
		for _, id := range s.ReferencedIDs() {
			r.activeRefs[id] = struct{}{}
		}
	}
	return r
}

// DisplayStatus returns pending, included_in_settlement or settled
func (r *StatusResolver) DisplayStatus(tx *Transaction) SettlementStatus {
	switch tx.RawSettlementStatus() {
	case SettlementStatusSettled:
		return SettlementStatusSettled
	case SettlementStatusIncluded:
		if _, ok := r.activeRefs[tx.ID]; ok {
			return SettlementStatusIncluded
		}
		if tx.SettlementID != nil && r.statusByID[*tx.SettlementID] == StatusCompleted {
			return SettlementStatusSettled
		}
		return SettlementStatusPending
	default:
		return SettlementStatusPending
	}
}

// ActiveSettlements filters settlements down to pending and processing ones
func ActiveSettlements(settlements []Settlement) []Settlement {
	active := make([]Settlement, 0, len(settlements))
	for i := range settlements {
		if settlements[i].IsActive() {
			active = append(active, settlements[i])
		}
	}
	return active
}
