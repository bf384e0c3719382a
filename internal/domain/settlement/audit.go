package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscrepancyType classifies a finding of the settlement audit
type DiscrepancyType string

const (
	// DiscrepancyAmountDrift means adjustments changed the ledger total after creation
	DiscrepancyAmountDrift DiscrepancyType = "amount_drift"
	// DiscrepancyMissingTransaction means a referenced transaction no longer exists
	DiscrepancyMissingTransaction DiscrepancyType = "missing_transaction"
	// DiscrepancyDoubleClaim means a transaction is referenced by two active settlements
	DiscrepancyDoubleClaim DiscrepancyType = "double_claim"
)

// Discrepancy is one audit finding
type Discrepancy struct {
	Type           DiscrepancyType `json:"type"`
	SettlementID   uuid.UUID       `json:"settlement_id"`
	TransactionID  *uuid.UUID      `json:"transaction_id,omitempty"`
	RecordedAmount decimal.Decimal `json:"recorded_amount"`
	LedgerAmount   decimal.Decimal `json:"ledger_amount"`
	Difference     decimal.Decimal `json:"difference"`
}

// AuditReport is the result of recomputing every settlement of a vendor
type AuditReport struct {
	VendorID           uuid.UUID     `json:"vendor_id"`
	SettlementsChecked int           `json:"settlements_checked"`
	Discrepancies      []Discrepancy `json:"discrepancies"`
}

// HasDoubleClaims reports whether the audit found an invariant violation
func (r *AuditReport) HasDoubleClaims() bool {
	for _, d := range r.Discrepancies {
		if d.Type == DiscrepancyDoubleClaim {
			return true
		}
	}
	return false
}

// DoubleClaimedIDs returns the transaction ids behind double-claim findings
func (r *AuditReport) DoubleClaimedIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, d := range r.Discrepancies {
		if d.Type == DiscrepancyDoubleClaim && d.TransactionID != nil {
			ids = append(ids, *d.TransactionID)
		}
	}
	return ids
}

// AuditSettlements recomputes the ledger total of every non-rejected
// settlement from the referenced transactions and reports drift beyond
// tolerance, references to unknown transactions, and double claims.
// Drift is only reported when every referenced transaction was found.
func AuditSettlements(
	vendorID uuid.UUID,
	settlements []Settlement,
	txByID map[uuid.UUID]Transaction,
	calc RevenueCalculator,
	tolerance decimal.Decimal,
) *AuditReport {
	report := &AuditReport{VendorID: vendorID, Discrepancies: []Discrepancy{}}
	claimedBy := make(map[uuid.UUID]uuid.UUID)

	for i := range settlements {
		s := &settlements[i]
		if s.Status == StatusRejected {
			continue
		}
		report.SettlementsChecked++

		ledger := decimal.Zero
		complete := true
		for _, id := range s.ReferencedIDs() {
			tx, ok := txByID[id]
			if !ok {
				complete = false
				missing := id
				report.Discrepancies = append(report.Discrepancies, Discrepancy{
					Type:           DiscrepancyMissingTransaction,
					SettlementID:   s.ID,
					TransactionID:  &missing,
					RecordedAmount: s.Amount,
				})
				continue
			}
			ledger = ledger.Add(calc.NetRevenue(&tx))

			if !s.IsActive() {
				continue
			}
			if other, dup := claimedBy[id]; dup && other != s.ID {
				claimed := id
				report.Discrepancies = append(report.Discrepancies, Discrepancy{
					Type:          DiscrepancyDoubleClaim,
					SettlementID:  s.ID,
					TransactionID: &claimed,
				})
				continue
			}
			claimedBy[id] = s.ID
		}

		if complete && !WithinTolerance(ledger, s.Amount, tolerance) {
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				Type:           DiscrepancyAmountDrift,
				SettlementID:   s.ID,
				RecordedAmount: s.Amount,
				LedgerAmount:   ledger,
				Difference:     ledger.Sub(s.Amount),
			})
		}
	}
	return report
}
