package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutLine is one row of a bank payout statement
type PayoutLine struct {
	Line            int             `json:"line"`
	SettlementID    uuid.UUID       `json:"settlement_id"`
	PayoutReference string          `json:"payout_reference"`
	Amount          decimal.Decimal `json:"amount"`
	PaidAt          time.Time       `json:"paid_at"`
}

// PayoutFindingType classifies a statement line that does not match its settlement
type PayoutFindingType string

const (
	// PayoutUnknownSettlement means the statement names a settlement that does not exist
	PayoutUnknownSettlement PayoutFindingType = "unknown_settlement"
	// PayoutNotCompleted means money left the bank for a settlement not marked completed
	PayoutNotCompleted PayoutFindingType = "not_completed"
	// PayoutAmountMismatch means the paid amount differs from the settlement amount
	PayoutAmountMismatch PayoutFindingType = "amount_mismatch"
	// PayoutReferenceMismatch means the bank reference differs from the recorded one
	PayoutReferenceMismatch PayoutFindingType = "reference_mismatch"
	// PayoutDuplicate means the settlement was paid by more than one statement line
	PayoutDuplicate PayoutFindingType = "duplicate_payout"
)

// PayoutFinding is one mismatch between the statement and the settlement ledger
type PayoutFinding struct {
	Type             PayoutFindingType `json:"type"`
	Line             int               `json:"line"`
	SettlementID     uuid.UUID         `json:"settlement_id"`
	VendorID         *uuid.UUID        `json:"vendor_id,omitempty"`
	Status           Status            `json:"status,omitempty"`
	StatementAmount  decimal.Decimal   `json:"statement_amount"`
	SettlementAmount *decimal.Decimal  `json:"settlement_amount,omitempty"`
	StatementRef     string            `json:"statement_reference"`
	RecordedRef      string            `json:"recorded_reference,omitempty"`
}

// PayoutReport is the result of matching a statement against settlements
type PayoutReport struct {
	LinesChecked int             `json:"lines_checked"`
	Matched      int             `json:"matched"`
	PaidTotal    decimal.Decimal `json:"paid_total"`
	Findings     []PayoutFinding `json:"findings"`
}

// MatchPayouts compares statement lines with the settlements they name.
// byID holds every settlement referenced by lines that exists. A line matches
// when its settlement is completed, the amounts agree within tolerance and the
// references agree. A settlement without a recorded reference accepts any.
func MatchPayouts(lines []PayoutLine, byID map[uuid.UUID]*Settlement, tolerance decimal.Decimal) *PayoutReport {
	report := &PayoutReport{
		LinesChecked: len(lines),
		PaidTotal:    decimal.Zero,
		Findings:     []PayoutFinding{},
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))

	for _, line := range lines {
		report.PaidTotal = report.PaidTotal.Add(line.Amount)
		finding := PayoutFinding{
			Line:            line.Line,
			SettlementID:    line.SettlementID,
			StatementAmount: line.Amount,
			StatementRef:    line.PayoutReference,
		}

		s, ok := byID[line.SettlementID]
		if !ok {
			finding.Type = PayoutUnknownSettlement
			report.Findings = append(report.Findings, finding)
			continue
		}
		vendorID, amount := s.VendorID, s.Amount
		finding.VendorID = &vendorID
		finding.Status = s.Status
		finding.SettlementAmount = &amount
		finding.RecordedRef = s.PayoutReference

		if _, dup := seen[line.SettlementID]; dup {
			finding.Type = PayoutDuplicate
			report.Findings = append(report.Findings, finding)
			continue
		}
		seen[line.SettlementID] = struct{}{}

		switch {
		case s.Status != StatusCompleted:
			finding.Type = PayoutNotCompleted
		case line.Amount.Sub(s.Amount).Abs().GreaterThan(tolerance):
			finding.Type = PayoutAmountMismatch
		case s.PayoutReference != "" && s.PayoutReference != line.PayoutReference:
			finding.Type = PayoutReferenceMismatch
		default:
			report.Matched++
			continue
		}
		report.Findings = append(report.Findings, finding)
	}
	return report
}

// ReferencedSettlementIDs returns the distinct settlement ids named by lines
func ReferencedSettlementIDs(lines []PayoutLine) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.SettlementID]; ok {
			continue
		}
		seen[l.SettlementID] = struct{}{}
		ids = append(ids, l.SettlementID)
	}
	return ids
}
