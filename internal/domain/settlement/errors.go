package settlement

import (
	"errors"
	"fmt"

	"github.com/evmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Error codes surfaced to callers
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeAmountMismatch      = "AMOUNT_MISMATCH"
	CodeNoEligible          = "NO_ELIGIBLE_TRANSACTIONS"
	CodeOverlapping         = "OVERLAPPING_SETTLEMENT_EXISTS"
	CodeMissingBankDetails  = "MISSING_BANK_DETAILS"
	CodeTransientStorage    = "TRANSIENT_STORAGE_ERROR"
	CodeConsistencyViolated = "CONSISTENCY_VIOLATION"
)

// Sentinels for errors.Is; matching is by code.
var (
	ErrValidation            = shared.NewDomainError(CodeValidation, "Invalid settlement request")
	ErrAmountMismatch        = shared.NewDomainError(CodeAmountMismatch, "Claimed amount does not match eligible revenue")
	ErrNoEligible            = shared.NewDomainError(CodeNoEligible, "No eligible transactions in the requested period")
	ErrOverlapping           = shared.NewDomainError(CodeOverlapping, "An active settlement already covers part of the requested period")
	ErrMissingBankDetails    = shared.NewDomainError(CodeMissingBankDetails, "Vendor has no payout account on file")
	ErrTransientStorage      = shared.NewDomainError(CodeTransientStorage, "Storage temporarily unavailable, retry later")
	ErrConsistencyViolation  = shared.NewDomainError(CodeConsistencyViolated, "Settlement data is inconsistent for this vendor")
	ErrSettlementNotFound    = shared.NewDomainError("NOT_FOUND", "Settlement not found")
	ErrVendorNotFound        = shared.NewDomainError("NOT_FOUND", "Vendor not found")
	ErrIllegalTransition     = shared.NewDomainError("INVALID_STATE", "Settlement status transition not allowed")
	ErrSettlementConcurrency = shared.NewDomainError("CONCURRENCY_CONFLICT", "Settlement was modified by another process")
)

// RejectionError is a business-rule rejection of a settlement request.
// It carries the server-side expected amount so the client can reconcile.
type RejectionError struct {
	*shared.DomainError
	ExpectedAmount decimal.Decimal
}

// Unwrap exposes the embedded DomainError to errors.As and errors.Is
func (e *RejectionError) Unwrap() error {
	return e.DomainError
}

func newRejection(code, message string, expected decimal.Decimal) *RejectionError {
	return &RejectionError{
		DomainError:    shared.NewDomainError(code, message),
		ExpectedAmount: expected,
	}
}

// NewAmountMismatchError reports a claimed amount outside the tolerance
func NewAmountMismatchError(expected, claimed decimal.Decimal) *RejectionError {
	return newRejection(CodeAmountMismatch,
		fmt.Sprintf("claimed amount %s does not match expected amount %s", claimed.StringFixed(2), expected.StringFixed(2)),
		expected)
}

// NewNoEligibleTransactionsError reports an empty eligible set
func NewNoEligibleTransactionsError(period Period) *RejectionError {
	return newRejection(CodeNoEligible,
		fmt.Sprintf("no unsettled completed transactions between %s", period.String()),
		decimal.Zero)
}

// NewOverlappingSettlementError reports a conflicting active settlement
func NewOverlappingSettlementError(conflicting *Settlement, expected decimal.Decimal) *RejectionError {
	return newRejection(CodeOverlapping,
		fmt.Sprintf("settlement %s (%s) already covers %s", conflicting.ID, conflicting.Status, conflicting.Period.String()),
		expected)
}

// NewMissingBankDetailsError reports a vendor without a payout account
func NewMissingBankDetailsError(expected decimal.Decimal) *RejectionError {
	return newRejection(CodeMissingBankDetails, "vendor has no payout account on file", expected)
}

// NewValidationError reports a malformed request
func NewValidationError(message string) *shared.DomainError {
	return shared.NewDomainError(CodeValidation, message)
}

// NewConsistencyViolation reports a broken settlement invariant
func NewConsistencyViolation(message string) *shared.DomainError {
	return shared.NewDomainError(CodeConsistencyViolated, message)
}

// TransientError wraps a storage failure that is safe to retry
type TransientError struct {
	*shared.DomainError
	Op  string
	Err error
}

// Error includes the failed operation and cause
func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Message, e.Op, e.Err)
}

// Unwrap exposes both the DomainError and the underlying cause
func (e *TransientError) Unwrap() []error {
	return []error{e.DomainError, e.Err}
}

// NewTransientStorageError wraps err as retryable
func NewTransientStorageError(op string, err error) *TransientError {
	return &TransientError{
		DomainError: shared.NewDomainError(CodeTransientStorage, "Storage temporarily unavailable, retry later"),
		Op:          op,
		Err:         err,
	}
}

// IsRetryable returns true if the caller may retry the operation with backoff
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStorage)
}

// ExpectedAmountOf returns the expected amount carried by a rejection, if any
func ExpectedAmountOf(err error) (decimal.Decimal, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.ExpectedAmount, true
	}
	return decimal.Zero, false
}
