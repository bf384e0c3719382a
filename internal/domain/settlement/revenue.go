package settlement

import (
	"github.com/shopspring/decimal"
)

// DefaultAmountTolerance is the largest accepted difference between a claimed
// payout and the recomputed ledger total
var DefaultAmountTolerance = decimal.NewFromFloat(0.01)

// RevenueCalculator computes the vendor's net revenue for a transaction.
// It is the single formula used by analytics, balances and settlement validation.
type RevenueCalculator struct {
	// PlatformFee is the fixed fee deducted from charging sessions
	// that carry no explicit merchant amount
	PlatformFee decimal.Decimal
}

// NewRevenueCalculator creates a calculator with the given fixed platform fee
func NewRevenueCalculator(platformFee decimal.Decimal) RevenueCalculator {
	return RevenueCalculator{PlatformFee: platformFee}
}

// Base returns the merchant share before adjustments
func (c RevenueCalculator) Base(tx *Transaction) decimal.Decimal {
	if tx.MerchantAmount != nil && !tx.MerchantAmount.IsNegative() {
		return *tx.MerchantAmount
	}
	if tx.Kind == KindFood {
		return tx.GrossAmount
	}
	return decimal.Max(decimal.Zero, tx.GrossAmount.Sub(c.PlatformFee))
}

// NetRevenue returns base + processed additional charges - processed refunds.
// The result is signed; it is never clamped here.
func (c RevenueCalculator) NetRevenue(tx *Transaction) decimal.Decimal {
	additional, refunded := ProcessedAdjustmentTotals(tx.Adjustments)
	return c.Base(tx).Add(additional).Sub(refunded)
}

// Sum returns the total net revenue of txs
func (c RevenueCalculator) Sum(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range txs {
		total = total.Add(c.NetRevenue(&txs[i]))
	}
	return total
}

// ProcessedAdjustmentTotals sums processed additional charges and processed refunds
func ProcessedAdjustmentTotals(adjustments []PaymentAdjustment) (additional, refunded decimal.Decimal) {
	additional, refunded = decimal.Zero, decimal.Zero
	for _, a := range adjustments {
		if !a.IsProcessed() {
			continue
		}
		switch a.Type {
		case AdjustmentTypeAdditionalCharge:
			additional = additional.Add(a.Amount)
		case AdjustmentTypeRefund:
			refunded = refunded.Add(a.Amount)
		}
	}
	return additional, refunded
}

// ClampForDisplay floors a net amount at zero for operator-facing views
func ClampForDisplay(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// WithinTolerance reports whether |a - b| <= tolerance
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
