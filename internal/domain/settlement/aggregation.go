package settlement

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DayKey identifies a calendar day
type DayKey struct {
	Year  int
	Month time.Month
	Day   int
}

// DayKeyOf returns the calendar day of instant t in loc
func DayKeyOf(t time.Time, loc *time.Location) DayKey {
	y, m, d := t.In(loc).Date()
	return DayKey{Year: y, Month: m, Day: d}
}

// DayKeyOfDate returns the key of a civil date
func DayKeyOfDate(date time.Time) DayKey {
	y, m, d := date.Date()
	return DayKey{Year: y, Month: m, Day: d}
}

// Date returns the key as a civil date
func (k DayKey) Date() time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, time.UTC)
}

// DailyStat is one point of the merged revenue timeline
type DailyStat struct {
	Date             string          `json:"date"`
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	Day              int             `json:"day"`
	Revenue          decimal.Decimal `json:"revenue"`
	EstimatedRevenue decimal.Decimal `json:"estimated_revenue"`
	TotalBookings    int             `json:"total_bookings"`
}

// AggregateActualRevenue sums net revenue of completed transactions per revenue day
func AggregateActualRevenue(txs []Transaction, calc RevenueCalculator, loc *time.Location) map[DayKey]decimal.Decimal {
	out := make(map[DayKey]decimal.Decimal)
	for i := range txs {
		if !txs[i].IsCompleted() {
			continue
		}
		k := DayKeyOf(txs[i].RevenueTime(), loc)
		out[k] = out[k].Add(calc.NetRevenue(&txs[i]))
	}
	return out
}

// AggregateEstimatedRevenue sums net revenue of paid, not yet completed transactions per creation day
func AggregateEstimatedRevenue(txs []Transaction, calc RevenueCalculator, loc *time.Location) map[DayKey]decimal.Decimal {
	out := make(map[DayKey]decimal.Decimal)
	for i := range txs {
		if !txs[i].IsEstimatedRevenue() {
			continue
		}
		k := DayKeyOf(txs[i].CreatedAt, loc)
		out[k] = out[k].Add(calc.NetRevenue(&txs[i]))
	}
	return out
}

// AggregateBookingCounts counts transactions of any status per creation day
func AggregateBookingCounts(txs []Transaction, loc *time.Location) map[DayKey]int {
	out := make(map[DayKey]int)
	for i := range txs {
		out[DayKeyOf(txs[i].CreatedAt, loc)]++
	}
	return out
}

// MergeDailySeries full-outer-joins the three series on calendar day and
// zero-fills every day of window. Days outside window are dropped.
// The result has exactly one entry per day, ascending.
func MergeDailySeries(
	window Period,
	actual map[DayKey]decimal.Decimal,
	estimated map[DayKey]decimal.Decimal,
	bookings map[DayKey]int,
) []DailyStat {
	keys := make(map[DayKey]struct{}, window.Days())
	window.EachDay(func(d time.Time) {
		keys[DayKeyOfDate(d)] = struct{}{}
	})
	for k := range actual {
		keys[k] = struct{}{}
	}
	for k := range estimated {
		keys[k] = struct{}{}
	}
	for k := range bookings {
		keys[k] = struct{}{}
	}

	series := make([]DailyStat, 0, len(keys))
	for k := range keys {
		if !window.Contains(k.Date()) {
			continue
		}
		series = append(series, DailyStat{
			Date:             k.Date().Format(DateLayout),
			Year:             k.Year,
			Month:            int(k.Month),
			Day:              k.Day,
			Revenue:          valueOrZero(actual, k),
			EstimatedRevenue: valueOrZero(estimated, k),
			TotalBookings:    bookings[k],
		})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})
	return series
}

func valueOrZero(m map[DayKey]decimal.Decimal, k DayKey) decimal.Decimal {
	if v, ok := m[k]; ok {
		return v
	}
	return decimal.Zero
}

// PeriodSummary is the revenue breakdown of a selected period
type PeriodSummary struct {
	TotalToBeReceived      decimal.Decimal `json:"total_to_be_received"`
	ChargingStationRevenue decimal.Decimal `json:"charging_station_revenue"`
	RestaurantRevenue      decimal.Decimal `json:"restaurant_revenue"`
	Settled                decimal.Decimal `json:"settled"`
	InSettlementProcess    decimal.Decimal `json:"in_settlement_process"`
	PendingSettlement      decimal.Decimal `json:"pending_settlement"`
	TotalBookings          int             `json:"total_bookings"`
	CompletedBookings      int             `json:"completed_bookings"`
}

// SummarizePeriod splits the net revenue of completed transactions by kind
// and by resolved settlement status. bookings is the count of all
// transactions created in the period.
func SummarizePeriod(completed []Transaction, bookings int, calc RevenueCalculator, resolver *StatusResolver) PeriodSummary {
	sum := PeriodSummary{
		TotalToBeReceived:      decimal.Zero,
		ChargingStationRevenue: decimal.Zero,
		RestaurantRevenue:      decimal.Zero,
		Settled:                decimal.Zero,
		InSettlementProcess:    decimal.Zero,
		PendingSettlement:      decimal.Zero,
		TotalBookings:          bookings,
	}
	for i := range completed {
		tx := &completed[i]
		if !tx.IsCompleted() {
			continue
		}
		net := calc.NetRevenue(tx)
		sum.CompletedBookings++
		sum.TotalToBeReceived = sum.TotalToBeReceived.Add(net)
		if tx.Kind == KindFood {
			sum.RestaurantRevenue = sum.RestaurantRevenue.Add(net)
		} else {
			sum.ChargingStationRevenue = sum.ChargingStationRevenue.Add(net)
		}
		switch resolver.DisplayStatus(tx) {
		case SettlementStatusSettled:
			sum.Settled = sum.Settled.Add(net)
		case SettlementStatusIncluded:
			sum.InSettlementProcess = sum.InSettlementProcess.Add(net)
		default:
			sum.PendingSettlement = sum.PendingSettlement.Add(net)
		}
	}
	return sum
}

// BalanceSummary is the all-time balance of a vendor
type BalanceSummary struct {
	TotalBalance      decimal.Decimal `json:"total_balance"`
	TotalWithdrawn    decimal.Decimal `json:"total_withdrawn"`
	PendingWithdrawal decimal.Decimal `json:"pending_withdrawal"`
}

// NewBalanceSummary derives pending withdrawal from the two totals,
// so TotalBalance == TotalWithdrawn + PendingWithdrawal always holds.
func NewBalanceSummary(totalBalance, totalWithdrawn decimal.Decimal) BalanceSummary {
	return BalanceSummary{
		TotalBalance:      totalBalance,
		TotalWithdrawn:    totalWithdrawn,
		PendingWithdrawal: totalBalance.Sub(totalWithdrawn),
	}
}

// CompletedPayoutTotal sums the amounts of completed settlements
func CompletedPayoutTotal(settlements []Settlement) decimal.Decimal {
	total := decimal.Zero
	for i := range settlements {
		if settlements[i].Status == StatusCompleted {
			total = total.Add(settlements[i].Amount)
		}
	}
	return total
}

// AnnotatedTransaction is a transaction as shown in the analytics audit list
type AnnotatedTransaction struct {
	ID                  uuid.UUID         `json:"id"`
	Kind                TransactionKind   `json:"kind"`
	Status              TransactionStatus `json:"status"`
	SettlementStatus    SettlementStatus  `json:"settlement_status"`
	RawSettlementStatus SettlementStatus  `json:"raw_settlement_status"`
	SettlementID        *uuid.UUID        `json:"settlement_id,omitempty"`
	GrossAmount         decimal.Decimal   `json:"gross_amount"`
	NetRevenue          decimal.Decimal   `json:"net_revenue"`
	CurrentNetAmount    decimal.Decimal   `json:"current_net_amount"`
	RevenueTime         time.Time         `json:"revenue_time"`
}

// AnnotateTransactions returns txs with kind, resolved status and net revenue,
// sorted chronologically by revenue time, ties broken by id.
func AnnotateTransactions(txs []Transaction, calc RevenueCalculator, resolver *StatusResolver) []AnnotatedTransaction {
	out := make([]AnnotatedTransaction, 0, len(txs))
	for i := range txs {
		tx := &txs[i]
		net := calc.NetRevenue(tx)
		out = append(out, AnnotatedTransaction{
			ID:                  tx.ID,
			Kind:                tx.Kind,
			Status:              tx.Status,
			SettlementStatus:    resolver.DisplayStatus(tx),
			RawSettlementStatus: tx.RawSettlementStatus(),
			SettlementID:        tx.SettlementID,
			GrossAmount:         tx.GrossAmount,
			NetRevenue:          net,
			CurrentNetAmount:    ClampForDisplay(net),
			RevenueTime:         tx.RevenueTime(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RevenueTime.Equal(out[j].RevenueTime) {
			return out[i].RevenueTime.Before(out[j].RevenueTime)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// SelectClaimable filters completed transactions whose revenue time falls in
// [from, to) and that no settlement has claimed yet
func SelectClaimable(txs []Transaction, from, to time.Time) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for i := range txs {
		rt := txs[i].RevenueTime()
		if rt.Before(from) || !rt.Before(to) {
			continue
		}
		if txs[i].IsClaimable() {
			out = append(out, txs[i])
		}
	}
	return out
}
