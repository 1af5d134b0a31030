package workflow

import (
	"time"

	"github.com/hosteldesk/hostel_backend/models"
	"github.com/shopspring/decimal"
)

/* Pure ledger arithmetic. No DB access here so the invariants can be
   tested directly. */

// FeeTotals holds the derived columns recomputed from a fee's inputs
// and its child rows.
type FeeTotals struct {
	AdjustmentsTotal decimal.Decimal
	TotalDue         decimal.Decimal
	TotalPaid        decimal.Decimal
	Balance          decimal.Decimal
	Status           models.FeeStatus
}

// ComputeTotals derives the full column set from first principles:
//
//	total_due = rent + carry_forward + sum(adjustments)
//	balance   = total_due - sum(payments)
func ComputeTotals(rent decimal.Decimal, carryForward decimal.Decimal, adjustments []decimal.Decimal, payments []decimal.Decimal) FeeTotals {
	adjustmentsTotal := decimal.Zero
	for _, a := range adjustments {
		adjustmentsTotal = adjustmentsTotal.Add(a)
	}
	totalPaid := decimal.Zero
	for _, p := range payments {
		totalPaid = totalPaid.Add(p)
	}

	totalDue := rent.Add(carryForward).Add(adjustmentsTotal)
	balance := totalDue.Sub(totalPaid)

	return FeeTotals{
		AdjustmentsTotal: adjustmentsTotal,
		TotalDue:         totalDue,
		TotalPaid:        totalPaid,
		Balance:          balance,
		Status:           DeriveStatus(balance, totalPaid),
	}
}

// DeriveStatus maps a balance/paid pair onto the four fee states.
func DeriveStatus(balance decimal.Decimal, totalPaid decimal.Decimal) models.FeeStatus {
	switch {
	case balance.IsNegative():
		return models.FeeStatusOverpaid
	case balance.IsZero():
		return models.FeeStatusPaid
	case totalPaid.IsPositive():
		return models.FeeStatusPartiallyPaid
	default:
		return models.FeeStatusPending
	}
}

// CarryForwardFromBalance converts a prior month's closing balance into
// the next month's opening carry-forward. Positive balances carry as
// debt. Negative balances carry as credit only when the credit policy
// is enabled, otherwise they clamp to zero.
func CarryForwardFromBalance(priorBalance decimal.Decimal, creditEnabled bool) decimal.Decimal {
	if priorBalance.IsNegative() && !creditEnabled {
		return decimal.Zero
	}
	return priorBalance
}

// OutstandingFee is the allocator's view of one open fee row.
type OutstandingFee struct {
	FeeId    int
	FeeYear  int
	FeeMonth int
	Balance  decimal.Decimal
}

// AllocationSlice is one planned application of money to one fee.
type AllocationSlice struct {
	FeeId  int
	Amount decimal.Decimal
}

// PlanAllocation spreads a tendered amount across open fees oldest
// first. Callers pass fees already sorted by period ascending with the
// current month last; any surplus after all balances are consumed lands
// on the final fee, which the reconciler will mark Overpaid.
func PlanAllocation(amount decimal.Decimal, fees []OutstandingFee) []AllocationSlice {
	remaining := amount
	var slices []AllocationSlice

	for i, fee := range fees {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		var applied decimal.Decimal
		if i == len(fees)-1 {
			// newest fee absorbs any surplus
			applied = remaining
		} else {
			applied = decimal.Min(remaining, fee.Balance)
			if applied.LessThanOrEqual(decimal.Zero) {
				continue
			}
		}
		slices = append(slices, AllocationSlice{FeeId: fee.FeeId, Amount: applied})
		remaining = remaining.Sub(applied)
	}
	return slices
}

// PeriodBounds returns the first and last day of a billing month.
func PeriodBounds(feeYear int, feeMonth int) (time.Time, time.Time) {
	start := time.Date(feeYear, time.Month(feeMonth), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

// PreviousPeriod steps one month back across year boundaries.
func PreviousPeriod(feeYear int, feeMonth int) (int, int) {
	if feeMonth == 1 {
		return feeYear - 1, 12
	}
	return feeYear, feeMonth - 1
}

// ValidPeriod rejects out-of-range months and years far outside
// operational use.
func ValidPeriod(feeYear int, feeMonth int) bool {
	if feeMonth < 1 || feeMonth > 12 {
		return false
	}
	return feeYear >= 2000 && feeYear <= 2100
}
