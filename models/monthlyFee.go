package models

import (
	"context"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/shopspring/decimal"
)

// MonthlyFee is the ledger line: one row per student per billing period.
// rent_amount and carry_forward_amount are inputs (set at generation,
// changed only by explicit edits/repairs); adjustments_total, total_due,
// total_paid, balance and status are derived from the child payment and
// adjustment rows and written only by the reconciler.
//
// The unique index on (student_id, hostel_id, fee_year, fee_month) is the
// final arbiter of duplicate generation: racing inserts resolve to one
// winner, the loser detects the duplicate key and skips.
type MonthlyFee struct {
	ID        int `gorm:"primary_key" json:"id"`
	StudentId int `gorm:"not null;uniqueIndex:uniq_student_period,priority:1" json:"student_id"`
	HostelId  int `gorm:"index;not null;uniqueIndex:uniq_student_period,priority:2" json:"hostel_id"`
	FeeYear   int `gorm:"not null;uniqueIndex:uniq_student_period,priority:3" json:"fee_year"`
	FeeMonth  int `gorm:"not null;uniqueIndex:uniq_student_period,priority:4" json:"fee_month"`

	RentAmount         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"rent_amount"`
	CarryForwardAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"carry_forward_amount"`

	AdjustmentsTotal decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"adjustments_total"`
	TotalDue         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_due"`
	TotalPaid        decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_paid"`
	Balance          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"balance"`
	Status           FeeStatus       `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`

	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	RecalculatedAt *time.Time `json:"recalculated_at,omitempty"`

	Student     *Student        `gorm:"foreignKey:StudentId" json:"student,omitempty"`
	Payments    []FeePayment    `gorm:"foreignKey:MonthlyFeeId" json:"payments,omitempty"`
	Adjustments []FeeAdjustment `gorm:"foreignKey:MonthlyFeeId" json:"adjustments,omitempty"`
}

type MonthlyFeeFilters struct {
	HostelId  int
	StudentId int
	FeeYear   int
	FeeMonth  int
	Status    FeeStatus
	Limit     int
	Offset    int
}

// GetMonthlyFee fetches one fee row, enforcing the caller's hostel scope.
func GetMonthlyFee(ctx context.Context, feeId int) (*MonthlyFee, error) {
	hostelId, err := ResolveHostelScope(ctx, 0)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if hostelId > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
	}
	var fee MonthlyFee
	if err := dbCtx.First(&fee, feeId).Error; err != nil {
		return nil, &NotFoundError{Resource: "monthly fee", Id: feeId}
	}
	return &fee, nil
}

func ListMonthlyFees(ctx context.Context, filters MonthlyFeeFilters) ([]*MonthlyFee, error) {
	hostelId, err := ResolveHostelScope(ctx, filters.HostelId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&MonthlyFee{}).Preload("Student")
	if hostelId > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
	}
	if filters.StudentId > 0 {
		dbCtx = dbCtx.Where("student_id = ?", filters.StudentId)
	}
	if filters.FeeYear > 0 {
		dbCtx = dbCtx.Where("fee_year = ?", filters.FeeYear)
	}
	if filters.FeeMonth > 0 {
		dbCtx = dbCtx.Where("fee_month = ?", filters.FeeMonth)
	}
	if filters.Status != "" {
		dbCtx = dbCtx.Where("status = ?", filters.Status)
	}
	dbCtx = dbCtx.Order("fee_year DESC, fee_month DESC, student_id ASC")
	if filters.Limit > 0 {
		dbCtx = dbCtx.Limit(filters.Limit).Offset(filters.Offset)
	}

	var fees []*MonthlyFee
	if err := dbCtx.Find(&fees).Error; err != nil {
		return nil, err
	}
	return fees, nil
}

// GetPreviousMonthsFees lists fees strictly before the given period that
// still carry an outstanding balance, oldest first. The payment
// allocator consumes this ordering directly.
func GetPreviousMonthsFees(ctx context.Context, hostelId int, studentId int, feeYear int, feeMonth int) ([]*MonthlyFee, error) {
	scoped, err := ResolveHostelScope(ctx, hostelId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&MonthlyFee{}).
		Where("(fee_year < ? OR (fee_year = ? AND fee_month < ?))", feeYear, feeYear, feeMonth).
		Where("balance > 0")
	if scoped > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", scoped)
	}
	if studentId > 0 {
		dbCtx = dbCtx.Where("student_id = ?", studentId)
	}

	var fees []*MonthlyFee
	if err := dbCtx.Order("fee_year ASC, fee_month ASC").Find(&fees).Error; err != nil {
		return nil, err
	}
	return fees, nil
}
