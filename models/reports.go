package models

import (
	"context"
	"fmt"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/utils"
	"github.com/shopspring/decimal"
)

/* Reporting queries. All read-only; derived columns are trusted as-is
   because only the reconciler writes them. */

type CollectionsByMode struct {
	PaymentMode PaymentMode     `json:"payment_mode"`
	Total       decimal.Decimal `json:"total"`
	Count       int             `json:"count"`
}

type CollectionsReport struct {
	HostelId int                 `json:"hostel_id"`
	From     string              `json:"from"`
	To       string              `json:"to"`
	ByMode   []CollectionsByMode `json:"by_mode"`
	Total    decimal.Decimal     `json:"total"`
}

// GetCollections sums rent payments in a date range, grouped by mode.
func GetCollections(ctx context.Context, requestedHostelId int, from time.Time, to time.Time) (*CollectionsReport, error) {
	hostelId, err := ResolveHostelScope(ctx, requestedHostelId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&FeePayment{}).
		Select("payment_mode, SUM(amount) AS total, COUNT(*) AS count").
		Group("payment_mode").
		Order("payment_mode ASC")
	if hostelId > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
	}
	if !from.IsZero() {
		dbCtx = dbCtx.Where("payment_date >= ?", from)
	}
	if !to.IsZero() {
		dbCtx = dbCtx.Where("payment_date <= ?", to)
	}

	var rows []CollectionsByMode
	if err := dbCtx.Scan(&rows).Error; err != nil {
		return nil, err
	}

	report := CollectionsReport{
		HostelId: hostelId,
		ByMode:   rows,
		Total:    decimal.Zero,
	}
	if !from.IsZero() {
		report.From = from.Format(dateLayout)
	}
	if !to.IsZero() {
		report.To = to.Format(dateLayout)
	}
	for _, row := range rows {
		report.Total = report.Total.Add(row.Total)
	}
	return &report, nil
}

type FeePeriod struct {
	FeeYear  int `json:"fee_year"`
	FeeMonth int `json:"fee_month"`
}

func availableMonthsCacheKey(hostelId int) string {
	return fmt.Sprintf("AvailableMonths:%d", hostelId)
}

// GetAvailableMonths lists the distinct billing periods present for a
// hostel, newest first. Cached in Redis; generation invalidates the key.
func GetAvailableMonths(ctx context.Context, requestedHostelId int) ([]FeePeriod, error) {
	hostelId, err := ResolveHostelScope(ctx, requestedHostelId)
	if err != nil {
		return nil, err
	}

	cacheKey := availableMonthsCacheKey(hostelId)
	var cached []FeePeriod
	if found, err := config.GetRedisObject(cacheKey, &cached); err == nil && found {
		return cached, nil
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&MonthlyFee{}).
		Distinct("fee_year, fee_month").
		Order("fee_year DESC, fee_month DESC")
	if hostelId > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
	}

	var periods []FeePeriod
	if err := dbCtx.Scan(&periods).Error; err != nil {
		return nil, err
	}

	// best effort cache, the DB result already answered the request
	_ = config.SetRedisObject(cacheKey, periods, 10*time.Minute)
	return periods, nil
}

// InvalidateAvailableMonths drops the cached period list after
// generation or period rollback changes it.
func InvalidateAvailableMonths(hostelIds ...int) {
	// admins query under scope 0
	ids := utils.UniqueSlice(append(hostelIds, 0))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, availableMonthsCacheKey(id))
	}
	_ = config.RemoveRedisKey(keys...)
}

type MonthlyFeeSummary struct {
	HostelId          int             `json:"hostel_id"`
	FeeYear           int             `json:"fee_year"`
	FeeMonth          int             `json:"fee_month"`
	StudentCount      int             `json:"student_count"`
	TotalRent         decimal.Decimal `json:"total_rent"`
	TotalCarryForward decimal.Decimal `json:"total_carry_forward"`
	TotalDue          decimal.Decimal `json:"total_due"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalBalance      decimal.Decimal `json:"total_balance"`
	PendingCount      int             `json:"pending_count"`
	PartiallyPaid     int             `json:"partially_paid_count"`
	PaidCount         int             `json:"paid_count"`
	OverpaidCount     int             `json:"overpaid_count"`
}

func GetMonthlyFeeSummary(ctx context.Context, requestedHostelId int, feeYear int, feeMonth int) (*MonthlyFeeSummary, error) {
	hostelId, err := ResolveHostelScope(ctx, requestedHostelId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&MonthlyFee{}).
		Where("fee_year = ? AND fee_month = ?", feeYear, feeMonth)
	if hostelId > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
	}

	var fees []*MonthlyFee
	if err := dbCtx.Find(&fees).Error; err != nil {
		return nil, err
	}

	summary := MonthlyFeeSummary{
		HostelId:          hostelId,
		FeeYear:           feeYear,
		FeeMonth:          feeMonth,
		StudentCount:      len(fees),
		TotalRent:         decimal.Zero,
		TotalCarryForward: decimal.Zero,
		TotalDue:          decimal.Zero,
		TotalPaid:         decimal.Zero,
		TotalBalance:      decimal.Zero,
	}
	for _, fee := range fees {
		summary.TotalRent = summary.TotalRent.Add(fee.RentAmount)
		summary.TotalCarryForward = summary.TotalCarryForward.Add(fee.CarryForwardAmount)
		summary.TotalDue = summary.TotalDue.Add(fee.TotalDue)
		summary.TotalPaid = summary.TotalPaid.Add(fee.TotalPaid)
		summary.TotalBalance = summary.TotalBalance.Add(fee.Balance)
		switch fee.Status {
		case FeeStatusPending:
			summary.PendingCount++
		case FeeStatusPartiallyPaid:
			summary.PartiallyPaid++
		case FeeStatusPaid:
			summary.PaidCount++
		case FeeStatusOverpaid:
			summary.OverpaidCount++
		}
	}
	return &summary, nil
}

type StudentPaymentHistory struct {
	Student  *Student      `json:"student"`
	Fees     []*MonthlyFee `json:"fees"`
	Payments []*FeePayment `json:"payments"`
}

// GetStudentPaymentHistory returns the full ledger trail for one
// student: every fee row with nested payments and adjustments, plus
// the flat payment list newest first.
func GetStudentPaymentHistory(ctx context.Context, studentId int) (*StudentPaymentHistory, error) {
	student, err := GetStudent(ctx, studentId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var fees []*MonthlyFee
	err = db.WithContext(ctx).
		Preload("Payments").
		Preload("Adjustments").
		Where("student_id = ?", student.ID).
		Order("fee_year ASC, fee_month ASC").
		Find(&fees).Error
	if err != nil {
		return nil, err
	}

	var payments []*FeePayment
	err = db.WithContext(ctx).
		Where("student_id = ?", student.ID).
		Order("payment_date DESC, id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	return &StudentPaymentHistory{Student: student, Fees: fees, Payments: payments}, nil
}

type CarryForwardIssue struct {
	FeeId      int             `json:"fee_id"`
	StudentId  int             `json:"student_id"`
	FeeYear    int             `json:"fee_year"`
	FeeMonth   int             `json:"fee_month"`
	Stored     decimal.Decimal `json:"stored_carry_forward"`
	Expected   decimal.Decimal `json:"expected_carry_forward"`
	PriorFeeId int             `json:"prior_fee_id,omitempty"`
}

type CarryForwardDiagnosis struct {
	HostelId     int                 `json:"hostel_id"`
	FeeYear      int                 `json:"fee_year"`
	FeeMonth     int                 `json:"fee_month"`
	CheckedCount int                 `json:"checked_count"`
	Issues       []CarryForwardIssue `json:"issues"`
}

// DiagnoseCarryForward compares each stored carry_forward_amount for a
// period against the balance of the student's nearest prior fee row.
// Read-only; repair is a separate explicit operation.
func DiagnoseCarryForward(ctx context.Context, requestedHostelId int, feeYear int, feeMonth int) (*CarryForwardDiagnosis, error) {
	hostelId, err := RequireHostelScope(ctx, requestedHostelId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var fees []*MonthlyFee
	err = db.WithContext(ctx).
		Where("hostel_id = ? AND fee_year = ? AND fee_month = ?", hostelId, feeYear, feeMonth).
		Order("student_id ASC").
		Find(&fees).Error
	if err != nil {
		return nil, err
	}

	creditEnabled := config.CarryForwardCreditEnabled()
	diagnosis := CarryForwardDiagnosis{
		HostelId:     hostelId,
		FeeYear:      feeYear,
		FeeMonth:     feeMonth,
		CheckedCount: len(fees),
		Issues:       []CarryForwardIssue{},
	}

	for _, fee := range fees {
		var prior MonthlyFee
		err := db.WithContext(ctx).
			Where("student_id = ? AND hostel_id = ?", fee.StudentId, hostelId).
			Where("(fee_year < ? OR (fee_year = ? AND fee_month < ?))", fee.FeeYear, fee.FeeYear, fee.FeeMonth).
			Order("fee_year DESC, fee_month DESC").
			First(&prior).Error

		expected := decimal.Zero
		priorFeeId := 0
		if err == nil {
			priorFeeId = prior.ID
			expected = prior.Balance
			if expected.IsNegative() && !creditEnabled {
				expected = decimal.Zero
			}
		}

		if !fee.CarryForwardAmount.Equal(expected) {
			diagnosis.Issues = append(diagnosis.Issues, CarryForwardIssue{
				FeeId:      fee.ID,
				StudentId:  fee.StudentId,
				FeeYear:    fee.FeeYear,
				FeeMonth:   fee.FeeMonth,
				Stored:     fee.CarryForwardAmount,
				Expected:   expected,
				PriorFeeId: priorFeeId,
			})
		}
	}
	return &diagnosis, nil
}

type ProfitLossReport struct {
	HostelId        int             `json:"hostel_id"`
	From            string          `json:"from"`
	To              string          `json:"to"`
	RentCollections decimal.Decimal `json:"rent_collections"`
	OtherIncome     decimal.Decimal `json:"other_income"`
	Expenses        decimal.Decimal `json:"expenses"`
	Net             decimal.Decimal `json:"net"`
}

func GetProfitLoss(ctx context.Context, requestedHostelId int, from time.Time, to time.Time) (*ProfitLossReport, error) {
	hostelId, err := ResolveHostelScope(ctx, requestedHostelId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	sum := func(model interface{}, dateColumn string) (decimal.Decimal, error) {
		dbCtx := db.WithContext(ctx).Model(model).Select("COALESCE(SUM(amount), 0)")
		if hostelId > 0 {
			dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
		}
		if !from.IsZero() {
			dbCtx = dbCtx.Where(dateColumn+" >= ?", from)
		}
		if !to.IsZero() {
			dbCtx = dbCtx.Where(dateColumn+" <= ?", to)
		}
		var total decimal.Decimal
		if err := dbCtx.Scan(&total).Error; err != nil {
			return decimal.Zero, err
		}
		return total, nil
	}

	rent, err := sum(&FeePayment{}, "payment_date")
	if err != nil {
		return nil, err
	}
	other, err := sum(&Income{}, "received_on")
	if err != nil {
		return nil, err
	}
	spent, err := sum(&Expense{}, "spent_on")
	if err != nil {
		return nil, err
	}

	report := ProfitLossReport{
		HostelId:        hostelId,
		RentCollections: rent,
		OtherIncome:     other,
		Expenses:        spent,
		Net:             rent.Add(other).Sub(spent),
	}
	if !from.IsZero() {
		report.From = from.Format(dateLayout)
	}
	if !to.IsZero() {
		report.To = to.Format(dateLayout)
	}
	return &report, nil
}
