package workflow

import (
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RecalculateFeeTotals is the single writer of the derived columns. It
// recomputes adjustments_total, total_due, total_paid, balance and
// status from the fee's inputs and child rows, logs any drift it found
// against the stored values, and persists the result. Every mutation
// path calls this inside its transaction.
func RecalculateFeeTotals(tx *gorm.DB, logger *logrus.Logger, feeId int) (*models.MonthlyFee, error) {

	var fee models.MonthlyFee
	if err := tx.First(&fee, feeId).Error; err != nil {
		config.LogError(logger, "ReconciliationWorkflow.go", "RecalculateFeeTotals", "FetchFee", feeId, err)
		return nil, &models.NotFoundError{Resource: "monthly fee", Id: feeId}
	}

	var adjustments []models.FeeAdjustment
	if err := tx.Where("monthly_fee_id = ?", feeId).Find(&adjustments).Error; err != nil {
		config.LogError(logger, "ReconciliationWorkflow.go", "RecalculateFeeTotals", "FetchAdjustments", feeId, err)
		return nil, err
	}
	var payments []models.FeePayment
	if err := tx.Where("monthly_fee_id = ?", feeId).Find(&payments).Error; err != nil {
		config.LogError(logger, "ReconciliationWorkflow.go", "RecalculateFeeTotals", "FetchPayments", feeId, err)
		return nil, err
	}

	adjustmentAmounts := make([]decimal.Decimal, 0, len(adjustments))
	for _, a := range adjustments {
		adjustmentAmounts = append(adjustmentAmounts, a.Amount)
	}
	paymentAmounts := make([]decimal.Decimal, 0, len(payments))
	for _, p := range payments {
		paymentAmounts = append(paymentAmounts, p.Amount)
	}

	totals := ComputeTotals(fee.RentAmount, fee.CarryForwardAmount, adjustmentAmounts, paymentAmounts)

	// drift means someone wrote a derived column outside this function
	if !fee.Balance.Equal(totals.Balance) || !fee.TotalPaid.Equal(totals.TotalPaid) || !fee.TotalDue.Equal(totals.TotalDue) {
		drift := &models.ConsistencyError{FeeId: fee.ID, Message: "stored totals diverged from ledger rows"}
		logger.WithFields(logrus.Fields{
			"fee_id":          fee.ID,
			"stored_balance":  fee.Balance,
			"derived_balance": totals.Balance,
			"stored_paid":     fee.TotalPaid,
			"derived_paid":    totals.TotalPaid,
			"error":           drift.Error(),
		}).Warn("fee totals drifted, repairing")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"adjustments_total": totals.AdjustmentsTotal,
		"total_due":         totals.TotalDue,
		"total_paid":        totals.TotalPaid,
		"balance":           totals.Balance,
		"status":            totals.Status,
		"recalculated_at":   &now,
	}
	if err := tx.Model(&models.MonthlyFee{}).Where("id = ?", feeId).Updates(updates).Error; err != nil {
		config.LogError(logger, "ReconciliationWorkflow.go", "RecalculateFeeTotals", "UpdateDerivedColumns", feeId, err)
		return nil, err
	}

	fee.AdjustmentsTotal = totals.AdjustmentsTotal
	fee.TotalDue = totals.TotalDue
	fee.TotalPaid = totals.TotalPaid
	fee.Balance = totals.Balance
	fee.Status = totals.Status
	fee.RecalculatedAt = &now
	return &fee, nil
}

type MonthRepairSummary struct {
	HostelId      int   `json:"hostel_id"`
	FeeYear       int   `json:"fee_year"`
	FeeMonth      int   `json:"fee_month"`
	CheckedCount  int   `json:"checked_count"`
	RepairedCount int   `json:"repaired_count"`
	FailedFeeIds  []int `json:"failed_fee_ids,omitempty"`
}

// RecalculateMonthTotals reruns the reconciler over every fee row of a
// hostel-period. Each row is repaired in its own transaction so one bad
// row cannot roll back its peers.
func RecalculateMonthTotals(db *gorm.DB, logger *logrus.Logger, hostelId int, feeYear int, feeMonth int) (*MonthRepairSummary, error) {

	var feeIds []int
	err := db.Model(&models.MonthlyFee{}).
		Where("hostel_id = ? AND fee_year = ? AND fee_month = ?", hostelId, feeYear, feeMonth).
		Order("student_id ASC").
		Pluck("id", &feeIds).Error
	if err != nil {
		config.LogError(logger, "ReconciliationWorkflow.go", "RecalculateMonthTotals", "ListFeeIds", hostelId, err)
		return nil, err
	}

	summary := MonthRepairSummary{
		HostelId:     hostelId,
		FeeYear:      feeYear,
		FeeMonth:     feeMonth,
		CheckedCount: len(feeIds),
	}
	for _, feeId := range feeIds {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := RecalculateFeeTotals(tx, logger, feeId)
			return err
		})
		if err != nil {
			config.LogError(logger, "ReconciliationWorkflow.go", "RecalculateMonthTotals", "RecalculateFeeTotals", feeId, err)
			summary.FailedFeeIds = append(summary.FailedFeeIds, feeId)
			continue
		}
		summary.RepairedCount++
	}
	return &summary, nil
}
