package workflow

import (
	"context"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RecalculateCarryForwardForMonth repairs the carry_forward_amount of
// every fee in a hostel-period from the current balances of each
// student's nearest prior fee row, then reconciles the repaired rows.
// This is the manual downstream repair after retroactive edits;
// nothing cascades automatically.
func RecalculateCarryForwardForMonth(ctx context.Context, logger *logrus.Logger, hostelId int, feeYear int, feeMonth int) (*MonthRepairSummary, error) {

	if !ValidPeriod(feeYear, feeMonth) {
		return nil, models.NewValidationError("invalid billing period")
	}

	db := config.GetDB()
	var fees []models.MonthlyFee
	err := db.WithContext(ctx).
		Where("hostel_id = ? AND fee_year = ? AND fee_month = ?", hostelId, feeYear, feeMonth).
		Order("student_id ASC").
		Find(&fees).Error
	if err != nil {
		config.LogError(logger, "CarryForwardWorkflow.go", "RecalculateCarryForwardForMonth", "ListFees", hostelId, err)
		return nil, err
	}
	if len(fees) == 0 {
		return nil, &models.NotFoundError{Resource: "monthly fees for period", Id: 0}
	}

	creditEnabled := config.CarryForwardCreditEnabled()
	summary := MonthRepairSummary{
		HostelId:     hostelId,
		FeeYear:      feeYear,
		FeeMonth:     feeMonth,
		CheckedCount: len(fees),
	}

	// row-per-transaction so one failure leaves the rest repaired
	for _, fee := range fees {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := AcquireStudentPostingLock(tx, fee.StudentId); err != nil {
				return err
			}
			defer ReleaseStudentPostingLock(tx, fee.StudentId)

			expected, err := lookupCarryForward(tx, fee.StudentId, fee.HostelId, fee.FeeYear, fee.FeeMonth, creditEnabled)
			if err != nil {
				return err
			}
			if !fee.CarryForwardAmount.Equal(expected) {
				err = tx.Model(&models.MonthlyFee{}).
					Where("id = ?", fee.ID).
					Update("carry_forward_amount", expected).Error
				if err != nil {
					return err
				}
			}
			_, err = RecalculateFeeTotals(tx, logger, fee.ID)
			return err
		})
		if err != nil {
			config.LogError(logger, "CarryForwardWorkflow.go", "RecalculateCarryForwardForMonth", "RepairFee", fee.ID, err)
			summary.FailedFeeIds = append(summary.FailedFeeIds, fee.ID)
			continue
		}
		summary.RepairedCount++
	}

	logger.WithFields(logrus.Fields{
		"hostel_id": hostelId,
		"fee_year":  feeYear,
		"fee_month": feeMonth,
		"checked":   summary.CheckedCount,
		"repaired":  summary.RepairedCount,
		"failed":    len(summary.FailedFeeIds),
	}).Info("carry-forward repair completed")
	return &summary, nil
}
