package workflow

import (
	"context"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/models"
	"github.com/hosteldesk/hostel_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type EditFeeInput struct {
	RentAmount         *string `json:"rent_amount"`
	CarryForwardAmount *string `json:"carry_forward_amount"`
}

// EditCurrentMonthFee changes the input columns of a fee row in the
// current calendar month, then reconciles it. Past months are closed
// to direct edits; they take adjustments instead so the audit trail
// survives.
func EditCurrentMonthFee(ctx context.Context, logger *logrus.Logger, feeId int, input *EditFeeInput) (*models.MonthlyFee, error) {

	fee, err := models.GetMonthlyFee(ctx, feeId)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if fee.FeeYear != now.Year() || fee.FeeMonth != int(now.Month()) {
		return nil, models.NewValidationError("only the current month's fee can be edited directly; use an adjustment for past months")
	}

	updates := map[string]interface{}{}
	if input.RentAmount != nil {
		rent, err := utils.ParseDecimal(*input.RentAmount)
		if err != nil || rent.LessThan(decimal.Zero) {
			return nil, models.NewValidationError("rent_amount must be a non-negative number")
		}
		updates["rent_amount"] = rent
	}
	if input.CarryForwardAmount != nil {
		carryForward, err := utils.ParseDecimal(*input.CarryForwardAmount)
		if err != nil {
			return nil, models.NewValidationError("carry_forward_amount must be a valid number")
		}
		if carryForward.IsNegative() && !config.CarryForwardCreditEnabled() {
			return nil, models.NewValidationError("negative carry-forward requires the credit policy to be enabled")
		}
		updates["carry_forward_amount"] = carryForward
	}
	if len(updates) == 0 {
		return nil, models.NewValidationError("nothing to update")
	}

	db := config.GetDB()
	var reconciled *models.MonthlyFee
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireStudentPostingLock(tx, fee.StudentId); err != nil {
			return err
		}
		defer ReleaseStudentPostingLock(tx, fee.StudentId)

		if err := tx.Model(&models.MonthlyFee{}).Where("id = ?", fee.ID).Updates(updates).Error; err != nil {
			config.LogError(logger, "FeeEditWorkflow.go", "EditCurrentMonthFee", "UpdateFeeInputs", feeId, err)
			return err
		}
		reconciled, err = RecalculateFeeTotals(tx, logger, fee.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"fee_id":     fee.ID,
		"student_id": fee.StudentId,
	}).Info("current month fee edited")
	return reconciled, nil
}

type PeriodRollbackResult struct {
	HostelId    int `json:"hostel_id"`
	FeeYear     int `json:"fee_year"`
	FeeMonth    int `json:"fee_month"`
	FeesDeleted int `json:"fees_deleted"`
}

// RollbackPeriod deletes a hostel-period's fee rows so generation can
// rerun. Refused when any fee in the period already has payments or
// adjustments; those have to be reversed first.
func RollbackPeriod(ctx context.Context, logger *logrus.Logger, hostelId int, feeYear int, feeMonth int) (*PeriodRollbackResult, error) {

	if !ValidPeriod(feeYear, feeMonth) {
		return nil, models.NewValidationError("invalid billing period")
	}

	db := config.GetDB()
	result := PeriodRollbackResult{HostelId: hostelId, FeeYear: feeYear, FeeMonth: feeMonth}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireGenerationLock(tx, hostelId, feeYear, feeMonth); err != nil {
			return err
		}
		defer ReleaseGenerationLock(tx, hostelId, feeYear, feeMonth)

		var feeIds []int
		err := tx.Model(&models.MonthlyFee{}).
			Where("hostel_id = ? AND fee_year = ? AND fee_month = ?", hostelId, feeYear, feeMonth).
			Pluck("id", &feeIds).Error
		if err != nil {
			return err
		}
		if len(feeIds) == 0 {
			return &models.NotFoundError{Resource: "monthly fees for period", Id: 0}
		}

		var paymentCount int64
		if err := tx.Model(&models.FeePayment{}).Where("monthly_fee_id IN ?", feeIds).Count(&paymentCount).Error; err != nil {
			return err
		}
		var adjustmentCount int64
		if err := tx.Model(&models.FeeAdjustment{}).Where("monthly_fee_id IN ?", feeIds).Count(&adjustmentCount).Error; err != nil {
			return err
		}
		if paymentCount > 0 || adjustmentCount > 0 {
			return models.NewValidationError("period has payments or adjustments recorded; reverse them before rolling back")
		}

		if err := tx.Where("id IN ?", feeIds).Delete(&models.MonthlyFee{}).Error; err != nil {
			config.LogError(logger, "FeeEditWorkflow.go", "RollbackPeriod", "DeleteFees", hostelId, err)
			return err
		}
		result.FeesDeleted = len(feeIds)
		return nil
	})
	if err != nil {
		return nil, err
	}

	models.InvalidateAvailableMonths(hostelId)
	logger.WithFields(logrus.Fields{
		"hostel_id":    hostelId,
		"fee_year":     feeYear,
		"fee_month":    feeMonth,
		"fees_deleted": result.FeesDeleted,
	}).Info("billing period rolled back")
	return &result, nil
}
