package workflow

import (
	"context"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/models"
	"github.com/hosteldesk/hostel_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AddAdjustment appends a signed correction to a fee and reconciles it
// in the same transaction. Adjustments are never edited or deleted;
// mistakes get an opposite entry.
func AddAdjustment(ctx context.Context, logger *logrus.Logger, feeId int, input *models.NewFeeAdjustment) (*models.FeeAdjustment, *models.MonthlyFee, error) {

	fee, err := models.GetMonthlyFee(ctx, feeId)
	if err != nil {
		return nil, nil, err
	}

	amount, err := utils.ParseDecimal(input.Amount)
	if err != nil {
		return nil, nil, models.NewValidationError("amount must be a valid number")
	}
	if amount.Equal(decimal.Zero) {
		return nil, nil, models.NewValidationError("amount must be non-zero")
	}
	if input.Reason == "" {
		return nil, nil, models.NewValidationError("reason is required")
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	adjustment := models.FeeAdjustment{
		MonthlyFeeId: fee.ID,
		HostelId:     fee.HostelId,
		Amount:       amount,
		Reason:       input.Reason,
		CreatedBy:    userId,
	}

	db := config.GetDB()
	var reconciled *models.MonthlyFee
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireStudentPostingLock(tx, fee.StudentId); err != nil {
			config.LogError(logger, "AdjustmentWorkflow.go", "AddAdjustment", "AcquireStudentPostingLock", fee.StudentId, err)
			return err
		}
		defer ReleaseStudentPostingLock(tx, fee.StudentId)

		if err := tx.Create(&adjustment).Error; err != nil {
			config.LogError(logger, "AdjustmentWorkflow.go", "AddAdjustment", "CreateAdjustment", feeId, err)
			return err
		}
		reconciled, err = RecalculateFeeTotals(tx, logger, fee.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	logger.WithFields(logrus.Fields{
		"fee_id":     fee.ID,
		"student_id": fee.StudentId,
		"amount":     amount,
	}).Info("fee adjustment recorded")
	return &adjustment, reconciled, nil
}
