package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/models"
	"github.com/hosteldesk/hostel_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PaymentResult returns the written slices plus every fee the
// allocation touched, already reconciled.
type PaymentResult struct {
	PaymentGroupId string               `json:"payment_group_id"`
	ReceiptNumber  string               `json:"receipt_number"`
	Slices         []models.FeePayment  `json:"slices"`
	AffectedFees   []*models.MonthlyFee `json:"affected_fees"`
}

// RecordPayment posts one tendered payment against a student's ledger.
// The amount spreads oldest-debt-first across open fees; surplus lands
// on the newest fee as an overpayment. The whole allocation commits or
// rolls back as one unit under the student's posting lock.
func RecordPayment(ctx context.Context, logger *logrus.Logger, input *models.NewFeePayment) (*PaymentResult, error) {

	hostelId, err := models.ResolveHostelScope(ctx, input.HostelId)
	if err != nil {
		return nil, err
	}

	amount, err := utils.ParseDecimal(input.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return nil, models.NewValidationError("amount must be a positive number")
	}
	mode := models.PaymentMode(input.PaymentMode)
	if !mode.Valid() {
		return nil, models.NewValidationError("payment_mode is not a recognised mode")
	}
	paymentDate, err := time.Parse("2006-01-02", input.PaymentDate)
	if err != nil {
		return nil, models.NewValidationError("payment_date must be in YYYY-MM-DD format")
	}

	student, err := models.GetStudent(ctx, input.StudentId)
	if err != nil {
		return nil, err
	}
	if hostelId > 0 && student.HostelId != hostelId {
		return nil, &models.NotFoundError{Resource: "student", Id: input.StudentId}
	}

	db := config.GetDB()
	userId, _ := utils.GetUserIdFromContext(ctx)
	groupId := uuid.New().String()

	result := PaymentResult{PaymentGroupId: groupId, ReceiptNumber: input.ReceiptNumber}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireStudentPostingLock(tx, student.ID); err != nil {
			config.LogError(logger, "PaymentWorkflow.go", "RecordPayment", "AcquireStudentPostingLock", student.ID, err)
			return err
		}
		defer ReleaseStudentPostingLock(tx, student.ID)

		// the parent row's unique (hostel_id, receipt_number) index is
		// the arbiter; two concurrent postings of the same receipt
		// cannot both commit
		receipt := models.FeeReceipt{
			HostelId:       student.HostelId,
			StudentId:      student.ID,
			PaymentGroupId: groupId,
			ReceiptNumber:  input.ReceiptNumber,
			Amount:         amount,
			PaymentMode:    mode,
			PaymentDate:    paymentDate,
			CreatedBy:      userId,
		}
		if err := tx.Create(&receipt).Error; err != nil {
			if isDuplicateKeyErr(err) {
				return models.NewValidationError("receipt_number already used in this hostel")
			}
			config.LogError(logger, "PaymentWorkflow.go", "RecordPayment", "CreateReceipt", input.ReceiptNumber, err)
			return err
		}

		fees, err := openFeesForStudent(tx, student.ID)
		if err != nil {
			config.LogError(logger, "PaymentWorkflow.go", "RecordPayment", "openFeesForStudent", student.ID, err)
			return err
		}
		if len(fees) == 0 {
			return models.NewValidationError("student has no fee records to pay against")
		}

		plan := PlanAllocation(amount, fees)
		for _, slice := range plan {
			payment := models.FeePayment{
				MonthlyFeeId:   slice.FeeId,
				HostelId:       student.HostelId,
				StudentId:      student.ID,
				PaymentGroupId: groupId,
				Amount:         slice.Amount,
				PaymentMode:    mode,
				ReceiptNumber:  input.ReceiptNumber,
				PaymentDate:    paymentDate,
				Remarks:        input.Remarks,
				CreatedBy:      userId,
			}
			if err := tx.Create(&payment).Error; err != nil {
				config.LogError(logger, "PaymentWorkflow.go", "RecordPayment", "CreatePaymentSlice", slice.FeeId, err)
				return err
			}
			result.Slices = append(result.Slices, payment)

			fee, err := RecalculateFeeTotals(tx, logger, slice.FeeId)
			if err != nil {
				return err
			}
			result.AffectedFees = append(result.AffectedFees, fee)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"student_id":       student.ID,
		"hostel_id":        student.HostelId,
		"payment_group_id": groupId,
		"amount":           amount,
		"slices":           len(result.Slices),
	}).Info("payment recorded")
	return &result, nil
}

// openFeesForStudent lists the allocator's worklist: fees with debt
// oldest first, then the newest fee row regardless of balance so a
// surplus has somewhere to land.
func openFeesForStudent(tx *gorm.DB, studentId int) ([]OutstandingFee, error) {
	var rows []models.MonthlyFee
	err := tx.
		Where("student_id = ?", studentId).
		Order("fee_year ASC, fee_month ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	fees := make([]OutstandingFee, 0, len(rows))
	for i, row := range rows {
		if row.Balance.GreaterThan(decimal.Zero) || i == len(rows)-1 {
			fees = append(fees, OutstandingFee{
				FeeId:    row.ID,
				FeeYear:  row.FeeYear,
				FeeMonth: row.FeeMonth,
				Balance:  row.Balance,
			})
		}
	}
	return fees, nil
}

// UpdatePaymentSlice edits the mutable fields of one allocation slice.
// The slice's fee is reconciled in the same transaction. Changing the
// amount moves the fee's balance; it never re-allocates other slices.
func UpdatePaymentSlice(ctx context.Context, logger *logrus.Logger, paymentId int, input *models.UpdateFeePayment) (*models.MonthlyFee, error) {

	payment, err := models.GetFeePayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var fee *models.MonthlyFee
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireStudentPostingLock(tx, payment.StudentId); err != nil {
			return err
		}
		defer ReleaseStudentPostingLock(tx, payment.StudentId)

		if input.Amount != nil {
			amount, err := utils.ParseDecimal(*input.Amount)
			if err != nil || amount.LessThanOrEqual(decimal.Zero) {
				return models.NewValidationError("amount must be a positive number")
			}
			payment.Amount = amount
		}
		if input.PaymentMode != nil {
			mode := models.PaymentMode(*input.PaymentMode)
			if !mode.Valid() {
				return models.NewValidationError("payment_mode is not a recognised mode")
			}
			payment.PaymentMode = mode
		}
		if input.PaymentDate != nil {
			paymentDate, err := time.Parse("2006-01-02", *input.PaymentDate)
			if err != nil {
				return models.NewValidationError("payment_date must be in YYYY-MM-DD format")
			}
			payment.PaymentDate = paymentDate
		}
		if input.Remarks != nil {
			payment.Remarks = *input.Remarks
		}
		if err := tx.Save(payment).Error; err != nil {
			config.LogError(logger, "PaymentWorkflow.go", "UpdatePaymentSlice", "SavePayment", paymentId, err)
			return err
		}

		fee, err = RecalculateFeeTotals(tx, logger, payment.MonthlyFeeId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fee, nil
}

// DeletePaymentSlice removes one slice and reconciles its fee. The
// resulting balance feeds future carry-forwards; already generated
// downstream months need an explicit repair.
func DeletePaymentSlice(ctx context.Context, logger *logrus.Logger, paymentId int) (*models.MonthlyFee, error) {

	payment, err := models.GetFeePayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var fee *models.MonthlyFee
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireStudentPostingLock(tx, payment.StudentId); err != nil {
			return err
		}
		defer ReleaseStudentPostingLock(tx, payment.StudentId)

		if err := tx.Delete(&models.FeePayment{}, payment.ID).Error; err != nil {
			config.LogError(logger, "PaymentWorkflow.go", "DeletePaymentSlice", "DeletePayment", paymentId, err)
			return err
		}

		// last slice gone: drop the parent so the receipt number is
		// free again
		var remaining int64
		if err := tx.Model(&models.FeePayment{}).
			Where("payment_group_id = ?", payment.PaymentGroupId).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			if err := tx.Where("payment_group_id = ?", payment.PaymentGroupId).Delete(&models.FeeReceipt{}).Error; err != nil {
				return err
			}
		}

		fee, err = RecalculateFeeTotals(tx, logger, payment.MonthlyFeeId)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"payment_id": paymentId,
		"fee_id":     payment.MonthlyFeeId,
		"student_id": payment.StudentId,
	}).Info("payment slice deleted")
	return fee, nil
}

// DeletePaymentGroup reverses an entire tendered payment: all slices
// sharing the group id are removed and every touched fee is reconciled
// in one transaction.
func DeletePaymentGroup(ctx context.Context, logger *logrus.Logger, paymentGroupId string) ([]*models.MonthlyFee, error) {

	slices, err := models.ListPaymentGroup(ctx, paymentGroupId)
	if err != nil {
		return nil, err
	}
	studentId := slices[0].StudentId

	db := config.GetDB()
	var fees []*models.MonthlyFee
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireStudentPostingLock(tx, studentId); err != nil {
			return err
		}
		defer ReleaseStudentPostingLock(tx, studentId)

		if err := tx.Where("payment_group_id = ?", paymentGroupId).Delete(&models.FeePayment{}).Error; err != nil {
			config.LogError(logger, "PaymentWorkflow.go", "DeletePaymentGroup", "DeleteSlices", paymentGroupId, err)
			return err
		}
		// removing the parent frees the receipt number for reuse
		if err := tx.Where("payment_group_id = ?", paymentGroupId).Delete(&models.FeeReceipt{}).Error; err != nil {
			config.LogError(logger, "PaymentWorkflow.go", "DeletePaymentGroup", "DeleteReceipt", paymentGroupId, err)
			return err
		}
		for _, slice := range slices {
			fee, err := RecalculateFeeTotals(tx, logger, slice.MonthlyFeeId)
			if err != nil {
				return err
			}
			fees = append(fees, fee)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"payment_group_id": paymentGroupId,
		"student_id":       studentId,
		"slices":           len(slices),
	}).Info("payment group deleted")
	return fees, nil
}
