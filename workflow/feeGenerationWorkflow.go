package workflow

import (
	"errors"
	"fmt"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GenerationOutcome reports one hostel's result of a batch run. A batch
// never fails as a whole; each hostel lands on exactly one of skipped,
// success or error.
type GenerationOutcome struct {
	HostelId          int    `json:"hostel_id"`
	HostelName        string `json:"hostel_name"`
	Success           bool   `json:"success"`
	Skipped           bool   `json:"skipped"`
	Reason            string `json:"reason,omitempty"`
	Error             string `json:"error,omitempty"`
	StudentsCount     int    `json:"students_count,omitempty"`
	FeesCreated       int    `json:"fees_created,omitempty"`
	CarryForwardCount int    `json:"carry_forward_count,omitempty"`
}

// GenerateMonthlyFees runs fee generation for one period across the
// given hostels (all active hostels when hostelIds is empty). Hostels
// are processed independently; one hostel's failure never blocks the
// rest.
func GenerateMonthlyFees(db *gorm.DB, logger *logrus.Logger, feeYear int, feeMonth int, hostelIds []int) ([]GenerationOutcome, error) {

	if !ValidPeriod(feeYear, feeMonth) {
		return nil, models.NewValidationError(fmt.Sprintf("invalid billing period %d-%d", feeYear, feeMonth))
	}

	hostels, err := models.ListActiveHostels(config.GetRedisContext(), hostelIds)
	if err != nil {
		config.LogError(logger, "FeeGenerationWorkflow.go", "GenerateMonthlyFees", "ListActiveHostels", hostelIds, err)
		return nil, err
	}

	outcomes := make([]GenerationOutcome, 0, len(hostels))
	for _, hostel := range hostels {
		outcome := generateForHostel(db, logger, hostel, feeYear, feeMonth)
		outcomes = append(outcomes, outcome)
	}

	invalidated := make([]int, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Success || o.FeesCreated > 0 {
			invalidated = append(invalidated, o.HostelId)
		}
	}
	if len(invalidated) > 0 {
		models.InvalidateAvailableMonths(invalidated...)
	}
	return outcomes, nil
}

func generateForHostel(db *gorm.DB, logger *logrus.Logger, hostel *models.Hostel, feeYear int, feeMonth int) GenerationOutcome {

	outcome := GenerationOutcome{HostelId: hostel.ID, HostelName: hostel.Name}

	// fast-fail if another trigger is already running this hostel-period
	redisLock, err := TryRedisGenerationLock(hostel.ID, feeYear, feeMonth)
	if err != nil {
		outcome.Skipped = true
		outcome.Reason = "generation already in progress"
		return outcome
	}
	if redisLock != nil {
		defer redisLock.Release(config.GetRedisContext())
	}

	if err := AcquireGenerationLock(db, hostel.ID, feeYear, feeMonth); err != nil {
		config.LogError(logger, "FeeGenerationWorkflow.go", "generateForHostel", "AcquireGenerationLock", hostel.ID, err)
		outcome.Error = err.Error()
		return outcome
	}
	defer ReleaseGenerationLock(db, hostel.ID, feeYear, feeMonth)

	periodStart, periodEnd := PeriodBounds(feeYear, feeMonth)
	students, err := models.ListActiveStudents(db, hostel.ID, periodStart, periodEnd, config.IncludeMidMonthJoiners())
	if err != nil {
		config.LogError(logger, "FeeGenerationWorkflow.go", "generateForHostel", "ListActiveStudents", hostel.ID, err)
		outcome.Error = err.Error()
		return outcome
	}
	if len(students) == 0 {
		outcome.Skipped = true
		outcome.Reason = "no active students"
		return outcome
	}

	// Existence is tracked per student tuple, never per hostel, so a
	// re-run fills gaps: a joiner added after the first run, or a row a
	// transient failure left missing, gets its fee on the next trigger.
	var billedStudentIds []int
	err = db.Model(&models.MonthlyFee{}).
		Where("hostel_id = ? AND fee_year = ? AND fee_month = ?", hostel.ID, feeYear, feeMonth).
		Pluck("student_id", &billedStudentIds).Error
	if err != nil {
		config.LogError(logger, "FeeGenerationWorkflow.go", "generateForHostel", "ListBilledStudents", hostel.ID, err)
		outcome.Error = err.Error()
		return outcome
	}
	billed := make(map[int]struct{}, len(billedStudentIds))
	for _, id := range billedStudentIds {
		billed[id] = struct{}{}
	}

	pending := make([]*models.Student, 0, len(students))
	for _, student := range students {
		if _, ok := billed[student.ID]; !ok {
			pending = append(pending, student)
		}
	}
	if len(pending) == 0 {
		outcome.Skipped = true
		outcome.Reason = fmt.Sprintf("fees already generated for %d-%02d", feeYear, feeMonth)
		return outcome
	}

	creditEnabled := config.CarryForwardCreditEnabled()
	outcome.StudentsCount = len(students)

	// Each student gets their own insert so one failure cannot roll
	// back the rest of the hostel. Duplicate-key races resolve to a
	// silent skip; the unique index already guaranteed a single winner.
	failed := 0
	for _, student := range pending {
		created, carried, err := generateForStudent(db, logger, hostel, student, feeYear, feeMonth, creditEnabled)
		if err != nil {
			config.LogError(logger, "FeeGenerationWorkflow.go", "generateForHostel", "generateForStudent", student.ID, err)
			failed++
			continue
		}
		if created {
			outcome.FeesCreated++
		}
		if carried {
			outcome.CarryForwardCount++
		}
	}
	if failed > 0 {
		outcome.Error = fmt.Sprintf("failed to generate fees for %d of %d students", failed, len(pending))
		return outcome
	}

	outcome.Success = true
	logger.WithFields(logrus.Fields{
		"hostel_id":           hostel.ID,
		"fee_year":            feeYear,
		"fee_month":           feeMonth,
		"students_count":      outcome.StudentsCount,
		"fees_created":        outcome.FeesCreated,
		"carry_forward_count": outcome.CarryForwardCount,
	}).Info("monthly fee generation completed")
	return outcome
}

func generateForStudent(db *gorm.DB, logger *logrus.Logger, hostel *models.Hostel, student *models.Student, feeYear int, feeMonth int, creditEnabled bool) (created bool, carried bool, err error) {

	err = db.Transaction(func(tx *gorm.DB) error {
		carryForward, err := lookupCarryForward(tx, student.ID, hostel.ID, feeYear, feeMonth, creditEnabled)
		if err != nil {
			return err
		}

		rent := student.EffectiveRent(hostel)
		totals := ComputeTotals(rent, carryForward, nil, nil)

		fee := models.MonthlyFee{
			StudentId:          student.ID,
			HostelId:           hostel.ID,
			FeeYear:            feeYear,
			FeeMonth:           feeMonth,
			RentAmount:         rent,
			CarryForwardAmount: carryForward,
			AdjustmentsTotal:   totals.AdjustmentsTotal,
			TotalDue:           totals.TotalDue,
			TotalPaid:          totals.TotalPaid,
			Balance:            totals.Balance,
			Status:             totals.Status,
		}
		if err := tx.Create(&fee).Error; err != nil {
			return err
		}
		created = true
		carried = !carryForward.IsZero()
		return nil
	})
	if err != nil {
		if isDuplicateKeyErr(err) {
			// another run already created this row
			return false, false, nil
		}
		return false, false, err
	}
	return created, carried, nil
}

// lookupCarryForward finds the balance of the student's nearest prior
// fee row. Gaps in the sequence are tolerated; debt rides across a
// missing month unchanged.
func lookupCarryForward(tx *gorm.DB, studentId int, hostelId int, feeYear int, feeMonth int, creditEnabled bool) (decimal.Decimal, error) {
	var prior models.MonthlyFee
	err := tx.
		Where("student_id = ? AND hostel_id = ?", studentId, hostelId).
		Where("(fee_year < ? OR (fee_year = ? AND fee_month < ?))", feeYear, feeYear, feeMonth).
		Order("fee_year DESC, fee_month DESC").
		First(&prior).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return CarryForwardFromBalance(prior.Balance, creditEnabled), nil
}
