package workflow

import (
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/hosteldesk/hostel_backend/config"
	"gorm.io/gorm"
)

// AcquireStudentPostingLock serializes ledger mutations per student
// across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the
// same *gorm.DB that will run the posting transaction.
func AcquireStudentPostingLock(tx *gorm.DB, studentId int) error {
	lockName := fmt.Sprintf("fee_posting:student:%d", studentId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for student_id=%d", studentId)
	}
	return nil
}

func ReleaseStudentPostingLock(tx *gorm.DB, studentId int) {
	lockName := fmt.Sprintf("fee_posting:student:%d", studentId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquireGenerationLock serializes one hostel-period generation run.
func AcquireGenerationLock(tx *gorm.DB, hostelId int, feeYear int, feeMonth int) error {
	lockName := fmt.Sprintf("fee_generation:%d:%d-%d", hostelId, feeYear, feeMonth)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire generation lock for hostel_id=%d period=%d-%d", hostelId, feeYear, feeMonth)
	}
	return nil
}

func ReleaseGenerationLock(tx *gorm.DB, hostelId int, feeYear int, feeMonth int) {
	lockName := fmt.Sprintf("fee_generation:%d:%d-%d", hostelId, feeYear, feeMonth)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// TryRedisGenerationLock is a best-effort fast-fail in front of the
// MySQL lock so concurrent batch triggers bail out early. A nil return
// with nil lock means Redis is unavailable; the MySQL lock and the
// unique index stay authoritative either way.
func TryRedisGenerationLock(hostelId int, feeYear int, feeMonth int) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, nil
	}
	key := fmt.Sprintf("lock:fee_generation:%d:%d-%d", hostelId, feeYear, feeMonth)
	lock, err := locker.Obtain(config.GetRedisContext(), key, 5*time.Minute, nil)
	if err == redislock.ErrNotObtained {
		return nil, err
	}
	if err != nil {
		// Redis trouble is not fatal
		return nil, nil
	}
	return lock, nil
}
