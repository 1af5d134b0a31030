package models

import (
	"context"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Student struct {
	ID       int  `gorm:"primary_key" json:"id"`
	HostelId int  `gorm:"index;not null" json:"hostel_id"`
	RoomId   *int `gorm:"index" json:"room_id,omitempty"`

	Name          string `gorm:"type:varchar(200);not null" json:"name"`
	Phone         string `gorm:"type:varchar(20)" json:"phone"`
	GuardianName  string `gorm:"type:varchar(200)" json:"guardian_name"`
	GuardianPhone string `gorm:"type:varchar(20)" json:"guardian_phone"`

	// MonthlyRent overrides the room/hostel rent when set.
	MonthlyRent *decimal.Decimal `gorm:"type:decimal(20,4)" json:"monthly_rent,omitempty"`

	JoinDate  time.Time  `gorm:"type:date;not null" json:"join_date"`
	ExitDate  *time.Time `gorm:"type:date" json:"exit_date,omitempty"`
	IsActive  bool       `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Room *Room `gorm:"foreignKey:RoomId" json:"room,omitempty"`
}

type NewStudent struct {
	HostelId      int    `json:"hostel_id"`
	RoomId        *int   `json:"room_id"`
	Name          string `json:"name" binding:"required"`
	Phone         string `json:"phone"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	MonthlyRent   string `json:"monthly_rent"`
	JoinDate      string `json:"join_date" binding:"required"`
}

type UpdateStudent struct {
	RoomId        *int    `json:"room_id"`
	Name          *string `json:"name"`
	Phone         *string `json:"phone"`
	GuardianName  *string `json:"guardian_name"`
	GuardianPhone *string `json:"guardian_phone"`
	MonthlyRent   *string `json:"monthly_rent"`
	ExitDate      *string `json:"exit_date"`
	IsActive      *bool   `json:"is_active"`
}

const dateLayout = "2006-01-02"

func GetStudent(ctx context.Context, studentId int) (*Student, error) {
	hostelId, err := ResolveHostelScope(ctx, 0)
	if err != nil {
		return nil, err
	}
	student, err := utils.FetchModel[Student](ctx, hostelId, studentId, "Room")
	if err != nil {
		return nil, &NotFoundError{Resource: "student", Id: studentId}
	}
	return student, nil
}

func ListStudents(ctx context.Context, requestedHostelId int, activeOnly bool) ([]*Student, error) {
	hostelId, err := ResolveHostelScope(ctx, requestedHostelId)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Room")
	if hostelId > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
	}
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	var students []*Student
	if err := dbCtx.Order("name ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

// ListActiveStudents enumerates students who owe rent for the period
// running from periodStart to periodEnd (inclusive). A student counts
// when active, joined on or before periodEnd, and has not exited before
// periodStart. When includeMidMonth is false, students who joined after
// periodStart are deferred to the next period.
//
// Runs inside the caller's transaction so generation sees a stable
// roster.
func ListActiveStudents(tx *gorm.DB, hostelId int, periodStart time.Time, periodEnd time.Time, includeMidMonth bool) ([]*Student, error) {
	dbCtx := tx.Preload("Room").
		Where("hostel_id = ?", hostelId).
		Where("is_active = ?", true).
		Where("(exit_date IS NULL OR exit_date >= ?)", periodStart)
	if includeMidMonth {
		dbCtx = dbCtx.Where("join_date <= ?", periodEnd)
	} else {
		dbCtx = dbCtx.Where("join_date <= ?", periodStart)
	}

	var students []*Student
	if err := dbCtx.Order("id ASC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

// EffectiveRent resolves the rent charged to this student for a period:
// student override first, then room rent, then the hostel default.
func (s *Student) EffectiveRent(hostel *Hostel) decimal.Decimal {
	if s.MonthlyRent != nil {
		return *s.MonthlyRent
	}
	if s.Room != nil && s.Room.Rent != nil {
		return *s.Room.Rent
	}
	if hostel != nil {
		return hostel.DefaultRent
	}
	return decimal.Zero
}

func CreateStudent(ctx context.Context, input *NewStudent) (*Student, error) {
	hostelId, err := RequireHostelScope(ctx, input.HostelId)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Hostel](ctx, 0, hostelId); err != nil {
		return nil, &NotFoundError{Resource: "hostel", Id: hostelId}
	}
	if input.RoomId != nil {
		if err := utils.ValidateResourceId[Room](ctx, hostelId, *input.RoomId); err != nil {
			return nil, &NotFoundError{Resource: "room", Id: *input.RoomId}
		}
	}

	joinDate, err := time.Parse(dateLayout, input.JoinDate)
	if err != nil {
		return nil, NewValidationError("join_date must be in YYYY-MM-DD format")
	}

	student := Student{
		HostelId:      hostelId,
		RoomId:        input.RoomId,
		Name:          input.Name,
		Phone:         input.Phone,
		GuardianName:  input.GuardianName,
		GuardianPhone: input.GuardianPhone,
		JoinDate:      joinDate,
		IsActive:      true,
	}
	if input.MonthlyRent != "" {
		parsed, err := utils.ParseDecimal(input.MonthlyRent)
		if err != nil {
			return nil, NewValidationError("monthly_rent must be a valid amount")
		}
		student.MonthlyRent = &parsed
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func UpdateStudentById(ctx context.Context, studentId int, input *UpdateStudent) (*Student, error) {
	student, err := GetStudent(ctx, studentId)
	if err != nil {
		return nil, err
	}

	if input.RoomId != nil {
		if err := utils.ValidateResourceId[Room](ctx, student.HostelId, *input.RoomId); err != nil {
			return nil, &NotFoundError{Resource: "room", Id: *input.RoomId}
		}
		student.RoomId = input.RoomId
	}
	if input.Name != nil {
		student.Name = *input.Name
	}
	if input.Phone != nil {
		student.Phone = *input.Phone
	}
	if input.GuardianName != nil {
		student.GuardianName = *input.GuardianName
	}
	if input.GuardianPhone != nil {
		student.GuardianPhone = *input.GuardianPhone
	}
	if input.MonthlyRent != nil {
		if *input.MonthlyRent == "" {
			student.MonthlyRent = nil
		} else {
			parsed, err := utils.ParseDecimal(*input.MonthlyRent)
			if err != nil {
				return nil, NewValidationError("monthly_rent must be a valid amount")
			}
			student.MonthlyRent = &parsed
		}
	}
	if input.ExitDate != nil {
		if *input.ExitDate == "" {
			student.ExitDate = nil
		} else {
			exitDate, err := time.Parse(dateLayout, *input.ExitDate)
			if err != nil {
				return nil, NewValidationError("exit_date must be in YYYY-MM-DD format")
			}
			student.ExitDate = &exitDate
		}
	}
	if input.IsActive != nil {
		student.IsActive = *input.IsActive
	}

	db := config.GetDB()
	// avoid re-saving the preloaded room
	student.Room = nil
	if err := db.WithContext(ctx).Save(student).Error; err != nil {
		return nil, err
	}
	return student, nil
}
