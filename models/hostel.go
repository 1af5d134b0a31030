package models

import (
	"context"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/utils"
	"github.com/shopspring/decimal"
)

type Hostel struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`
	Address     string          `gorm:"type:varchar(500)" json:"address"`
	Phone       string          `gorm:"type:varchar(20)" json:"phone"`
	DefaultRent decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"default_rent"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewHostel struct {
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	DefaultRent string `json:"default_rent"`
}

type UpdateHostel struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	Phone       *string `json:"phone"`
	DefaultRent *string `json:"default_rent"`
	IsActive    *bool   `json:"is_active"`
}

// Hostel directory is admin territory. Operators can read their own
// hostel only.

func GetHostel(ctx context.Context, hostelId int) (*Hostel, error) {
	scoped, err := ResolveHostelScope(ctx, hostelId)
	if err != nil {
		return nil, err
	}
	if scoped > 0 {
		hostelId = scoped
	}
	hostel, err := utils.FetchSingleModel[Hostel](ctx, hostelId)
	if err != nil {
		return nil, &NotFoundError{Resource: "hostel", Id: hostelId}
	}
	return hostel, nil
}

func ListHostels(ctx context.Context) ([]*Hostel, error) {
	roleId, _ := utils.GetRoleIdFromContext(ctx)
	if roleId != RoleIdAdmin {
		bound, _ := utils.GetHostelIdFromContext(ctx)
		if bound == 0 {
			return nil, &AuthorizationError{Message: "your account is not linked to any hostel"}
		}
		hostel, err := GetHostel(ctx, bound)
		if err != nil {
			return nil, err
		}
		return []*Hostel{hostel}, nil
	}

	db := config.GetDB()
	var hostels []*Hostel
	if err := db.WithContext(ctx).Order("name ASC").Find(&hostels).Error; err != nil {
		return nil, err
	}
	return hostels, nil
}

// ListActiveHostels is used by the generation batch to enumerate its
// worklist. Inactive hostels are skipped entirely.
func ListActiveHostels(ctx context.Context, hostelIds []int) ([]*Hostel, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("is_active = ?", true)
	if len(hostelIds) > 0 {
		dbCtx = dbCtx.Where("id IN ?", hostelIds)
	}
	var hostels []*Hostel
	if err := dbCtx.Order("id ASC").Find(&hostels).Error; err != nil {
		return nil, err
	}
	return hostels, nil
}

func CreateHostel(ctx context.Context, input *NewHostel) (*Hostel, error) {
	if roleId, _ := utils.GetRoleIdFromContext(ctx); roleId != RoleIdAdmin {
		return nil, &AuthorizationError{Message: "only admins can manage hostels"}
	}

	defaultRent := decimal.Zero
	if input.DefaultRent != "" {
		parsed, err := utils.ParseDecimal(input.DefaultRent)
		if err != nil {
			return nil, NewValidationError("default_rent must be a valid amount")
		}
		defaultRent = parsed
	}

	hostel := Hostel{
		Name:        input.Name,
		Address:     input.Address,
		Phone:       input.Phone,
		DefaultRent: defaultRent,
		IsActive:    true,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&hostel).Error; err != nil {
		return nil, err
	}
	return &hostel, nil
}

func UpdateHostelById(ctx context.Context, hostelId int, input *UpdateHostel) (*Hostel, error) {
	if roleId, _ := utils.GetRoleIdFromContext(ctx); roleId != RoleIdAdmin {
		return nil, &AuthorizationError{Message: "only admins can manage hostels"}
	}

	hostel, err := utils.FetchSingleModel[Hostel](ctx, hostelId)
	if err != nil {
		return nil, &NotFoundError{Resource: "hostel", Id: hostelId}
	}

	if input.Name != nil {
		hostel.Name = *input.Name
	}
	if input.Address != nil {
		hostel.Address = *input.Address
	}
	if input.Phone != nil {
		hostel.Phone = *input.Phone
	}
	if input.DefaultRent != nil {
		parsed, err := utils.ParseDecimal(*input.DefaultRent)
		if err != nil {
			return nil, NewValidationError("default_rent must be a valid amount")
		}
		hostel.DefaultRent = parsed
	}
	if input.IsActive != nil {
		hostel.IsActive = *input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(hostel).Error; err != nil {
		return nil, err
	}
	return hostel, nil
}
