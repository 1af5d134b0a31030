package models

import (
	"context"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/utils"
)

type User struct {
	ID       int    `gorm:"primary_key" json:"id"`
	Name     string `gorm:"type:varchar(200);not null" json:"name"`
	Email    string `gorm:"type:varchar(200);uniqueIndex;not null" json:"email"`
	Password string `gorm:"type:varchar(200);not null" json:"-"`
	RoleId   int    `gorm:"not null;default:2" json:"role_id"`
	// HostelId is zero for admin accounts, set for hostel operators.
	HostelId  int       `gorm:"index;not null;default:0" json:"hostel_id"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	RoleId   int    `json:"role_id" binding:"required"`
	HostelId int    `json:"hostel_id"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginInfo struct {
	Token    string `json:"token"`
	UserId   int    `json:"user_id"`
	Name     string `json:"name"`
	RoleId   int    `json:"role_id"`
	HostelId int    `json:"hostel_id"`
}

func Login(ctx context.Context, input *LoginInput) (*LoginInfo, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Where("email = ? AND is_active = ?", input.Email, true).First(&user).Error
	if err != nil {
		return nil, &AuthorizationError{Message: "invalid email or password"}
	}
	if err := utils.ComparePassword(user.Password, input.Password); err != nil {
		return nil, &AuthorizationError{Message: "invalid email or password"}
	}

	token, err := utils.JwtGenerate(user.ID, user.RoleId, user.HostelId)
	if err != nil {
		return nil, err
	}

	return &LoginInfo{
		Token:    token,
		UserId:   user.ID,
		Name:     user.Name,
		RoleId:   user.RoleId,
		HostelId: user.HostelId,
	}, nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if roleId, _ := utils.GetRoleIdFromContext(ctx); roleId != RoleIdAdmin {
		return nil, &AuthorizationError{Message: "only admins can create users"}
	}
	if input.RoleId != RoleIdAdmin && input.RoleId != RoleIdHostelOperator {
		return nil, NewValidationError("role_id must be 1 (admin) or 2 (hostel operator)")
	}
	if input.RoleId == RoleIdHostelOperator {
		if input.HostelId == 0 {
			return nil, NewValidationError("hostel_id is required for hostel operators")
		}
		if err := utils.ValidateResourceId[Hostel](ctx, 0, input.HostelId); err != nil {
			return nil, &NotFoundError{Resource: "hostel", Id: input.HostelId}
		}
	}
	if err := utils.ValidateUnique[User](ctx, 0, "email", input.Email, 0); err != nil {
		return nil, NewValidationError("email already registered")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashed),
		RoleId:   input.RoleId,
		IsActive: true,
	}
	if input.RoleId == RoleIdHostelOperator {
		user.HostelId = input.HostelId
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
