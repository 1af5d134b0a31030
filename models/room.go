package models

import (
	"context"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/utils"
	"github.com/shopspring/decimal"
)

type Room struct {
	ID         int              `gorm:"primary_key" json:"id"`
	HostelId   int              `gorm:"index;not null" json:"hostel_id"`
	RoomNumber string           `gorm:"type:varchar(50);not null" json:"room_number"`
	Capacity   int              `gorm:"not null;default:1" json:"capacity"`
	Rent       *decimal.Decimal `gorm:"type:decimal(20,4)" json:"rent,omitempty"`
	IsActive   bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRoom struct {
	HostelId   int    `json:"hostel_id"`
	RoomNumber string `json:"room_number" binding:"required"`
	Capacity   int    `json:"capacity"`
	Rent       string `json:"rent"`
}

type UpdateRoom struct {
	RoomNumber *string `json:"room_number"`
	Capacity   *int    `json:"capacity"`
	Rent       *string `json:"rent"`
	IsActive   *bool   `json:"is_active"`
}

func GetRoom(ctx context.Context, roomId int) (*Room, error) {
	hostelId, err := ResolveHostelScope(ctx, 0)
	if err != nil {
		return nil, err
	}
	room, err := utils.FetchModel[Room](ctx, hostelId, roomId)
	if err != nil {
		return nil, &NotFoundError{Resource: "room", Id: roomId}
	}
	return room, nil
}

func ListRooms(ctx context.Context, requestedHostelId int) ([]*Room, error) {
	hostelId, err := ResolveHostelScope(ctx, requestedHostelId)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if hostelId > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
	}
	var rooms []*Room
	if err := dbCtx.Order("room_number ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func CreateRoom(ctx context.Context, input *NewRoom) (*Room, error) {
	hostelId, err := RequireHostelScope(ctx, input.HostelId)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Hostel](ctx, 0, hostelId); err != nil {
		return nil, &NotFoundError{Resource: "hostel", Id: hostelId}
	}
	if err := utils.ValidateUnique[Room](ctx, hostelId, "room_number", input.RoomNumber, 0); err != nil {
		return nil, NewValidationError("room_number already exists in this hostel")
	}

	room := Room{
		HostelId:   hostelId,
		RoomNumber: input.RoomNumber,
		Capacity:   input.Capacity,
		IsActive:   true,
	}
	if room.Capacity <= 0 {
		room.Capacity = 1
	}
	if input.Rent != "" {
		parsed, err := utils.ParseDecimal(input.Rent)
		if err != nil {
			return nil, NewValidationError("rent must be a valid amount")
		}
		room.Rent = &parsed
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func UpdateRoomById(ctx context.Context, roomId int, input *UpdateRoom) (*Room, error) {
	room, err := GetRoom(ctx, roomId)
	if err != nil {
		return nil, err
	}

	if input.RoomNumber != nil && *input.RoomNumber != room.RoomNumber {
		if err := utils.ValidateUnique[Room](ctx, room.HostelId, "room_number", *input.RoomNumber, room.ID); err != nil {
			return nil, NewValidationError("room_number already exists in this hostel")
		}
		room.RoomNumber = *input.RoomNumber
	}
	if input.Capacity != nil && *input.Capacity > 0 {
		room.Capacity = *input.Capacity
	}
	if input.Rent != nil {
		if *input.Rent == "" {
			room.Rent = nil
		} else {
			parsed, err := utils.ParseDecimal(*input.Rent)
			if err != nil {
				return nil, NewValidationError("rent must be a valid amount")
			}
			room.Rent = &parsed
		}
	}
	if input.IsActive != nil {
		room.IsActive = *input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(room).Error; err != nil {
		return nil, err
	}
	return room, nil
}
