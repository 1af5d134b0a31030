package models

import (
	"context"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/shopspring/decimal"
)

// FeeAdjustment is an append-only signed correction against one fee.
// Wrong adjustments are countered with an opposite entry, never edited.
type FeeAdjustment struct {
	ID           int `gorm:"primary_key" json:"id"`
	MonthlyFeeId int `gorm:"index;not null" json:"monthly_fee_id"`
	HostelId     int `gorm:"index;not null" json:"hostel_id"`

	Amount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Reason string          `gorm:"type:varchar(500);not null" json:"reason"`

	CreatedBy int       `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewFeeAdjustment struct {
	Amount string `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

func ListAdjustmentsForFee(ctx context.Context, feeId int) ([]*FeeAdjustment, error) {
	if _, err := GetMonthlyFee(ctx, feeId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var adjustments []*FeeAdjustment
	if err := db.WithContext(ctx).Where("monthly_fee_id = ?", feeId).Order("id ASC").Find(&adjustments).Error; err != nil {
		return nil, err
	}
	return adjustments, nil
}
