package models

import (
	"context"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/shopspring/decimal"
)

// FeePayment is one allocation slice. A single tendered payment that
// spans several months becomes several rows sharing payment_group_id
// and receipt_number, one row per fee it was applied to.
type FeePayment struct {
	ID             int    `gorm:"primary_key" json:"id"`
	MonthlyFeeId   int    `gorm:"index;not null" json:"monthly_fee_id"`
	HostelId       int    `gorm:"index;not null" json:"hostel_id"`
	StudentId      int    `gorm:"index;not null" json:"student_id"`
	PaymentGroupId string `gorm:"type:varchar(36);index;not null" json:"payment_group_id"`

	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentMode   PaymentMode     `gorm:"type:varchar(20);not null" json:"payment_mode"`
	ReceiptNumber string          `gorm:"type:varchar(100);index;not null" json:"receipt_number"`
	PaymentDate   time.Time       `gorm:"type:date;not null" json:"payment_date"`
	Remarks       string          `gorm:"type:varchar(500)" json:"remarks"`

	CreatedBy int       `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FeeReceipt is the parent row of one tendered payment. Receipt
// uniqueness per hostel is enforced by the uniq_hostel_receipt index,
// so concurrent postings race on the insert and the database picks the
// single winner.
type FeeReceipt struct {
	ID             int    `gorm:"primary_key" json:"id"`
	HostelId       int    `gorm:"uniqueIndex:uniq_hostel_receipt,priority:1;not null" json:"hostel_id"`
	StudentId      int    `gorm:"index;not null" json:"student_id"`
	PaymentGroupId string `gorm:"type:varchar(36);uniqueIndex;not null" json:"payment_group_id"`

	ReceiptNumber string          `gorm:"type:varchar(100);uniqueIndex:uniq_hostel_receipt,priority:2;not null" json:"receipt_number"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentMode   PaymentMode     `gorm:"type:varchar(20);not null" json:"payment_mode"`
	PaymentDate   time.Time       `gorm:"type:date;not null" json:"payment_date"`

	CreatedBy int       `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NewFeePayment is the request body for recording a payment. The amount
// is the full tendered amount; allocation across months happens server
// side.
type NewFeePayment struct {
	StudentId     int    `json:"student_id" binding:"required"`
	HostelId      int    `json:"hostel_id"`
	Amount        string `json:"amount" binding:"required"`
	PaymentMode   string `json:"payment_mode" binding:"required"`
	ReceiptNumber string `json:"receipt_number" binding:"required"`
	PaymentDate   string `json:"payment_date" binding:"required"`
	Remarks       string `json:"remarks"`
}

type UpdateFeePayment struct {
	Amount      *string `json:"amount"`
	PaymentMode *string `json:"payment_mode"`
	PaymentDate *string `json:"payment_date"`
	Remarks     *string `json:"remarks"`
}

func GetFeePayment(ctx context.Context, paymentId int) (*FeePayment, error) {
	hostelId, err := ResolveHostelScope(ctx, 0)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if hostelId > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
	}
	var payment FeePayment
	if err := dbCtx.First(&payment, paymentId).Error; err != nil {
		return nil, &NotFoundError{Resource: "payment", Id: paymentId}
	}
	return &payment, nil
}

// ListPaymentGroup returns all slices of one tendered payment.
func ListPaymentGroup(ctx context.Context, paymentGroupId string) ([]*FeePayment, error) {
	hostelId, err := ResolveHostelScope(ctx, 0)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("payment_group_id = ?", paymentGroupId)
	if hostelId > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
	}
	var payments []*FeePayment
	if err := dbCtx.Order("id ASC").Find(&payments).Error; err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, &NotFoundError{Resource: "payment group", Id: 0}
	}
	return payments, nil
}

func ListPaymentsForFee(ctx context.Context, feeId int) ([]*FeePayment, error) {
	if _, err := GetMonthlyFee(ctx, feeId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var payments []*FeePayment
	if err := db.WithContext(ctx).Where("monthly_fee_id = ?", feeId).Order("payment_date ASC, id ASC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
