package models

import (
	"context"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/utils"
	"github.com/shopspring/decimal"
)

// Income covers non-rent receipts (mess charges, fines, deposits).
// Rent collections live in fee_payments and are reported separately.
type Income struct {
	ID       int `gorm:"primary_key" json:"id"`
	HostelId int `gorm:"index;not null" json:"hostel_id"`

	Source      string          `gorm:"type:varchar(200);not null" json:"source"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	ReceivedOn  time.Time       `gorm:"type:date;not null" json:"received_on"`
	PaymentMode PaymentMode     `gorm:"type:varchar(20);not null" json:"payment_mode"`
	Remarks     string          `gorm:"type:varchar(500)" json:"remarks"`

	CreatedBy int       `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewIncome struct {
	HostelId    int    `json:"hostel_id"`
	Source      string `json:"source" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	ReceivedOn  string `json:"received_on" binding:"required"`
	PaymentMode string `json:"payment_mode" binding:"required"`
	Remarks     string `json:"remarks"`
}

type UpdateIncome struct {
	Source      *string `json:"source"`
	Amount      *string `json:"amount"`
	ReceivedOn  *string `json:"received_on"`
	PaymentMode *string `json:"payment_mode"`
	Remarks     *string `json:"remarks"`
}

func GetIncome(ctx context.Context, incomeId int) (*Income, error) {
	hostelId, err := ResolveHostelScope(ctx, 0)
	if err != nil {
		return nil, err
	}
	income, err := utils.FetchModel[Income](ctx, hostelId, incomeId)
	if err != nil {
		return nil, &NotFoundError{Resource: "income", Id: incomeId}
	}
	return income, nil
}

func ListIncome(ctx context.Context, requestedHostelId int, from time.Time, to time.Time) ([]*Income, error) {
	hostelId, err := ResolveHostelScope(ctx, requestedHostelId)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if hostelId > 0 {
		dbCtx = dbCtx.Where("hostel_id = ?", hostelId)
	}
	if !from.IsZero() {
		dbCtx = dbCtx.Where("received_on >= ?", from)
	}
	if !to.IsZero() {
		dbCtx = dbCtx.Where("received_on <= ?", to)
	}
	var entries []*Income
	if err := dbCtx.Order("received_on DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func CreateIncome(ctx context.Context, input *NewIncome) (*Income, error) {
	hostelId, err := RequireHostelScope(ctx, input.HostelId)
	if err != nil {
		return nil, err
	}

	amount, err := utils.ParseDecimal(input.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("amount must be a positive number")
	}
	receivedOn, err := time.Parse(dateLayout, input.ReceivedOn)
	if err != nil {
		return nil, NewValidationError("received_on must be in YYYY-MM-DD format")
	}
	mode := PaymentMode(input.PaymentMode)
	if !mode.Valid() {
		return nil, NewValidationError("payment_mode is not a recognised mode")
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	income := Income{
		HostelId:    hostelId,
		Source:      input.Source,
		Amount:      amount,
		ReceivedOn:  receivedOn,
		PaymentMode: mode,
		Remarks:     input.Remarks,
		CreatedBy:   userId,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&income).Error; err != nil {
		return nil, err
	}
	return &income, nil
}

func UpdateIncomeById(ctx context.Context, incomeId int, input *UpdateIncome) (*Income, error) {
	income, err := GetIncome(ctx, incomeId)
	if err != nil {
		return nil, err
	}

	if input.Source != nil {
		income.Source = *input.Source
	}
	if input.Amount != nil {
		amount, err := utils.ParseDecimal(*input.Amount)
		if err != nil || amount.LessThanOrEqual(decimal.Zero) {
			return nil, NewValidationError("amount must be a positive number")
		}
		income.Amount = amount
	}
	if input.ReceivedOn != nil {
		receivedOn, err := time.Parse(dateLayout, *input.ReceivedOn)
		if err != nil {
			return nil, NewValidationError("received_on must be in YYYY-MM-DD format")
		}
		income.ReceivedOn = receivedOn
	}
	if input.PaymentMode != nil {
		mode := PaymentMode(*input.PaymentMode)
		if !mode.Valid() {
			return nil, NewValidationError("payment_mode is not a recognised mode")
		}
		income.PaymentMode = mode
	}
	if input.Remarks != nil {
		income.Remarks = *input.Remarks
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(income).Error; err != nil {
		return nil, err
	}
	return income, nil
}

func DeleteIncomeById(ctx context.Context, incomeId int) error {
	income, err := GetIncome(ctx, incomeId)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(income).Error
}
