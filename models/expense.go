package models

import (
	"context"
	"time"

	"github.com/hosteldesk/hostel_backend/config"
	"github.com/hosteldesk/hostel_backend/utils"
	"github.com/shopspring/decimal"
)

type Expense struct {
	ID       int `gorm:"primary_key" json:"id"`
	HostelId int `gorm:"index;not null" json:"hostel_id"`

	Category    string          `gorm:"type:varchar(100);not null" json:"category"`
	Description string          `gorm:"type:varchar(500)" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	SpentOn     time.Time       `gorm:"type:date;not null" json:"spent_on"`
	PaymentMode PaymentMode     `gorm:"type:varchar(20);not null" json:"payment_mode"`

	CreatedBy int       `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewExpense struct {
	HostelId    int    `json:"hostel_id"`
	Category    string `json:"category" binding:"required"`
	Description string `json:"description"`
	Amount      string `json:"amount" binding:"required"`
	SpentOn     string `json:"spent_on" binding:"required"`
	PaymentMode string `json:"payment_mode" binding:"required"`
}

type UpdateExpense struct {
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Amount      *string `json:"amount"`
	SpentOn     *string `json:"spent_on"`
	PaymentMode *string `json:"payment_mode"`
}

func GetExpense(ctx context.Context, expenseId int) (*Expense, error) {
	hostelId, err := ResolveHostelScope(ctx, 0)
	if err != nil {
		return nil, err
	}
	expense, err := utils.FetchModel[Expense](ctx, hostelId, expenseId)
	if err != nil {
		return nil, &NotFoundError{Resource: "expense", Id: expenseId}
	}
	return expense, nil
}

func ListExpenses(ctx context.Context, requestedHostelId int, from time.Time, to time.Time) ([]*Expense, error) {
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
		dbCtx = dbCtx.Where("spent_on >= ?", from)
	}
	if !to.IsZero() {
		dbCtx = dbCtx.Where("spent_on <= ?", to)
	}
	var entries []*Expense
	if err := dbCtx.Order("spent_on DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func CreateExpense(ctx context.Context, input *NewExpense) (*Expense, error) {
	hostelId, err := RequireHostelScope(ctx, input.HostelId)
	if err != nil {
		return nil, err
	}

	amount, err := utils.ParseDecimal(input.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("amount must be a positive number")
	}
	spentOn, err := time.Parse(dateLayout, input.SpentOn)
	if err != nil {
		return nil, NewValidationError("spent_on must be in YYYY-MM-DD format")
	}
	mode := PaymentMode(input.PaymentMode)
	if !mode.Valid() {
		return nil, NewValidationError("payment_mode is not a recognised mode")
	}
	userId, _ := utils.GetUserIdFromContext(ctx)

	expense := Expense{
		HostelId:    hostelId,
		Category:    input.Category,
		Description: input.Description,
		Amount:      amount,
		SpentOn:     spentOn,
		PaymentMode: mode,
		CreatedBy:   userId,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&expense).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func UpdateExpenseById(ctx context.Context, expenseId int, input *UpdateExpense) (*Expense, error) {
	expense, err := GetExpense(ctx, expenseId)
	if err != nil {
		return nil, err
	}

	if input.Category != nil {
		expense.Category = *input.Category
	}
	if input.Description != nil {
		expense.Description = *input.Description
	}
	if input.Amount != nil {
		amount, err := utils.ParseDecimal(*input.Amount)
		if err != nil || amount.LessThanOrEqual(decimal.Zero) {
			return nil, NewValidationError("amount must be a positive number")
		}
		expense.Amount = amount
	}
	if input.SpentOn != nil {
		spentOn, err := time.Parse(dateLayout, *input.SpentOn)
		if err != nil {
			return nil, NewValidationError("spent_on must be in YYYY-MM-DD format")
		}
		expense.SpentOn = spentOn
	}
	if input.PaymentMode != nil {
		mode := PaymentMode(*input.PaymentMode)
		if !mode.Valid() {
			return nil, NewValidationError("payment_mode is not a recognised mode")
		}
		expense.PaymentMode = mode
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(expense).Error; err != nil {
		return nil, err
	}
	return expense, nil
}

func DeleteExpenseById(ctx context.Context, expenseId int) error {
	expense, err := GetExpense(ctx, expenseId)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Delete(expense).Error
}
