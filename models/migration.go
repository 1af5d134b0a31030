package models

import "gorm.io/gorm"

// AutoMigrate creates/updates every table the service owns. Called from
// main after the DB connection is established.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Hostel{},
		&Room{},
		&Student{},
		&MonthlyFee{},
		&FeeReceipt{},
		&FeePayment{},
		&FeeAdjustment{},
		&Income{},
		&Expense{},
	)
}
