package models

// FeeStatus is derived from a fee's balance and paid totals.
// Only the reconciler writes it.
type FeeStatus string

const (
	FeeStatusPending       FeeStatus = "Pending"
	FeeStatusPartiallyPaid FeeStatus = "PartiallyPaid"
	FeeStatusPaid          FeeStatus = "Paid"
	FeeStatusOverpaid      FeeStatus = "Overpaid"
)

type PaymentMode string

const (
	PaymentModeCash         PaymentMode = "Cash"
	PaymentModeUPI          PaymentMode = "UPI"
	PaymentModeBankTransfer PaymentMode = "BankTransfer"
	PaymentModeCard         PaymentMode = "Card"
	PaymentModeCheque       PaymentMode = "Cheque"
)

func AllPaymentModes() []PaymentMode {
	return []PaymentMode{
		PaymentModeCash,
		PaymentModeUPI,
		PaymentModeBankTransfer,
		PaymentModeCard,
		PaymentModeCheque,
	}
}

func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCash, PaymentModeUPI, PaymentModeBankTransfer, PaymentModeCard, PaymentModeCheque:
		return true
	}
	return false
}

// operator roles
const (
	RoleIdAdmin          = 1 // unrestricted, may target any hostel
	RoleIdHostelOperator = 2 // bound to one hostel via JWT claim
)
