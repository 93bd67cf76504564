package models

import "github.com/shopspring/decimal"

// TransactionKind carries the sign of a transaction; amounts are always positive.
type TransactionKind string

const (
	TransactionKindIncome  TransactionKind = "income"
	TransactionKindExpense TransactionKind = "expense"
)

// Valid reports whether k is income or expense.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionKindIncome, TransactionKindExpense:
		return true
	}
	return false
}

// Applicability returns the category applicability matching k.
func (k TransactionKind) Applicability() Applicability {
	if k == TransactionKindIncome {
		return ApplicabilityIncome
	}
	return ApplicabilityExpense
}

// PaymentMode is the channel money moved through.
type PaymentMode string

const (
	PaymentModeCC    PaymentMode = "CC"
	PaymentModeUPI   PaymentMode = "UPI"
	PaymentModeCash  PaymentMode = "Cash"
	PaymentModeDebit PaymentMode = "Debit"
	// PaymentModeNone marks entries with no real payment channel, such as
	// postings generated from loans.
	PaymentModeNone PaymentMode = "N/A"
)

// Valid reports whether m is a known payment mode.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCC, PaymentModeUPI, PaymentModeCash, PaymentModeDebit, PaymentModeNone:
		return true
	}
	return false
}

// Transaction represents a single income or expense entry in a user's ledger.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null" json:"user_id"`
	Date        string          `gorm:"not null" json:"date"`
	Mode        PaymentMode     `gorm:"not null" json:"mode"`
	Description string          `gorm:"not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Kind        TransactionKind `gorm:"not null" json:"kind"`
	CategoryID  string          `gorm:"type:uuid;not null" json:"category_id"`

	// CategoryName is filled by listing queries that join categories.
	CategoryName string `gorm:"->;-:migration" json:"category_name,omitempty"`
}
