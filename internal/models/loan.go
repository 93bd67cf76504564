package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanDirection says who owes whom.
type LoanDirection string

const (
	// LoanDirectionLent means the person owes the user.
	LoanDirectionLent LoanDirection = "lent"
	// LoanDirectionBorrowed means the user owes the person.
	LoanDirectionBorrowed LoanDirection = "borrowed"
)

// Valid reports whether d is lent or borrowed.
func (d LoanDirection) Valid() bool {
	switch d {
	case LoanDirectionLent, LoanDirectionBorrowed:
		return true
	}
	return false
}

// LoanStatus tracks whether an obligation is still open.
type LoanStatus string

const (
	LoanStatusPending LoanStatus = "pending"
	LoanStatusSettled LoanStatus = "settled"
)

// Valid reports whether s is pending or settled.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusPending, LoanStatusSettled:
		return true
	}
	return false
}

// Person is a counterparty of loans and debts, scoped to one user.
type Person struct {
	Base
	UserID string `gorm:"type:uuid;not null" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
}

// TableName overrides the default "people" inflection.
func (Person) TableName() string { return "persons" }

// LoanDebt is a single peer-to-peer obligation. DateSettled is set exactly
// when Status is settled; settled rows are never modified again.
type LoanDebt struct {
	Base
	UserID      string          `gorm:"type:uuid;not null" json:"user_id"`
	PersonID    string          `gorm:"type:uuid;not null" json:"person_id"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Direction   LoanDirection   `gorm:"not null" json:"direction"`
	Reason      string          `gorm:"not null" json:"reason"`
	DateCreated string          `gorm:"not null" json:"date_created"`
	DateSettled *string         `json:"date_settled,omitempty"`
	Status      LoanStatus      `gorm:"not null" json:"status"`

	// PersonName is filled by listing queries that join persons.
	PersonName string `gorm:"->;-:migration" json:"person_name,omitempty"`
}

// TableName maps LoanDebt onto the loans_debts table.
func (LoanDebt) TableName() string { return "loans_debts" }

// PendingPosting records a mirrored loan posting that could not be written,
// so it can be inspected and retried later.
type PendingPosting struct {
	Base
	UserID     string     `gorm:"type:uuid;not null" json:"user_id"`
	LoanDebtID string     `gorm:"type:uuid;not null" json:"loan_debt_id"`
	LastError  string     `gorm:"not null" json:"last_error"`
	Attempts   int        `gorm:"not null" json:"attempts"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
