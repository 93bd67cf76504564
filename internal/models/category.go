package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// Applicability says which transaction kinds a category may label.
type Applicability string

const (
	ApplicabilityIncome  Applicability = "income"
	ApplicabilityExpense Applicability = "expense"
	ApplicabilityBoth    Applicability = "both"
)

// Valid reports whether a is one of the known applicabilities.
func (a Applicability) Valid() bool {
	switch a {
	case ApplicabilityIncome, ApplicabilityExpense, ApplicabilityBoth:
		return true
	}
	return false
}

// Names of the categories the ledger itself depends on.
const (
	// LoansCategoryName labels every loan-originated posting. Analytics
	// exclude it because those postings move balances between people rather
	// than record spending or earning.
	LoansCategoryName = "Loans & Debts"
	OtherCategoryName = "Other"
)

// Category represents a transaction category shared by all users.
type Category struct {
	Base
	Name          string        `gorm:"not null" json:"name"`
	NameKey       string        `gorm:"not null" json:"-"`
	Applicability Applicability `gorm:"not null" json:"applicability"`
	UserCreated   bool          `gorm:"not null;default:false" json:"user_created"`
}

// BeforeSave keeps NameKey in step with Name.
func (c *Category) BeforeSave(_ *gorm.DB) error {
	c.NameKey = CategoryKey(c.Name)
	return nil
}

// CategoryKey canonicalizes a category name for case-insensitive matching:
// trimmed, NFC-normalized and Unicode case-folded.
func CategoryKey(name string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}
