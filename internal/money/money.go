// Package money formats ledger amounts for people.
package money

import (
	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits aggregates are rounded to.
const Scale = 2

// Round rounds an aggregate to Scale digits. Stored amounts are never
// rounded; only sums computed by the database are, since those may carry
// binary floating point noise on SQLite.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Format renders amount with the symbol and grouping of the given ISO 4217
// currency, e.g. "₹1,200.50". Unknown currencies fall back to a plain
// decimal with Scale digits followed by the code.
func Format(amount decimal.Decimal, currency string) string {
	cur := gomoney.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(Scale) + " " + currency
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
