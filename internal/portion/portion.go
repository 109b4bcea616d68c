package portion

import (
	"github.com/shopspring/decimal"
)

// Type says how a declared portion is interpreted against the expense total.
type Type string

const (
	TypeAmount     Type = "amount"
	TypePercentage Type = "percentage"
)

// Valid reports whether t is one of the known portion types.
func (t Type) Valid() bool {
	return t == TypeAmount || t == TypePercentage
}

var hundred = decimal.NewFromInt(100)

// Resolve converts a declared portion into the actual owed amount.
//
// Amount portions are taken as-is; there is no check that the portions of an
// expense add up to its total. Percentage portions are value * total / 100,
// rounded to 2 decimal places. An unknown portion type resolves to zero
// rather than an error.
func Resolve(expenseTotal decimal.Decimal, typ Type, value decimal.Decimal) decimal.Decimal {
	switch typ {
	case TypeAmount:
		return value
	case TypePercentage:
		return value.Mul(expenseTotal).Div(hundred).Round(2)
	}

	return decimal.Zero
}
