package clubsync

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in integer cents. All money math inside the
// engine happens on this type; conversion to display units (divide by 100)
// happens only at the workspace write boundary.
//
// The ledger's amount columns are kept in "points" with a fixed scale of
// 100 points per currency unit, so a ledger point and a cent are the same
// quantity and no extra conversion is needed between the two.
type Cents int64

// Currency used for formatting settlement figures.
const Currency = money.USD

var hundred = decimal.NewFromInt(100)

// ToCents converts a major-unit amount to integer cents.
//
// Half-cent values round half-up (floor(x*100+0.5), the source ledger's
// Math.round): 0.005 becomes 1 cent, -0.005 becomes 0.
func ToCents(amount decimal.Decimal) Cents {
	half := decimal.New(5, -1)
	return Cents(amount.Mul(hundred).Add(half).Floor().IntPart())
}

// Rakeback computes the rakeback owed on a rake amount at the given rate.
// It always rounds up, in the player's favor. That is a business rule, not
// an approximation: a 0.15 rate on 333 cents owes 50 cents, never 49.
func Rakeback(rake Cents, rate decimal.Decimal) Cents {
	return Cents(decimal.NewFromInt(int64(rake)).Mul(rate).Ceil().IntPart())
}

// Units returns the amount in major currency units for the workspace write
// boundary.
func (c Cents) Units() float64 {
	return float64(c) / 100
}

// Decimal returns the amount in major units as an exact decimal.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats the amount for progress output, e.g. "$1,234.50".
func (c Cents) String() string {
	return money.New(int64(c), Currency).Display()
}
