package kernel

import (
	"github.com/shopspring/decimal"
)

// QuantityScale is the number of fractional digits a quantity may carry.
const QuantityScale = 2

// RoundCents rounds an exact decimal amount to integer minor units, half away
// from zero. Amounts in this domain are non-negative, so this is half-up.
func RoundCents(amount decimal.Decimal) int64 {
	return amount.Round(0).IntPart()
}

// Cents lifts integer minor units into decimal arithmetic.
func Cents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents)
}

// HasQuantityScale reports whether q has at most QuantityScale fractional digits.
func HasQuantityScale(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale))
}
