/*
Package generic provides the domain-agnostic building blocks of the payroll engine.

PURPOSE:
  Money and calendar primitives shared by every other package. Whether the
  caller is the salary calculator, a store, or the HTTP layer, amounts are
  exact decimals and dates are whole calendar days.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money helpers: fixed 2-digit scale, half-up rounding, zero floor
  - MustParseDecimal: test/seed helper for literal amounts

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, never float64
  2. Rounding is explicit: callers decide WHERE to round, helpers decide HOW
  3. Non-negative inputs: rounding helpers assume amounts >= 0, so
     "half away from zero" and "half-up" are the same rule

USAGE:
  daily := generic.DivMoney(baseSalary, decimal.NewFromInt(30))
  deduction := generic.RoundMoney(daily.Mul(decimal.NewFromInt(3)))

SEE ALSO:
  - time.go: Date (day-granularity calendar point)
  - period.go: Period and PayPeriod
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// MoneyScale is the number of fractional digits every persisted amount carries.
const MoneyScale int32 = 2

// RoundMoney rounds d to MoneyScale places, half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// DivMoney divides and rounds the quotient to MoneyScale places, half-up.
// The division happens at full precision; only the result is rounded.
func DivMoney(d, by decimal.Decimal) decimal.Decimal {
	return d.DivRound(by, MoneyScale)
}

// FloorZero returns d, or zero when d is negative.
func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// SumMoney adds all amounts. The sum of no amounts is zero.
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// FormatMoney renders d with exactly MoneyScale fractional digits ("2610.00").
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

// ParseMoney parses a decimal string. Amounts with more than MoneyScale
// fractional digits are rejected rather than silently rounded.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.Equal(d.Round(MoneyScale)) {
		return decimal.Zero, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, s, MoneyScale)
	}
	return d, nil
}

// MustParseDecimal parses s and returns zero on error. Intended for literals
// in tests and seeds.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
