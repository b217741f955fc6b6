package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

func dec(s string) decimal.Decimal {
	return generic.MustParseDecimal(s)
}

// assertMoney compares decimals by value so "2610" equals "2610.00".
func assertMoney(t *testing.T, expected string, actual decimal.Decimal, msg ...any) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), append([]any{"expected %s, got %s", expected, actual.String()}, msg...)...)
}

// =============================================================================
// WORKED EXAMPLES
// =============================================================================

func TestCalculate_BonusLeaveAndTax(t *testing.T) {
	// GIVEN base 3000, 10% tax, one bonus of 200, 3 unpaid days
	in := payroll.CalculationInput{
		BaseSalary:      dec("3000.00"),
		TaxPercentage:   dec("10"),
		BonusAmounts:    []decimal.Decimal{dec("200.00")},
		UnpaidLeaveDays: 3,
	}

	// WHEN
	b := payroll.Calculate(in)

	// THEN daily 100, deduction 300, taxable 2900, tax 290, net 2610
	assertMoney(t, "200.00", b.TotalBonuses)
	assertMoney(t, "100.00", b.DailyRate)
	assertMoney(t, "300.00", b.UnpaidLeaveDeduction)
	assertMoney(t, "2900.00", b.TaxableAmount)
	assertMoney(t, "290.00", b.TaxAmount)
	assertMoney(t, "2610.00", b.NetSalary)
	assert.Equal(t, 3, b.UnpaidLeaveDays)
}

func TestCalculate_DeductionExceedsSalary(t *testing.T) {
	// GIVEN 31 unpaid days, so the deduction (1023.33) exceeds the base
	in := payroll.CalculationInput{
		BaseSalary:      dec("1000.00"),
		TaxPercentage:   dec("5"),
		UnpaidLeaveDays: 31,
	}

	b := payroll.Calculate(in)

	// THEN taxable is floored at zero and nothing is negative
	assertMoney(t, "33.33", b.DailyRate)
	assertMoney(t, "1033.23", b.UnpaidLeaveDeduction)
	assertMoney(t, "0", b.TaxableAmount)
	assertMoney(t, "0", b.TaxAmount)
	assertMoney(t, "0", b.NetSalary)
	assertMoney(t, "0", b.TotalBonuses)
}

func TestCalculate_RoundsDailyRateBeforeMultiplying(t *testing.T) {
	// 100/30 = 3.333.. -> 3.33; 3.33 * 7 = 23.31 (not 23.33)
	b := payroll.Calculate(payroll.CalculationInput{
		BaseSalary:      dec("100.00"),
		TaxPercentage:   dec("0"),
		UnpaidLeaveDays: 7,
	})

	assertMoney(t, "3.33", b.DailyRate)
	assertMoney(t, "23.31", b.UnpaidLeaveDeduction)
	assertMoney(t, "76.69", b.NetSalary)
}

func TestCalculate_TaxRoundsHalfUp(t *testing.T) {
	// 10.05 * 50 / 100 = 5.025 -> 5.03
	b := payroll.Calculate(payroll.CalculationInput{
		BaseSalary:    dec("10.05"),
		TaxPercentage: dec("50"),
	})

	assertMoney(t, "5.03", b.TaxAmount)
	assertMoney(t, "5.02", b.NetSalary)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestCalculate_NetIdentityAndNonNegativity(t *testing.T) {
	bases := []string{"0", "1.00", "999.99", "3000.00", "12345.67"}
	taxes := []string{"0", "7.5", "33.33", "100"}
	bonuses := [][]decimal.Decimal{
		nil,
		{dec("0.01")},
		{dec("200.00"), dec("50.50")},
	}

	for _, base := range bases {
		for _, tax := range taxes {
			for _, bs := range bonuses {
				for _, days := range []int{0, 1, 15, 30, 31} {
					b := payroll.Calculate(payroll.CalculationInput{
						BaseSalary:      dec(base),
						TaxPercentage:   dec(tax),
						BonusAmounts:    bs,
						UnpaidLeaveDays: days,
					})

					gross := dec(base).Add(b.TotalBonuses).Sub(b.UnpaidLeaveDeduction)
					assert.True(t, b.NetSalary.Equal(generic.FloorZero(gross).Sub(b.TaxAmount)),
						"net identity base=%s tax=%s days=%d", base, tax, days)
					assert.False(t, b.NetSalary.IsNegative())
					assert.False(t, b.TaxAmount.IsNegative())
					assert.False(t, b.UnpaidLeaveDeduction.IsNegative())
					assert.False(t, b.TotalBonuses.IsNegative())
				}
			}
		}
	}
}
